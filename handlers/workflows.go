package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"faasrhub/appctx"
	"faasrhub/core"
	"faasrhub/middleware"
	"faasrhub/models/api"
	"faasrhub/services"
	"faasrhub/services/workflows"
)

// maxUploadRequestBytes bounds the whole multipart request body. It leaves
// headroom above the file cap so an oversized file is reported through
// validation instead of a connection abort.
const maxUploadRequestBytes = 2 * workflows.MaxFileSizeBytes

// WorkflowsHTTPHandler serves workflow file uploads and registration status
// lookups.
type WorkflowsHTTPHandler struct {
	workflowsService services.WorkflowsService
	forksService     services.ForksService
}

func NewWorkflowsHTTPHandler(
	workflowsService services.WorkflowsService,
	forksService services.ForksService,
) *WorkflowsHTTPHandler {
	return &WorkflowsHTTPHandler{
		workflowsService: workflowsService,
		forksService:     forksService,
	}
}

// HandleUpload accepts a workflow definition as multipart form data, ensures
// the caller's fork exists, commits the file and dispatches its registration
// run.
func (h *WorkflowsHTTPHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log.Printf("📤 Workflow upload request received from %s", r.RemoteAddr)

	session, ok := appctx.GetSession(r.Context())
	if !ok {
		log.Printf("❌ Session not found in context")
		writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(maxUploadRequestBytes); err != nil {
		log.Printf("❌ Failed to parse multipart form: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "request must be multipart form data within the size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("❌ Multipart field \"file\" is missing: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Printf("❌ Failed to read uploaded file: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	fork, err := h.forksService.EnsureFork(r.Context(), session)
	if err != nil {
		log.Printf("❌ Failed to ensure fork for %s: %v", session.UserLogin, err)
		writeServiceError(w, err)
		return
	}

	upload, err := h.workflowsService.UploadWorkflow(r.Context(), session, fork, header.Filename, content, header.Size)
	if err != nil {
		log.Printf("❌ Failed to upload workflow for %s: %v", session.UserLogin, err)
		writeServiceError(w, err)
		return
	}

	log.Printf("✅ Workflow %s uploaded for %s", upload.FileName, session.UserLogin)
	writeJSONResponse(w, http.StatusOK, api.DomainUploadToAPIUpload(upload))
}

// HandleStatus reports the state of the most recent registration run for the
// named workflow file.
func (h *WorkflowsHTTPHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	log.Printf("📊 Registration status request received from %s", r.RemoteAddr)

	session, ok := appctx.GetSession(r.Context())
	if !ok {
		log.Printf("❌ Session not found in context")
		writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileName := mux.Vars(r)["fileName"]

	registration, err := h.workflowsService.GetRegistrationStatus(r.Context(), session, fileName)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Printf("⚠️ No registration runs found for %s", fileName)
			writeErrorResponse(w, http.StatusNotFound, "no registration runs found for this workflow")
			return
		}
		log.Printf("❌ Failed to get registration status for %s: %v", fileName, err)
		writeServiceError(w, err)
		return
	}

	log.Printf("✅ Registration status for %s: %s", fileName, registration.Status)
	writeJSONResponse(w, http.StatusOK, api.DomainRegistrationToAPIStatus(registration))
}

// SetupEndpoints registers the workflow routes. Uploads pass through both the
// general and the tighter upload rate limit.
func (h *WorkflowsHTTPHandler) SetupEndpoints(
	router *mux.Router,
	authMiddleware *middleware.SessionAuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	log.Printf("🚀 Registering workflow endpoints")

	router.HandleFunc(
		"/workflows/upload",
		authMiddleware.WithAuth(rateLimiter.WithGeneralLimit(rateLimiter.WithUploadLimit(h.HandleUpload))),
	).Methods("POST")
	log.Printf("✅ POST /workflows/upload endpoint registered")

	router.HandleFunc(
		"/workflows/status/{fileName}",
		authMiddleware.WithAuth(rateLimiter.WithGeneralLimit(h.HandleStatus)),
	).Methods("GET")
	log.Printf("✅ GET /workflows/status/{fileName} endpoint registered")
}
