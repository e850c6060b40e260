package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"faasrhub/appctx"
	"faasrhub/clients"
	"faasrhub/config"
	"faasrhub/middleware"
	"faasrhub/models/api"
	"faasrhub/services"
	"faasrhub/services/sessions"
)

// requiredInstallationPermissions is the exact permission set the app needs
// to commit workflow files and drive registration runs.
var requiredInstallationPermissions = []struct {
	Name  string
	Level string
}{
	{"contents", "write"},
	{"actions", "write"},
	{"metadata", "read"},
}

// AuthHTTPHandler serves the GitHub App installation flow and session
// endpoints.
type AuthHTTPHandler struct {
	config          *config.AppConfig
	githubClient    clients.GitHubClient
	sessionsService services.SessionsService
	forksService    services.ForksService
}

// NewAuthHTTPHandler creates the auth handler. githubClient may be nil when
// the GitHub App is not configured; the callback then reports a configuration
// error instead of proceeding.
func NewAuthHTTPHandler(
	cfg *config.AppConfig,
	githubClient clients.GitHubClient,
	sessionsService services.SessionsService,
	forksService services.ForksService,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		config:          cfg,
		githubClient:    githubClient,
		sessionsService: sessionsService,
		forksService:    forksService,
	}
}

// HandleInstall redirects the browser to the GitHub App installation page
func (h *AuthHTTPHandler) HandleInstall(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Install redirect request received from %s", r.RemoteAddr)

	if h.config.GitHubConfig.AppSlug == "" {
		log.Printf("❌ GitHub App slug is not configured")
		writeErrorResponse(w, http.StatusInternalServerError, "GitHub App is not configured")
		return
	}

	installURL := fmt.Sprintf("https://github.com/apps/%s/installations/new", h.config.GitHubConfig.AppSlug)
	log.Printf("✅ Redirecting to %s", installURL)
	http.Redirect(w, r, installURL, http.StatusFound)
}

// HandleCallback completes an installation: it verifies the granted
// permissions, issues a session, ensures the user's fork exists and sets the
// session cookie.
func (h *AuthHTTPHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Installation callback received from %s", r.RemoteAddr)

	if h.githubClient == nil {
		log.Printf("❌ GitHub App is not configured")
		writeErrorResponse(w, http.StatusInternalServerError, "GitHub App is not configured")
		return
	}

	installationID := r.URL.Query().Get("installation_id")
	if installationID == "" {
		log.Printf("❌ Callback is missing the installation_id parameter")
		writeErrorResponse(w, http.StatusBadRequest, "installation_id query parameter is required")
		return
	}

	installation, err := h.githubClient.GetInstallation(r.Context(), installationID)
	if err != nil {
		log.Printf("❌ Failed to get installation %s: %v", installationID, err)
		writeServiceError(w, err)
		return
	}

	if missing := missingPermissions(installation.Permissions); len(missing) > 0 {
		log.Printf("❌ Installation %s is missing permissions: %v", installationID, missing)
		writeErrorResponse(w, http.StatusBadRequest, "GitHub App installation is missing required permissions", missing...)
		return
	}

	if installation.Account.Login == "" {
		log.Printf("❌ Installation %s is not bound to an account", installationID)
		writeErrorResponse(w, http.StatusBadGateway, "GitHub installation is not bound to a user account")
		return
	}

	session, token, err := h.sessionsService.Issue(
		installationID,
		installation.Account.Login,
		installation.Account.ID,
		installation.Account.AvatarURL,
	)
	if err != nil {
		log.Printf("❌ Failed to issue session for %s: %v", installation.Account.Login, err)
		writeServiceError(w, err)
		return
	}

	fork, err := h.forksService.EnsureFork(r.Context(), session)
	if err != nil {
		log.Printf("❌ Failed to ensure fork for %s: %v", session.UserLogin, err)
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	log.Printf("✅ Installation callback completed for %s (fork %s)", session.UserLogin, fork.ForkURL)
	writeJSONResponse(w, http.StatusOK, api.CallbackResponse{
		Success: true,
		User:    *api.DomainSessionToAPIUser(session),
		Fork:    *api.DomainForkToAPIFork(fork),
	})
}

// HandleSession reports whether the caller holds a valid session
func (h *AuthHTTPHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := appctx.GetSession(r.Context())
	if !ok {
		writeJSONResponse(w, http.StatusOK, api.SessionResponse{Authenticated: false})
		return
	}

	writeJSONResponse(w, http.StatusOK, api.SessionResponse{
		Authenticated: true,
		User:          api.DomainSessionToAPIUser(session),
	})
}

// HandleLogout clears the session cookie. Tokens cannot be revoked - they
// simply age out - so logout is purely a client-side affair.
func (h *AuthHTTPHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	log.Printf("👋 Logout request received from %s", r.RemoteAddr)

	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSONResponse(w, http.StatusOK, api.LogoutResponse{Success: true})
}

// SetupEndpoints registers the auth routes
func (h *AuthHTTPHandler) SetupEndpoints(
	router *mux.Router,
	authMiddleware *middleware.SessionAuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	log.Printf("🚀 Registering auth endpoints")

	router.HandleFunc("/auth/install", rateLimiter.WithGeneralLimit(h.HandleInstall)).Methods("GET")
	log.Printf("✅ GET /auth/install endpoint registered")

	router.HandleFunc("/auth/callback", rateLimiter.WithGeneralLimit(h.HandleCallback)).Methods("GET")
	log.Printf("✅ GET /auth/callback endpoint registered")

	router.HandleFunc("/auth/session", authMiddleware.WithOptionalAuth(rateLimiter.WithGeneralLimit(h.HandleSession))).
		Methods("GET")
	log.Printf("✅ GET /auth/session endpoint registered")

	router.HandleFunc("/auth/logout", rateLimiter.WithGeneralLimit(h.HandleLogout)).Methods("POST")
	log.Printf("✅ POST /auth/logout endpoint registered")
}

// missingPermissions compares the granted permission map against the required
// set. A higher level than required (write where read is needed) satisfies
// the requirement.
func missingPermissions(granted map[string]string) []string {
	var missing []string
	for _, required := range requiredInstallationPermissions {
		if permissionRank(granted[required.Name]) < permissionRank(required.Level) {
			missing = append(missing, fmt.Sprintf("installation is missing the %s:%s permission", required.Name, required.Level))
		}
	}
	return missing
}

func permissionRank(level string) int {
	switch level {
	case "read":
		return 1
	case "write":
		return 2
	case "admin":
		return 3
	default:
		return 0
	}
}
