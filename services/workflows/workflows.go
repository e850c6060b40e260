package workflows

import (
	"context"
	"fmt"
	"log"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"faasrhub/clients"
	"faasrhub/core"
	"faasrhub/metrics"
	"faasrhub/models"
)

// WorkflowsService commits workflow definitions into a user's fork and drives
// the registration workflow that runs against them. Registration state lives
// entirely in GitHub Actions - every status read is a live query.
type WorkflowsService struct {
	githubClient         clients.GitHubClient
	collector            *metrics.Collector
	repoName             string
	registrationWorkflow string
	schema               *jsonschema.Schema
}

// NewWorkflowsService builds the service. schema may be nil, in which case
// uploads are checked syntactically only.
func NewWorkflowsService(
	githubClient clients.GitHubClient,
	collector *metrics.Collector,
	repoName, registrationWorkflow string,
	schema *jsonschema.Schema,
) *WorkflowsService {
	return &WorkflowsService{
		githubClient:         githubClient,
		collector:            collector,
		repoName:             repoName,
		registrationWorkflow: registrationWorkflow,
		schema:               schema,
	}
}

// UploadWorkflow runs the full upload pipeline: sanitize the file name,
// validate the file, commit it into the fork and dispatch the registration
// workflow. Dispatch problems do not fail the upload - the file is committed
// at that point and the run id/URL are simply absent from the result.
func (s *WorkflowsService) UploadWorkflow(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	rawFileName string,
	content []byte,
	sizeBytes int64,
) (*models.WorkflowUpload, error) {
	log.Printf("📋 Starting to upload workflow file %q for user: %s", rawFileName, session.UserLogin)

	fileName := SanitizeFileName(rawFileName)
	if validationErrs := s.ValidateWorkflowFile(fileName, content, sizeBytes); len(validationErrs) > 0 {
		s.collector.RecordUpload(metrics.OutcomeValidationFailed)
		log.Printf("⚠️ Workflow file %s failed validation: %v", fileName, validationErrs)
		return nil, core.NewValidationError(validationErrs)
	}

	commitSHA, err := s.CommitWorkflowFile(ctx, session, fork, fileName, content)
	if err != nil {
		s.collector.RecordUpload(metrics.OutcomeFailed)
		return nil, err
	}

	runID, runURL := s.TriggerRegistration(ctx, session, fork, fileName)

	s.collector.RecordUpload(metrics.OutcomeAccepted)
	log.Printf("📋 Completed successfully - uploaded workflow file %s at commit %s", fileName, commitSHA)
	return &models.WorkflowUpload{
		FileName:       fileName,
		CommitSHA:      commitSHA,
		WorkflowRunID:  runID,
		WorkflowRunURL: runURL,
	}, nil
}

// CommitWorkflowFile writes the workflow definition into the fork's default
// branch with create-or-update semantics. The current blob SHA is looked up
// first so an existing file becomes an update instead of a conflicting
// create; a not-found lookup means "create new", any other lookup failure
// propagates unchanged.
func (s *WorkflowsService) CommitWorkflowFile(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	fileName string,
	content []byte,
) (string, error) {
	log.Printf("📋 Starting to commit workflow file %s into %s/%s", fileName, fork.Owner, fork.RepoName)

	maybeFile, err := s.githubClient.GetFileContent(
		ctx,
		session.InstallationID,
		fork.Owner,
		fork.RepoName,
		fileName,
		fork.DefaultBranch,
	)
	if err != nil {
		return "", fmt.Errorf("failed to look up existing workflow file: %w", err)
	}

	req := clients.CreateOrUpdateFileRequest{
		Content: content,
		Branch:  fork.DefaultBranch,
	}
	if file, exists := maybeFile.Get(); exists {
		req.SHA = file.SHA
		req.Message = fmt.Sprintf("Update %s", fileName)
	} else {
		req.Message = fmt.Sprintf("Add %s", fileName)
	}

	commit, err := s.githubClient.CreateOrUpdateFile(
		ctx,
		session.InstallationID,
		fork.Owner,
		fork.RepoName,
		fileName,
		req,
	)
	if err != nil {
		return "", fmt.Errorf("failed to commit workflow file: %w", err)
	}
	if commit.SHA == "" {
		return "", fmt.Errorf("commit response for %s carried no commit SHA", fileName)
	}

	log.Printf("📋 Completed successfully - committed %s as %s", fileName, commit.SHA)
	return commit.SHA, nil
}

// TriggerRegistration dispatches the registration workflow for the committed
// file and best-effort resolves the run it started. Both the dispatch and the
// lookup may fail without aborting the upload flow - the run may not be
// enumerable yet, and the user experience should not hard-fail on a cosmetic
// lookup miss. Returns zero values when the run could not be resolved.
func (s *WorkflowsService) TriggerRegistration(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	fileName string,
) (int64, string) {
	log.Printf("📋 Starting to trigger registration of %s in %s/%s", fileName, fork.Owner, fork.RepoName)

	err := s.githubClient.DispatchWorkflow(
		ctx,
		session.InstallationID,
		fork.Owner,
		fork.RepoName,
		s.registrationWorkflow,
		fork.DefaultBranch,
		map[string]string{"workflow_file": fileName},
	)
	if err != nil {
		s.collector.RecordWorkflowDispatch(metrics.OutcomeFailed)
		log.Printf("⚠️ Failed to dispatch registration workflow for %s: %v", fileName, err)
		return 0, ""
	}
	s.collector.RecordWorkflowDispatch(metrics.OutcomeDispatched)

	runs, err := s.githubClient.ListWorkflowRuns(
		ctx,
		session.InstallationID,
		fork.Owner,
		fork.RepoName,
		s.registrationWorkflow,
		1,
	)
	if err != nil {
		log.Printf("⚠️ Dispatched registration for %s but failed to enumerate runs: %v", fileName, err)
		return 0, ""
	}
	if len(runs) == 0 {
		log.Printf("⚠️ Dispatched registration for %s but no run is enumerable yet", fileName)
		return 0, ""
	}

	log.Printf("📋 Completed successfully - registration run %d started for %s", runs[0].ID, fileName)
	return runs[0].ID, runs[0].HTMLURL
}

// GetRegistrationStatus resolves the state of the most recent registration
// run. At most one registration is assumed in flight per user, so the most
// recent run of the registration workflow is taken to belong to fileName -
// a known simplification, not a correctness guarantee.
func (s *WorkflowsService) GetRegistrationStatus(
	ctx context.Context,
	session *models.Session,
	fileName string,
) (*models.WorkflowRegistration, error) {
	log.Printf("📋 Starting to get registration status of %s for user: %s", fileName, session.UserLogin)

	runs, err := s.githubClient.ListWorkflowRuns(
		ctx,
		session.InstallationID,
		session.UserLogin,
		s.repoName,
		s.registrationWorkflow,
		1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list registration runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no registration runs found for %s: %w", fileName, core.ErrNotFound)
	}

	run, err := s.githubClient.GetWorkflowRun(ctx, session.InstallationID, session.UserLogin, s.repoName, runs[0].ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration run %d: %w", runs[0].ID, err)
	}

	status, errorMessage := models.RegistrationStatusFromRun(run.Status, run.Conclusion)
	registration := &models.WorkflowRegistration{
		WorkflowFileName: fileName,
		Status:           status,
		WorkflowRunID:    run.ID,
		WorkflowRunURL:   run.HTMLURL,
		ErrorMessage:     errorMessage,
	}
	if !run.CreatedAt.IsZero() {
		triggeredAt := run.CreatedAt
		registration.TriggeredAt = &triggeredAt
	}
	if status == models.RegistrationStatusSuccess || status == models.RegistrationStatusFailed {
		completedAt := run.UpdatedAt
		registration.CompletedAt = &completedAt
	}

	log.Printf("📋 Completed successfully - registration of %s is %s", fileName, status)
	return registration, nil
}
