package services

import (
	"context"

	"github.com/samber/mo"

	"faasrhub/models"
)

// SessionsService signs, verifies and transports the stateless session
// tokens. Sessions are never persisted server-side - a token is the session.
type SessionsService interface {
	Issue(installationID, userLogin string, userID int64, avatarURL string) (*models.Session, string, error)
	Validate(token string) mo.Option[*models.Session]
	ExtractFromCookie(cookieHeader string) mo.Option[string]
}

// ForksService defines the operations that maintain a user's fork of the
// workflow template repository.
type ForksService interface {
	CheckFork(ctx context.Context, session *models.Session) (mo.Option[*models.Fork], error)
	CreateFork(ctx context.Context, session *models.Session) (*models.Fork, error)
	EnsureFork(ctx context.Context, session *models.Session) (*models.Fork, error)
}

// WorkflowsService defines the workflow file upload and registration
// operations executed against a user's fork.
type WorkflowsService interface {
	ValidateWorkflowFile(fileName string, content []byte, sizeBytes int64) []string
	UploadWorkflow(
		ctx context.Context,
		session *models.Session,
		fork *models.Fork,
		rawFileName string,
		content []byte,
		sizeBytes int64,
	) (*models.WorkflowUpload, error)
	CommitWorkflowFile(
		ctx context.Context,
		session *models.Session,
		fork *models.Fork,
		fileName string,
		content []byte,
	) (string, error)
	TriggerRegistration(
		ctx context.Context,
		session *models.Session,
		fork *models.Fork,
		fileName string,
	) (int64, string)
	GetRegistrationStatus(
		ctx context.Context,
		session *models.Session,
		fileName string,
	) (*models.WorkflowRegistration, error)
}
