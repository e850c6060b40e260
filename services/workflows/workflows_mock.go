package workflows

import (
	"context"

	"github.com/stretchr/testify/mock"

	"faasrhub/models"
)

// MockWorkflowsService is a mock implementation of the WorkflowsService
// interface
type MockWorkflowsService struct {
	mock.Mock
}

func (m *MockWorkflowsService) ValidateWorkflowFile(fileName string, content []byte, sizeBytes int64) []string {
	args := m.Called(fileName, content, sizeBytes)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockWorkflowsService) UploadWorkflow(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	rawFileName string,
	content []byte,
	sizeBytes int64,
) (*models.WorkflowUpload, error) {
	args := m.Called(ctx, session, fork, rawFileName, content, sizeBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowUpload), args.Error(1)
}

func (m *MockWorkflowsService) CommitWorkflowFile(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	fileName string,
	content []byte,
) (string, error) {
	args := m.Called(ctx, session, fork, fileName, content)
	return args.String(0), args.Error(1)
}

func (m *MockWorkflowsService) TriggerRegistration(
	ctx context.Context,
	session *models.Session,
	fork *models.Fork,
	fileName string,
) (int64, string) {
	args := m.Called(ctx, session, fork, fileName)
	return args.Get(0).(int64), args.String(1)
}

func (m *MockWorkflowsService) GetRegistrationStatus(
	ctx context.Context,
	session *models.Session,
	fileName string,
) (*models.WorkflowRegistration, error) {
	args := m.Called(ctx, session, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowRegistration), args.Error(1)
}
