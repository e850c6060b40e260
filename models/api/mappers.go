package api

import "faasrhub/models"

// DomainSessionToAPIUser converts a domain Session to an API UserModel
func DomainSessionToAPIUser(session *models.Session) *UserModel {
	if session == nil {
		return nil
	}

	return &UserModel{
		Login:          session.UserLogin,
		UserID:         session.UserID,
		InstallationID: session.InstallationID,
		AvatarURL:      session.AvatarURL,
	}
}

// DomainForkToAPIFork converts a domain Fork to an API ForkModel
func DomainForkToAPIFork(fork *models.Fork) *ForkModel {
	if fork == nil {
		return nil
	}

	return &ForkModel{
		Owner:         fork.Owner,
		RepoName:      fork.RepoName,
		ForkURL:       fork.ForkURL,
		Status:        string(fork.Status),
		DefaultBranch: fork.DefaultBranch,
		CreatedAt:     fork.CreatedAt,
	}
}

// DomainUploadToAPIUpload converts a domain WorkflowUpload to an API UploadResponse
func DomainUploadToAPIUpload(upload *models.WorkflowUpload) *UploadResponse {
	if upload == nil {
		return nil
	}

	return &UploadResponse{
		Success:        true,
		FileName:       upload.FileName,
		CommitSHA:      upload.CommitSHA,
		WorkflowRunID:  upload.WorkflowRunID,
		WorkflowRunURL: upload.WorkflowRunURL,
	}
}

// DomainRegistrationToAPIStatus converts a domain WorkflowRegistration to an API StatusResponse
func DomainRegistrationToAPIStatus(registration *models.WorkflowRegistration) *StatusResponse {
	if registration == nil {
		return nil
	}

	return &StatusResponse{
		FileName:       registration.WorkflowFileName,
		Status:         string(registration.Status),
		WorkflowRunID:  registration.WorkflowRunID,
		WorkflowRunURL: registration.WorkflowRunURL,
		ErrorMessage:   registration.ErrorMessage,
		TriggeredAt:    registration.TriggeredAt,
		CompletedAt:    registration.CompletedAt,
	}
}
