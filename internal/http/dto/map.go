package dto

import (
	"time"

	issvc "github.com/vbncursed/vkr/wallet-service/internal/service"
)

// ToCommand преобразует IssuePassRequest в команду use case
func (r IssuePassRequest) ToCommand() issvc.IssueCommand {
	return issvc.IssueCommand{
		TemplateID:  r.TemplateID,
		FieldValues: r.FieldValues,
	}
}

// ToCommand преобразует PublishRequest в команду перевыпуска
func (r PublishRequest) ToCommand(serial string) issvc.PublishCommand {
	return issvc.PublishCommand{
		Serial:      serial,
		FieldValues: r.FieldValues,
		Reason:      r.Reason,
	}
}

// FromIssueResult формирует ответ по результату use case
func FromIssueResult(res issvc.IssueResult) IssuePassResponse {
	return IssuePassResponse{
		Serial:       res.Serial,
		AuthToken:    res.AuthToken,
		Version:      res.Version,
		LastModified: res.LastModified.Format(time.RFC3339),
	}
}

// FromPublishResult формирует ответ перевыпуска
func FromPublishResult(res issvc.PublishResult) PublishResponse {
	return PublishResponse{
		Serial:       res.Serial,
		Version:      res.Version,
		LastModified: res.LastModified.Format(time.RFC3339),
	}
}
