package http

import (
	"errors"
	"net/http"

	"github.com/vbncursed/vkr/wallet-service/internal/archive"
	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	"github.com/vbncursed/vkr/wallet-service/internal/credential"
	"github.com/vbncursed/vkr/wallet-service/internal/http/dto"
	"github.com/vbncursed/vkr/wallet-service/internal/signing"
	issvc "github.com/vbncursed/vkr/wallet-service/internal/service"
)

// MapError переводит доменные/DTO ошибки в HTTP статус и тело APIError
func MapError(err error) (int, APIError) {
	// bundle validation: клиент должен исправить вход
	var ve *bundle.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, APIError{Code: "invalid_bundle", Message: ve.Error(), Details: ve.Field}
	}

	switch {
	// DTO validation
	case errors.Is(err, dto.ErrTemplateRequired):
		return http.StatusBadRequest, APIError{Code: "invalid_request", Message: "template_id required"}
	case errors.Is(err, dto.ErrPushTokenRequired):
		return http.StatusBadRequest, APIError{Code: "invalid_request", Message: "push_token required"}
	case errors.Is(err, dto.ErrBadSinceTag):
		return http.StatusBadRequest, APIError{Code: "invalid_request", Message: "passesUpdatedSince malformed"}

	// Service errors
	case errors.Is(err, issvc.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "not_found", Message: "unknown serial"}
	case errors.Is(err, issvc.ErrAuthMismatch):
		return http.StatusUnauthorized, APIError{Code: "auth_mismatch", Message: "invalid auth token"}

	// Credential provisioning: фатально для вызывающего, ретраи бессмысленны
	case errors.Is(err, credential.ErrInvalidPassphrase),
		errors.Is(err, credential.ErrMalformedContainer),
		errors.Is(err, credential.ErrMissingKeyOrCert),
		errors.Is(err, credential.ErrCredentialExpired):
		return http.StatusServiceUnavailable, APIError{Code: "credential", Message: err.Error()}

	case errors.Is(err, signing.ErrCertificateExpired),
		errors.Is(err, signing.ErrChainIncomplete),
		errors.Is(err, signing.ErrSigning):
		return http.StatusServiceUnavailable, APIError{Code: "signing", Message: err.Error()}

	// packaging bug, инвариант нарушен
	case errors.Is(err, archive.ErrArchive):
		return http.StatusInternalServerError, APIError{Code: "internal", Message: "archive"}
	}
	return http.StatusInternalServerError, APIError{Code: "internal", Message: "internal error"}
}
