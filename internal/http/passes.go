package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vbncursed/vkr/wallet-service/internal/http/dto"
	issvc "github.com/vbncursed/vkr/wallet-service/internal/service"
)

// IssuePass — первичный выпуск пропуска по шаблону
// @Summary     Выпуск пропуска
// @Tags        passes
// @Accept      json
// @Produce     json
// @Param       request body dto.IssuePassRequest true "Issue pass"
// @Success     201 {object} dto.IssuePassResponse
// @Failure     400 {object} APIError
// @Failure     404 {object} APIError
// @Failure     503 {object} APIError
// @Router      /passes [post]
func IssuePass(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.IssuePassRequest
		if err := c.Bind(&req); err != nil {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "malformed"})
		}
		if err := req.Validate(); err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		res, err := svc.Issue(c.Request().Context(), req.ToCommand())
		if err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		return writeJSON(c, http.StatusCreated, dto.FromIssueResult(res))
	}
}

// PublishPass — перевыпуск по событию изменения данных (новая версия артефакта)
// @Summary     Перевыпуск пропуска
// @Tags        passes
// @Accept      json
// @Produce     json
// @Param       serial  path string true "Pass serial"
// @Param       request body dto.PublishRequest true "Change notice"
// @Success     200 {object} dto.PublishResponse
// @Failure     404 {object} APIError
// @Failure     503 {object} APIError
// @Router      /passes/{serial}/publish [post]
func PublishPass(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		serial := strings.TrimSpace(c.Param("serial"))
		if serial == "" {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "serial"})
		}
		var req dto.PublishRequest
		if err := c.Bind(&req); err != nil {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "malformed"})
		}
		res, err := svc.Publish(c.Request().Context(), req.ToCommand(serial))
		if err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		return writeJSON(c, http.StatusOK, dto.FromPublishResult(res))
	}
}
