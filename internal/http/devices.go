package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vbncursed/vkr/wallet-service/internal/http/dto"
	issvc "github.com/vbncursed/vkr/wallet-service/internal/service"
)

// RegisterDevice — регистрация устройства на обновления пропуска
// @Summary     Зарегистрировать устройство
// @Tags        devices
// @Accept      json
// @Produce     json
// @Param       deviceId path string true "Device ID"
// @Param       serial   path string true "Pass serial"
// @Param       request  body dto.RegisterRequest true "Push token"
// @Success     200 {object} dto.RegisterResponse "уже зарегистрировано"
// @Success     201 {object} dto.RegisterResponse "новая регистрация"
// @Failure     401 {object} APIError
// @Failure     404 {object} APIError
// @Security    BearerAuth
// @Router      /devices/{deviceId}/registrations/{serial} [post]
func RegisterDevice(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := strings.TrimSpace(c.Param("deviceId"))
		serial := strings.TrimSpace(c.Param("serial"))
		if deviceID == "" || serial == "" {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "device and serial required"})
		}
		var req dto.RegisterRequest
		if err := c.Bind(&req); err != nil {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "malformed"})
		}
		if err := req.Validate(); err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		created, err := svc.RegisterDevice(c.Request().Context(), deviceID, serial, bearerToken(c), req.PushToken)
		if err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		if created {
			return writeJSON(c, http.StatusCreated, dto.RegisterResponse{Serial: serial, Status: "registered"})
		}
		return writeJSON(c, http.StatusOK, dto.RegisterResponse{Serial: serial, Status: "already_registered"})
	}
}

// UnregisterDevice — снять регистрацию; отсутствие записи не ошибка
// @Summary     Снять регистрацию устройства
// @Tags        devices
// @Produce     json
// @Param       deviceId path string true "Device ID"
// @Param       serial   path string true "Pass serial"
// @Success     200 {object} dto.RegisterResponse
// @Failure     401 {object} APIError
// @Failure     404 {object} APIError
// @Security    BearerAuth
// @Router      /devices/{deviceId}/registrations/{serial} [delete]
func UnregisterDevice(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := strings.TrimSpace(c.Param("deviceId"))
		serial := strings.TrimSpace(c.Param("serial"))
		if err := svc.UnregisterDevice(c.Request().Context(), deviceID, serial, bearerToken(c)); err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		return writeJSON(c, http.StatusOK, dto.RegisterResponse{Serial: serial, Status: "unregistered"})
	}
}

// ListChangedSerials — серийники устройства, изменившиеся после тега
// @Summary     Изменившиеся пропуска устройства
// @Tags        devices
// @Produce     json
// @Param       deviceId            path  string true  "Device ID"
// @Param       passesUpdatedSince  query string false "Тег прошлого опроса"
// @Success     200 {object} dto.ChangedSerialsResponse
// @Success     204 "изменений нет"
// @Failure     401 {object} APIError
// @Security    BearerAuth
// @Router      /devices/{deviceId}/registrations [get]
func ListChangedSerials(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := strings.TrimSpace(c.Param("deviceId"))
		since, err := dto.ParseSinceTag(c.QueryParam("passesUpdatedSince"))
		if err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		serials, newest, err := svc.ChangedSerials(c.Request().Context(), deviceID, bearerToken(c), since)
		if err != nil {
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		if len(serials) == 0 {
			return c.NoContent(http.StatusNoContent)
		}
		return writeJSON(c, http.StatusOK, dto.ChangedSerialsResponse{
			Serials:     serials,
			LastUpdated: dto.FormatSinceTag(newest),
		})
	}
}

// GetLatestPass — текущий архив пропуска с условной выдачей
// @Summary     Скачать актуальный пропуск
// @Tags        devices
// @Produce     application/octet-stream
// @Param       serial            path   string true  "Pass serial"
// @Param       If-Modified-Since header string false "HTTP-дата прошлой выдачи"
// @Success     200 {file} binary
// @Success     304 "не изменялся"
// @Failure     401 {object} APIError
// @Failure     404 {object} APIError
// @Security    BearerAuth
// @Router      /passes/{serial} [get]
func GetLatestPass(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		serial := strings.TrimSpace(c.Param("serial"))
		var since time.Time
		if h := c.Request().Header.Get("If-Modified-Since"); h != "" {
			if t, err := http.ParseTime(h); err == nil {
				since = t
			}
		}
		art, err := svc.LatestArtifact(c.Request().Context(), serial, bearerToken(c), since)
		if err != nil {
			if errors.Is(err, issvc.ErrNotModified) {
				return c.NoContent(http.StatusNotModified)
			}
			status, body := MapError(err)
			return writeJSON(c, status, body)
		}
		c.Response().Header().Set("Last-Modified", art.LastModified.UTC().Format(http.TimeFormat))
		return c.Blob(http.StatusOK, "application/octet-stream", art.Archive)
	}
}

// LogDiagnostics — прием диагностических сообщений клиентов
// @Summary     Лог клиента
// @Tags        devices
// @Accept      json
// @Produce     json
// @Param       request body dto.LogRequest true "Messages"
// @Success     200
// @Router      /log [post]
func LogDiagnostics(svc *issvc.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.LogRequest
		if err := c.Bind(&req); err != nil {
			return writeJSON(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "malformed"})
		}
		svc.LogDiagnostics(c.Request().Header.Get("X-Device-Id"), req.Messages)
		return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
	}
}
