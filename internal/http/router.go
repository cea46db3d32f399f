package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vbncursed/vkr/wallet-service/internal/config"
	issvc "github.com/vbncursed/vkr/wallet-service/internal/service"
)

func Router(svc *issvc.Service, pool *pgxpool.Pool, cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Binder = StrictJSONBinder{}
	e.HTTPErrorHandler = DefaultHTTPErrorHandler

	// Swagger UI (включается флагом ENABLE_SWAGGER=true)
	if cfg.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	v1 := e.Group("/api/v1")
	v1.GET("/healthz", Healthz)
	v1.GET("/readyz", Readyz(pool))

	// протокол устройств
	v1.POST("/devices/:deviceId/registrations/:serial", RegisterDevice(svc))
	v1.DELETE("/devices/:deviceId/registrations/:serial", UnregisterDevice(svc))
	v1.GET("/devices/:deviceId/registrations", ListChangedSerials(svc))
	v1.GET("/passes/:serial", GetLatestPass(svc))
	v1.POST("/log", LogDiagnostics(svc))

	// выпуск/перевыпуск (внешние коллабораторы: каталог и поток изменений)
	v1.POST("/passes", IssuePass(svc))
	v1.POST("/passes/:serial/publish", PublishPass(svc))

	return e
}
