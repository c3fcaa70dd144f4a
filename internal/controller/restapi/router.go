// Package restapi wires the HTTP surface of each service. The orchestrator
// exposes the saga API; participants expose read-only status endpoints the
// orchestrator uses for verification.
package restapi

import (
	"github.com/dnsokolov/saas-onboarding/internal/controller/restapi/middleware"
	v1 "github.com/dnsokolov/saas-onboarding/internal/controller/restapi/v1"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/gofiber/swagger"
)

func NewOrchestratorRouter(app *fiber.App, saga usecase.SagaUseCase, l logger.Interface, swaggerEnabled bool) {
	mountCommon(app, l, swaggerEnabled)

	apiV1Group := app.Group("/v1")
	{
		v1.NewSagaRoutes(apiV1Group, saga, l)
	}
}

func NewBillingRouter(app *fiber.App, billing usecase.BillingUseCase, l logger.Interface, swaggerEnabled bool) {
	mountCommon(app, l, swaggerEnabled)

	apiV1Group := app.Group("/v1")
	{
		v1.NewSubscriptionRoutes(apiV1Group, billing, l)
	}
}

func NewProvisioningRouter(app *fiber.App, provisioning usecase.ProvisioningUseCase, l logger.Interface, swaggerEnabled bool) {
	mountCommon(app, l, swaggerEnabled)

	apiV1Group := app.Group("/v1")
	{
		v1.NewTenantRoutes(apiV1Group, provisioning, l)
	}
}

func NewNotificationRouter(app *fiber.App, notification usecase.NotificationUseCase, l logger.Interface, swaggerEnabled bool) {
	mountCommon(app, l, swaggerEnabled)

	apiV1Group := app.Group("/v1")
	{
		v1.NewEmailRoutes(apiV1Group, notification, l)
	}
}

func mountCommon(app *fiber.App, l logger.Interface, swaggerEnabled bool) {
	app.Use(middleware.Logger(l))
	app.Use(middleware.Recovery(l))

	if swaggerEnabled {
		app.Get("/swagger/*", fiberSwagger.HandlerDefault)
	}

	app.Get("/healthz", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })
}
