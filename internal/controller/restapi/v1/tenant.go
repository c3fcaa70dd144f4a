package v1

import (
	"errors"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/infrastructure"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type tenantRoutes struct {
	provisioning usecase.ProvisioningUseCase
	logger       logger.Interface
}

func NewTenantRoutes(apiV1Group fiber.Router, provisioning usecase.ProvisioningUseCase, l logger.Interface) {
	r := &tenantRoutes{provisioning: provisioning, logger: l}

	tenantGroup := apiV1Group.Group("/tenants")
	{
		tenantGroup.Get("/:id", r.get)
		tenantGroup.Get("/:id/status", r.status)
	}
}

// @Summary     Get tenant
// @ID          get-tenant
// @Tags        tenants
// @Produce     json
// @Param       id path string true "Tenant id"
// @Success     200 {object} entity.Tenant
// @Failure     404 {object} response
// @Router      /v1/tenants/{id} [get]
func (r *tenantRoutes) get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid tenant id")
	}

	tenant, err := r.provisioning.GetTenant(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "tenant not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get tenant")
	}

	return ctx.Status(fiber.StatusOK).JSON(tenant)
}

// @Summary     Tenant status
// @Description Status snapshot used by the orchestrator's verification call
// @ID          tenant-status
// @Tags        tenants
// @Produce     json
// @Param       id path string true "Tenant id"
// @Success     200 {object} infrastructure.TenantStatus
// @Failure     404 {object} response
// @Router      /v1/tenants/{id}/status [get]
func (r *tenantRoutes) status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid tenant id")
	}

	tenant, err := r.provisioning.GetTenant(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "tenant not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get tenant")
	}

	return ctx.Status(fiber.StatusOK).JSON(infrastructure.TenantStatus{
		TenantID:    tenant.ID,
		Status:      string(tenant.Status),
		ReadyForUse: tenant.Status == entity.TenantActive,
	})
}
