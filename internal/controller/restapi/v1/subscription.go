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

type subscriptionRoutes struct {
	billing usecase.BillingUseCase
	logger  logger.Interface
}

func NewSubscriptionRoutes(apiV1Group fiber.Router, billing usecase.BillingUseCase, l logger.Interface) {
	r := &subscriptionRoutes{billing: billing, logger: l}

	subGroup := apiV1Group.Group("/subscriptions")
	{
		subGroup.Get("/:id", r.get)
		subGroup.Get("/:id/status", r.status)
	}
}

// @Summary     Get subscription
// @ID          get-subscription
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription id"
// @Success     200 {object} entity.Subscription
// @Failure     404 {object} response
// @Router      /v1/subscriptions/{id} [get]
func (r *subscriptionRoutes) get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid subscription id")
	}

	sub, err := r.billing.GetSubscription(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "subscription not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get subscription")
	}

	return ctx.Status(fiber.StatusOK).JSON(sub)
}

// @Summary     Subscription status
// @Description Status snapshot used by the orchestrator's verification call
// @ID          subscription-status
// @Tags        subscriptions
// @Produce     json
// @Param       id path string true "Subscription id"
// @Success     200 {object} infrastructure.SubscriptionStatus
// @Failure     404 {object} response
// @Router      /v1/subscriptions/{id}/status [get]
func (r *subscriptionRoutes) status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid subscription id")
	}

	sub, err := r.billing.GetSubscription(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "subscription not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get subscription")
	}

	return ctx.Status(fiber.StatusOK).JSON(infrastructure.SubscriptionStatus{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
		IsActive:       sub.Status == entity.SubscriptionActive,
	})
}
