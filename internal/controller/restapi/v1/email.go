package v1

import (
	"errors"

	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type emailRoutes struct {
	notification usecase.NotificationUseCase
	logger       logger.Interface
}

func NewEmailRoutes(apiV1Group fiber.Router, notification usecase.NotificationUseCase, l logger.Interface) {
	r := &emailRoutes{notification: notification, logger: l}

	emailGroup := apiV1Group.Group("/emails")
	{
		emailGroup.Get("/:id", r.get)
		emailGroup.Post("/invoice", r.sendInvoice)
	}
}

type sendInvoiceRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" example:"d9b2d63d-a233-4123-847a-7c9f30b0f3a1"`
	RecipientEmail string    `json:"recipient_email" example:"billing@acme.example"`
	Amount         float64   `json:"amount" example:"49.99"`
}

// @Summary     Get email log
// @ID          get-email
// @Tags        emails
// @Produce     json
// @Param       id path string true "Email id"
// @Success     200 {object} entity.EmailLog
// @Failure     404 {object} response
// @Router      /v1/emails/{id} [get]
func (r *emailRoutes) get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid email id")
	}

	email, err := r.notification.GetEmailLog(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "email not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get email")
	}

	return ctx.Status(fiber.StatusOK).JSON(email)
}

// @Summary     Send invoice email
// @Description Send a billing notice outside any saga
// @ID          send-invoice
// @Tags        emails
// @Accept      json
// @Produce     json
// @Param       request body sendInvoiceRequest true "Invoice parameters"
// @Success     201 {object} entity.EmailLog
// @Failure     400 {object} response
// @Failure     500 {object} response
// @Router      /v1/emails/invoice [post]
func (r *emailRoutes) sendInvoice(ctx *fiber.Ctx) error {
	var req sendInvoiceRequest

	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if req.SubscriptionID == uuid.Nil || req.RecipientEmail == "" {
		return errorResponse(ctx, fiber.StatusBadRequest, "subscription_id and recipient_email are required")
	}

	email, err := r.notification.SendInvoiceEmail(ctx.UserContext(), req.SubscriptionID, req.RecipientEmail, req.Amount)
	if err != nil {
		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to send invoice email")
	}

	return ctx.Status(fiber.StatusCreated).JSON(email)
}
