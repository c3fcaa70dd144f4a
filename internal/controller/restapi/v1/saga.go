package v1

import (
	"errors"

	"github.com/dnsokolov/saas-onboarding/internal/entity"
	"github.com/dnsokolov/saas-onboarding/internal/usecase"
	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/dnsokolov/saas-onboarding/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	_defaultListLimit = 20
	_maxListLimit     = 100
)

type sagaRoutes struct {
	saga   usecase.SagaUseCase
	logger logger.Interface
}

func NewSagaRoutes(apiV1Group fiber.Router, saga usecase.SagaUseCase, l logger.Interface) {
	r := &sagaRoutes{saga: saga, logger: l}

	sagaGroup := apiV1Group.Group("/sagas")
	{
		sagaGroup.Post("", r.start)
		sagaGroup.Get("", r.list)
		sagaGroup.Get("/:id", r.get)
		sagaGroup.Post("/:id/compensate", r.compensate)
	}
}

type startSagaRequest struct {
	CustomerID uuid.UUID `json:"customer_id" example:"d9b2d63d-a233-4123-847a-7c9f30b0f3a1"`
	PlanID     string    `json:"plan_id" example:"pro-monthly"`
	TenantName string    `json:"tenant_name" example:"acme-corp"`
}

// @Summary     Start onboarding
// @Description Start a new tenant onboarding saga
// @ID          start-saga
// @Tags        sagas
// @Accept      json
// @Produce     json
// @Param       request body startSagaRequest true "Onboarding parameters"
// @Success     202 {object} entity.SagaInstance
// @Failure     400 {object} response
// @Failure     500 {object} response
// @Router      /v1/sagas [post]
func (r *sagaRoutes) start(ctx *fiber.Ctx) error {
	var req startSagaRequest

	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if req.CustomerID == uuid.Nil || req.PlanID == "" || req.TenantName == "" {
		return errorResponse(ctx, fiber.StatusBadRequest, "customer_id, plan_id and tenant_name are required")
	}

	saga, err := r.saga.Start(ctx.UserContext(), req.CustomerID, req.PlanID, req.TenantName)
	if err != nil {
		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to start saga")
	}

	return ctx.Status(fiber.StatusAccepted).JSON(saga)
}

// @Summary     Get saga
// @Description Get one saga by id
// @ID          get-saga
// @Tags        sagas
// @Produce     json
// @Param       id path string true "Saga id"
// @Success     200 {object} entity.SagaInstance
// @Failure     400 {object} response
// @Failure     404 {object} response
// @Router      /v1/sagas/{id} [get]
func (r *sagaRoutes) get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid saga id")
	}

	saga, err := r.saga.Get(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, fiber.StatusNotFound, "saga not found")
		}

		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get saga")
	}

	return ctx.Status(fiber.StatusOK).JSON(saga)
}

// @Summary     List sagas
// @Description List sagas, optionally filtered by status
// @ID          list-sagas
// @Tags        sagas
// @Produce     json
// @Param       status query string false "Status filter"
// @Param       limit  query int    false "Page size"
// @Param       offset query int    false "Page offset"
// @Success     200 {array} entity.SagaInstance
// @Failure     400 {object} response
// @Router      /v1/sagas [get]
func (r *sagaRoutes) list(ctx *fiber.Ctx) error {
	var status *entity.SagaStatus

	if raw := ctx.Query("status"); raw != "" {
		s := entity.SagaStatus(raw)

		switch s {
		case entity.SagaPending, entity.SagaProvisioning, entity.SagaNotifying,
			entity.SagaCompleted, entity.SagaCompensating, entity.SagaCompensated, entity.SagaFailed:
			status = &s
		default:
			return errorResponse(ctx, fiber.StatusBadRequest, "unknown status")
		}
	}

	limit := ctx.QueryInt("limit", _defaultListLimit)
	if limit <= 0 || limit > _maxListLimit {
		limit = _defaultListLimit
	}

	offset := ctx.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	sagas, err := r.saga.List(ctx.UserContext(), status, limit, offset)
	if err != nil {
		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to list sagas")
	}

	return ctx.Status(fiber.StatusOK).JSON(sagas)
}

// @Summary     Compensate saga
// @Description Manually trigger compensation for a saga
// @ID          compensate-saga
// @Tags        sagas
// @Produce     json
// @Param       id path string true "Saga id"
// @Success     202 {object} entity.SagaInstance
// @Failure     400 {object} response
// @Failure     404 {object} response
// @Failure     409 {object} response
// @Router      /v1/sagas/{id}/compensate [post]
func (r *sagaRoutes) compensate(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "invalid saga id")
	}

	if err := r.saga.Compensate(ctx.UserContext(), id); err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, fiber.StatusNotFound, "saga not found")
		case errors.Is(err, errs.ErrAlreadyCompensated):
			return errorResponse(ctx, fiber.StatusConflict, "saga already compensated")
		case errors.Is(err, errs.ErrAlreadyCompleted):
			return errorResponse(ctx, fiber.StatusConflict, "saga already completed")
		default:
			r.logger.Error(err)

			return errorResponse(ctx, fiber.StatusInternalServerError, "failed to compensate saga")
		}
	}

	saga, err := r.saga.Get(ctx.UserContext(), id)
	if err != nil {
		r.logger.Error(err)

		return errorResponse(ctx, fiber.StatusInternalServerError, "failed to get saga")
	}

	return ctx.Status(fiber.StatusAccepted).JSON(saga)
}
