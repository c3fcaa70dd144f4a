package middleware

import (
	"fmt"

	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func Recovery(l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				l.Error(fmt.Errorf("middleware - Recovery - panic: %v", r))

				ctx.Status(fiber.StatusInternalServerError) //nolint:errcheck // status write cannot fail here
			}
		}()

		return ctx.Next()
	}
}
