package middleware

import (
	"time"

	"github.com/dnsokolov/saas-onboarding/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func Logger(l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		err := ctx.Next()

		l.Info("%s %s - %d (%s)", ctx.Method(), ctx.Path(), ctx.Response().StatusCode(), time.Since(start))

		return err
	}
}
