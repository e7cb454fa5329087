package handlers

import (
	"errors"

	"github.com/anjiri1684/training_portal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// ErrorHandler renders every error as {status, code, message}. Internal
// errors are logged and their details withheld from the client.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  "error",
			"code":    code,
			"message": message,
		})
	}
}

// serviceError maps service errors onto HTTP errors.
func serviceError(err error) error {
	var (
		verr      *services.ValidationError
		ambiguous *services.AmbiguousMatchError
	)
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrUnencodableText):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Name or course contains characters the certificate font cannot print")
	case errors.As(err, &ambiguous):
		return fiber.NewError(fiber.StatusConflict, ambiguous.Error())
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.NewError(fiber.StatusConflict, "Email already exists")
	case errors.Is(err, services.ErrUserHasCertificates):
		return fiber.NewError(fiber.StatusConflict, "User still owns certificates")
	}
	return err
}

func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
