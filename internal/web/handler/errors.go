package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"
)

const (
	msgValidation = "the given data was invalid"
	msgInternal   = "internal server error"
)

// ErrorHandler renders every error returned by a handler as JSON envelope.
// Domain errors are mapped by kind, validation errors answer 422 with the
// failing fields and fiber errors keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		status  = apperr.HTTPStatus(err)
		message = err.Error()
		data    = fiber.Map{}
		fe      *fiber.Error
		ve      validator.ValidationErrors
	)

	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
	case errors.As(err, &ve):
		status = fiber.StatusUnprocessableEntity
		message = msgValidation
		data["errors"] = fieldErrors(ve)
	default:
		if e, ok := apperr.As(err); ok {
			message = e.Message
			data["error"] = e.Code
		}
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		if apperr.KindOf(err) == "" {
			message = msgInternal
		}
	}

	return c.Status(status).JSON(Response{Code: status, Message: message, Data: data})
}

func fieldErrors(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))

	for _, fe := range ve {
		field := fe.Field()
		if _, exists := out[field]; exists {
			continue
		}

		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += " " + fe.Param()
		}

		out[field] = msg
	}

	return out
}
