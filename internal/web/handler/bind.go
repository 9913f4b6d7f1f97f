package handler

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"
)

var (
	// ErrInvalidBody is returned when the request body cannot be parsed.
	ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

	// ErrInvalidID is returned for a malformed :id parameter.
	ErrInvalidID = apperr.New(apperr.KindInvalidInput, "request.invalid_id", "invalid id")
)

// Validate checks request structs. Field errors are reported under their json names.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Bind parses the JSON body into v and validates it.
func Bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return ErrInvalidBody
	}

	return Validate.Struct(v)
}

// Fields returns the top level keys sent in the JSON body.
func Fields(c *fiber.Ctx) map[string]json.RawMessage {
	fields := map[string]json.RawMessage{}
	_ = json.Unmarshal(c.Body(), &fields)

	return fields
}

// Has reports whether the JSON body carries key, null included.
func Has(c *fiber.Ctx, key string) bool {
	_, ok := Fields(c)[key]
	return ok
}

// ParamID reads the :id route parameter.
func ParamID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}

	return uint(id), nil
}

// ParamID64 reads the :id route parameter of 64 bit keys.
func ParamID64(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// QueryUint reads an optional unsigned query parameter.
func QueryUint(c *fiber.Ctx, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return nil
	}

	out := uint(v)

	return &out
}

// QueryBool reads a boolean query flag: 1, true, yes and on are true.
func QueryBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
