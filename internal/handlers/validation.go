package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/services"
)

// validate is shared across handlers. Field names in messages come from
// the json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// failValidation renders validator errors as per-field messages.
func failValidation(c *fiber.Ctx, err error) error {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(envelope{
		Success: false,
		Message: "validation failed",
		Errors:  fields,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

// listParams reads the shared listing query parameters.
func listParams(c *fiber.Ctx) services.ListParams {
	return services.ListParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", services.DefaultPageSize),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
		Query:    c.Query("q"),
	}
}

// scopeParam distinguishes an absent query parameter from an empty one:
// absent means unscoped, empty means root level.
func scopeParam(c *fiber.Ctx, name string) *string {
	if !c.Request().URI().QueryArgs().Has(name) {
		return nil
	}
	v := c.Query(name)
	return &v
}
