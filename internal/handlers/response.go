package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/services"
)

// envelope is the uniform response body every endpoint speaks.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// page wraps one page of items together with its meta so all list
// endpoints share a shape.
type page struct {
	Items interface{} `json:"items"`
	services.PageMeta
}

func success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(envelope{Success: true, Message: message, Data: data})
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(envelope{Success: false, Message: message})
}

// respondError translates service errors into statuses. Anything
// unrecognized is an internal error: logged in full, reported generically.
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(envelope{
			Success: false,
			Message: verr.Msg,
			Errors:  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrMissingContent):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrExpiredLink),
		errors.Is(err, services.ErrWrongPassword):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	default:
		log.Printf("internal error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}
