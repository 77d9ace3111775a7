package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/services"
)

// errorApp exposes respondError through a probe route so the translation
// can be exercised over HTTP.
func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		return respondError(c, err)
	})
	return app
}

func probe(t *testing.T, app *fiber.App) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil))
	if err != nil {
		t.Fatalf("Failed to run test request: %v", err)
	}
	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func TestRespondError(t *testing.T) {
	t.Run("Validation Error", func(t *testing.T) {
		resp, body := probe(t, errorApp(services.NewFieldError("expires_at", "expiry must be in the future")))
		if resp.StatusCode != fiber.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", resp.StatusCode)
		}
		if body.Success {
			t.Error("Expected success false")
		}
		if body.Errors["expires_at"] != "expiry must be in the future" {
			t.Errorf("Expected field error, got %v", body.Errors)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		resp, body := probe(t, errorApp(fmt.Errorf("folder %w", services.ErrNotFound)))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
		if body.Message != "folder not found" {
			t.Errorf("Unexpected message: %q", body.Message)
		}
	})

	t.Run("Missing Content", func(t *testing.T) {
		resp, _ := probe(t, errorApp(services.ErrMissingContent))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		resp, _ := probe(t, errorApp(services.ErrInvalidCredentials))
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Expired Link", func(t *testing.T) {
		resp, body := probe(t, errorApp(services.ErrExpiredLink))
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		if body.Message != "share link has expired" {
			t.Errorf("Unexpected message: %q", body.Message)
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		resp, _ := probe(t, errorApp(services.ErrWrongPassword))
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Unknown Error Stays Generic", func(t *testing.T) {
		resp, body := probe(t, errorApp(errors.New("pq: connection refused at 10.0.0.3")))
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", resp.StatusCode)
		}
		if body.Message != "internal server error" {
			t.Errorf("Internal detail leaked to the client: %q", body.Message)
		}
	})
}

func TestEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return success(c, "done", fiber.Map{"value": 7})
	})
	app.Get("/created", func(c *fiber.Ctx) error {
		return created(c, "made", nil)
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusTeapot, "no coffee")
	})

	t.Run("Success", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body envelope
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if !body.Success || body.Message != "done" {
			t.Errorf("Unexpected envelope: %+v", body)
		}
	})

	t.Run("Created", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/created", nil))
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("Expected 201, got %d", resp.StatusCode)
		}
	})

	t.Run("Fail", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != fiber.StatusTeapot {
			t.Fatalf("Expected 418, got %d", resp.StatusCode)
		}
		var body envelope
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if body.Success || body.Message != "no coffee" {
			t.Errorf("Unexpected envelope: %+v", body)
		}
	})
}
