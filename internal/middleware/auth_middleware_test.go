package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arzan03/CloudVault/internal/models"
)

var testSecret = []byte("test-secret-key")

// fakeRevocations is a map-backed stand-in for the auth service.
type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

func signToken(t *testing.T, secret []byte, mutate func(jwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   "64f1b2c3d4e5f6a7b8c9d0e1",
		"email": "alice@example.com",
		"role":  models.RoleUser,
		"jti":   "token-1",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func protectedApp(revocations TokenRevocations) *fiber.App {
	app := fiber.New()
	app.Get("/probe", Protected(testSecret, revocations), func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		return c.JSON(fiber.Map{
			"user_id": p.UserID,
			"email":   p.Email,
			"role":    p.Role,
			"jti":     p.JTI,
		})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to run test request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	resp.Body.Close()
	return body
}

func TestProtected(t *testing.T) {
	app := protectedApp(&fakeRevocations{revoked: map[string]bool{}})

	t.Run("Missing Header", func(t *testing.T) {
		resp := doRequest(t, app, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["message"] != "missing token" {
			t.Errorf("Unexpected message: %v", body["message"])
		}
	})

	t.Run("Not Bearer", func(t *testing.T) {
		resp := doRequest(t, app, "Basic abc123")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		resp := doRequest(t, app, "Bearer not-a-jwt")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token := signToken(t, []byte("some-other-secret"), nil)
		resp := doRequest(t, app, "Bearer "+token)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Unsigned Token Rejected", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "64f1b2c3d4e5f6a7b8c9d0e1",
			"role": models.RoleUser,
			"jti":  "token-none",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("Failed to build unsigned token: %v", err)
		}
		resp := doRequest(t, app, "Bearer "+unsigned)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		token := signToken(t, testSecret, func(claims jwt.MapClaims) {
			claims["exp"] = time.Now().Add(-time.Minute).Unix()
		})
		resp := doRequest(t, app, "Bearer "+token)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Missing JTI", func(t *testing.T) {
		token := signToken(t, testSecret, func(claims jwt.MapClaims) {
			delete(claims, "jti")
		})
		resp := doRequest(t, app, "Bearer "+token)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Valid Token", func(t *testing.T) {
		token := signToken(t, testSecret, nil)
		resp := doRequest(t, app, "Bearer "+token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["user_id"] != "64f1b2c3d4e5f6a7b8c9d0e1" {
			t.Errorf("Unexpected user_id: %v", body["user_id"])
		}
		if body["email"] != "alice@example.com" {
			t.Errorf("Unexpected email: %v", body["email"])
		}
		if body["role"] != models.RoleUser {
			t.Errorf("Unexpected role: %v", body["role"])
		}
		if body["jti"] != "token-1" {
			t.Errorf("Unexpected jti: %v", body["jti"])
		}
	})

	t.Run("Revoked Token", func(t *testing.T) {
		revokedApp := protectedApp(&fakeRevocations{revoked: map[string]bool{"token-1": true}})
		token := signToken(t, testSecret, nil)
		resp := doRequest(t, revokedApp, "Bearer "+token)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["message"] != "token has been revoked" {
			t.Errorf("Unexpected message: %v", body["message"])
		}
	})

	t.Run("Revocation Lookup Error", func(t *testing.T) {
		brokenApp := protectedApp(&fakeRevocations{err: errors.New("db down")})
		token := signToken(t, testSecret, nil)
		resp := doRequest(t, brokenApp, "Bearer "+token)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", resp.StatusCode)
		}
	})

	t.Run("Nil Revocations Allowed", func(t *testing.T) {
		openApp := protectedApp(nil)
		token := signToken(t, testSecret, nil)
		resp := doRequest(t, openApp, "Bearer "+token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestTokenExpiry(t *testing.T) {
	wantExp := time.Now().Add(2 * time.Hour).Unix()
	app := fiber.New()
	app.Get("/exp", func(c *fiber.Ctx) error {
		exp, found := TokenExpiry(c)
		return c.JSON(fiber.Map{"exp": exp, "found": found})
	})

	token := signToken(t, testSecret, func(claims jwt.MapClaims) {
		claims["exp"] = wantExp
	})
	req := httptest.NewRequest(http.MethodGet, "/exp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to run test request: %v", err)
	}
	body := decodeBody(t, resp)
	if body["found"] != true {
		t.Fatalf("Expected exp claim to be found")
	}
	if int64(body["exp"].(float64)) != wantExp {
		t.Errorf("Expected exp %d, got %v", wantExp, body["exp"])
	}

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/exp", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		body := decodeBody(t, resp)
		if body["found"] != false {
			t.Errorf("Expected no exp claim without a token")
		}
	})
}

func TestAdminOnly(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", Protected(testSecret, nil), AdminOnly, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	app.Get("/open", AdminOnly, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	t.Run("No Principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Regular User", func(t *testing.T) {
		token := signToken(t, testSecret, nil)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("Expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("Admin User", func(t *testing.T) {
		token := signToken(t, testSecret, func(claims jwt.MapClaims) {
			claims["role"] = models.RoleAdmin
		})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to run test request: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
	})
}
