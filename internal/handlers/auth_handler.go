package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/services"
)

// AuthHandler exposes registration, sessions and account management.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username          string `json:"username" validate:"required,min=3,max=32"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	DefaultVisibility string `json:"default_visibility" validate:"omitempty,oneof=private public"`
}

// Register creates an account and signs the first token.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	user, token, err := h.auth.Register(c.Context(), services.RegisterInput{
		Username:          req.Username,
		Email:             req.Email,
		Password:          req.Password,
		DefaultVisibility: req.DefaultVisibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "account created", fiber.Map{"user": user.Public(), "token": token})
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login exchanges credentials for a token. The identifier matches email
// or username.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	user, token, err := h.auth.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "logged in", fiber.Map{"user": user.Public(), "token": token})
}

// Logout revokes the presented token until its natural expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	exp, found := middleware.TokenExpiry(c)
	if !found {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}
	if err := h.auth.Logout(c.Context(), p.JTI, time.Unix(exp, 0)); err != nil {
		return respondError(c, err)
	}
	return success(c, "logged out", nil)
}

// Refresh issues a fresh token for the current principal.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	token, err := h.auth.Refresh(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "token refreshed", fiber.Map{"token": token})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := middleware.PrincipalFrom(c)
	user, err := h.auth.Me(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "", user.Public())
}

type updateAccountRequest struct {
	Username          *string `json:"username" validate:"omitempty,min=3,max=32"`
	Email             *string `json:"email" validate:"omitempty,email"`
	AvatarURL         *string `json:"avatar_url"`
	DefaultVisibility *string `json:"default_visibility" validate:"omitempty,oneof=private public"`
	WatermarkImages   *bool   `json:"watermark_images"`
	CurrentPassword   string  `json:"current_password"`
	NewPassword       string  `json:"new_password" validate:"omitempty,min=8,max=72"`
}

// UpdateAccount applies a partial profile update. Absent fields stay as
// they are; a password change requires the current password.
func (h *AuthHandler) UpdateAccount(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	user, err := h.auth.UpdateAccount(c.Context(), p.UserID, services.UpdateAccountInput{
		Username:          req.Username,
		Email:             req.Email,
		AvatarURL:         req.AvatarURL,
		DefaultVisibility: req.DefaultVisibility,
		WatermarkImages:   req.WatermarkImages,
		CurrentPassword:   req.CurrentPassword,
		NewPassword:       req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	return success(c, "account updated", user.Public())
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// DeleteAccount removes the account and everything it owns. The password
// must be confirmed in the request body.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(&req); err != nil {
		return failValidation(c, err)
	}

	p := middleware.PrincipalFrom(c)
	exp, found := middleware.TokenExpiry(c)
	if !found {
		return fail(c, fiber.StatusUnauthorized, "invalid token")
	}
	if err := h.auth.DeleteAccount(c.Context(), p.UserID, req.Password, p.JTI, time.Unix(exp, 0)); err != nil {
		return respondError(c, err)
	}
	return success(c, "account deleted", nil)
}
