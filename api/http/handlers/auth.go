package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/artem13815/todo/api/http/presenter"
	"github.com/artem13815/todo/pkg/auth"
	"github.com/artem13815/todo/pkg/security/jwt"
)

type AuthHandler struct {
	useCase auth.AuthUseCase
}

func NewAuthHandler(useCase auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=200"`
}

// Register handles user registration.
// @Summary Register user
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body registerRequest true "registration payload"
// @Success 201 {object} presenter.TokenResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.useCase.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserAlreadyExists):
			return presenter.Error(c, http.StatusConflict, "Email already registered")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return presenter.Error(c, http.StatusBadRequest, "email, password and name are required")
		default:
			log.Errorw("register failed", "error", err)
			return presenter.Error(c, http.StatusInternalServerError, "failed to register user")
		}
	}

	return presenter.JSON(c, http.StatusCreated, presenter.Token(result))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} presenter.TokenResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.useCase.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusUnauthorized, "Incorrect email or password")
		}
		log.Errorw("login failed", "error", err)
		return presenter.Error(c, http.StatusInternalServerError, "failed to login")
	}

	return presenter.JSON(c, http.StatusOK, presenter.Token(result))
}

// Me returns the authenticated user.
// @Summary Current user
// @Tags    auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} presenter.UserResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Not authenticated")
	}
	user, err := h.useCase.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			// token outlived its account
			return presenter.Error(c, http.StatusUnauthorized, "User not found")
		}
		log.Errorw("load current user failed", "error", err)
		return presenter.Error(c, http.StatusInternalServerError, "failed to load user")
	}
	return presenter.JSON(c, http.StatusOK, presenter.User(user))
}

// Logout revokes the presented token.
// @Summary Logout
// @Tags    auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenID, _ := c.Locals(jwt.LocalTokenID).(string)
	expiresAt, _ := c.Locals(jwt.LocalTokenExpiresAt).(time.Time)
	if err := h.useCase.Logout(c.UserContext(), tokenID, expiresAt); err != nil {
		log.Errorw("logout failed", "error", err)
		return presenter.Error(c, http.StatusServiceUnavailable, "failed to revoke token")
	}
	return c.SendStatus(http.StatusNoContent)
}

func currentUser(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(jwt.LocalUserID).(string)
	return id, ok && id != ""
}
