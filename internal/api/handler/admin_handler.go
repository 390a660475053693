package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// AdminHandler serves the admin-only account management routes.
type AdminHandler struct {
	auth ports.AuthService
}

func NewAdminHandler(auth ports.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

type blockUserRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// SetBlocked blocks or unblocks a user. Blocking revokes all of the user's
// sessions.
//
// @Summary      Block or unblock a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User id"
// @Param        body  body      blockUserRequest  true  "Blocked flag"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /admin/users/{id}/block [patch]
func (h *AdminHandler) SetBlocked(c echo.Context) error {
	var req blockUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return domain.ErrMissingFields
	}

	user, err := h.auth.SetBlocked(c.Request().Context(), id, *req.Blocked)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, Message: msgUserUpdated, User: user})
}
