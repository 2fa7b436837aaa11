package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-intake/internal/api/dto"
	"github.com/spec-kit/ticket-intake/internal/client/authapi"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/service"
	apperrors "github.com/spec-kit/ticket-intake/pkg/util/errorutil"
)

// PasswordHandler serves the public reset page action.
type PasswordHandler struct {
	service *service.PasswordResetService
}

// NewPasswordHandler constructs handler.
func NewPasswordHandler(svc *service.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{service: svc}
}

// Reset POST /password/reset.
func (h *PasswordHandler) Reset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	res, err := h.service.Reset(c.UserContext(), domain.PasswordResetForm{
		Token:           req.Token,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return apperrors.NewValidationError(verr.Field, verr.Message)
		}
		msg := service.PasswordResetFailureMessage
		var resetErr *authapi.ResetError
		if errors.As(err, &resetErr) && resetErr.Message != "" {
			msg = resetErr.Message
		}
		return apperrors.NewDomainError("PASSWORD_RESET_FAILED", msg, http.StatusBadGateway, nil)
	}
	return c.JSON(fiber.Map{"data": res})
}
