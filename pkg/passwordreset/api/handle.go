package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/passwordreset"
	"github.com/taxicoop/coopadmin/pkg/utils"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

// genericRequestMessage is returned whether or not the email is
// registered, so the endpoint cannot be used to enumerate accounts.
const genericRequestMessage = "If the email is registered, a recovery code has been sent"

// Handler exposes the password recovery endpoints.
type Handler struct {
	service *passwordreset.ResetService
}

// NewHandler creates a new password recovery API handler.
func NewHandler(service *passwordreset.ResetService) *Handler {
	return &Handler{service: service}
}

// Routes returns the password recovery router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.RequestReset)
	r.Post("/verify", h.VerifyCode)
	r.Post("/complete", h.CompleteReset)
	r.Post("/resend", h.ResendCode)
	return r
}

// RequestReset handles POST /password-reset.
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req RequestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Email is required"})
		return
	}

	token, err := h.service.Request(r.Context(), req.Email)
	if err != nil {
		renderResetError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RequestResetResponse{Message: genericRequestMessage, Token: token})
}

// VerifyCode handles POST /password-reset/verify.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token and code are required"})
		return
	}

	origin := verification.Origin{
		IPAddress: utils.GetClientIP(r),
		UserAgent: utils.GetUserAgent(r),
	}
	token, err := h.service.VerifyCode(r.Context(), req.Token, req.Code, origin)
	if err != nil {
		renderResetError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, VerifyCodeResponse{Message: "Code verified", Token: token})
}

// CompleteReset handles POST /password-reset/complete.
func (h *Handler) CompleteReset(w http.ResponseWriter, r *http.Request) {
	var req CompleteResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token is required"})
		return
	}

	if err := h.service.SetNewPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		renderResetError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Password updated, you can now log in"})
}

// ResendCode handles POST /password-reset/resend.
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Token is required"})
		return
	}

	if err := h.service.ResendCode(r.Context(), req.Token); err != nil {
		renderResetError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Recovery code sent"})
}

func renderResetError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	message := "Failed to process password recovery"

	var denied *verification.DeniedError
	switch {
	case errors.Is(err, passwordreset.ErrSessionExpired):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, verification.ErrCodeInvalid):
		message = "The code is not valid or has expired"
	case errors.As(err, &denied):
		status = http.StatusTooManyRequests
		message = denied.Decision.Reason
	case errors.Is(err, passwordreset.ErrPasswordMismatch),
		errors.Is(err, login.ErrPasswordTooShort):
		message = err.Error()
	default:
		slog.Error("Password recovery failed", "err", err)
		status = http.StatusInternalServerError
		message = "An error occurred while processing the request"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
