package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/taxicoop/coopadmin/pkg/iam"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/signup"
	"github.com/taxicoop/coopadmin/pkg/utils"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

// Handler exposes the registration and email verification endpoints.
type Handler struct {
	service *signup.SignupService
}

// NewHandler creates a new signup API handler.
func NewHandler(service *signup.SignupService) *Handler {
	return &Handler{service: service}
}

// Routes returns the signup router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/president", h.RegisterPresident)
	r.Post("/associate", h.RegisterAssociate)
	r.Post("/verify", h.VerifyEmail)
	r.Post("/resend", h.ResendCode)
	return r
}

// RegisterPresident handles POST /signup/president.
func (h *Handler) RegisterPresident(w http.ResponseWriter, r *http.Request) {
	cmd, ok := decodeRegisterRequest(w, r)
	if !ok {
		return
	}

	account, err := h.service.RegisterPresident(r.Context(), signup.RegisterPresidentCommand{RegisterCommand: cmd})
	if err != nil {
		renderRegisterError(w, r, err)
		return
	}
	renderRegistered(w, r, account)
}

// RegisterAssociate handles POST /signup/associate.
func (h *Handler) RegisterAssociate(w http.ResponseWriter, r *http.Request) {
	cmd, ok := decodeRegisterRequest(w, r)
	if !ok {
		return
	}

	account, err := h.service.RegisterAssociate(r.Context(), signup.RegisterAssociateCommand{RegisterCommand: cmd})
	if err != nil {
		renderRegisterError(w, r, err)
		return
	}
	renderRegistered(w, r, account)
}

// VerifyEmail handles POST /signup/verify.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil || req.Code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Account ID and code are required"})
		return
	}

	origin := verification.Origin{
		IPAddress: utils.GetClientIP(r),
		UserAgent: utils.GetUserAgent(r),
	}
	if err := h.service.VerifyEmail(r.Context(), accountID, req.Code, origin); err != nil {
		status := http.StatusBadRequest
		message := "Failed to verify email"

		switch {
		case errors.Is(err, verification.ErrCodeInvalid):
			message = "The code is not valid or has expired"
		case errors.Is(err, signup.ErrAlreadyVerified):
			message = "Email is already verified"
		case errors.Is(err, iam.ErrAccountNotFound):
			status = http.StatusNotFound
			message = "Account not found"
		case errors.Is(err, iam.ErrPresidentExists):
			status = http.StatusConflict
			message = "A verified president is already registered"
		default:
			slog.Error("Failed to verify email", "err", err)
			status = http.StatusInternalServerError
			message = "An error occurred while verifying email"
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, VerifyEmailResponse{
		Message:    "Email verified successfully",
		VerifiedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// ResendCode handles POST /signup/resend.
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Account ID is required"})
		return
	}

	if err := h.service.ResendCode(r.Context(), accountID); err != nil {
		renderSendError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Verification code sent"})
}

func decodeRegisterRequest(w http.ResponseWriter, r *http.Request) (signup.RegisterCommand, bool) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return signup.RegisterCommand{}, false
	}
	if req.Email == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Email and password are required"})
		return signup.RegisterCommand{}, false
	}

	var cmd signup.RegisterCommand
	if err := copier.Copy(&cmd, &req); err != nil {
		slog.Error("Failed to map registration request", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return signup.RegisterCommand{}, false
	}
	if req.DateOfBirth != "" {
		birth, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Birth date must be YYYY-MM-DD"})
			return signup.RegisterCommand{}, false
		}
		cmd.BirthDate = &birth
	}
	return cmd, true
}

func renderRegistered(w http.ResponseWriter, r *http.Request, account iam.Account) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegisterResponse{
		AccountID: account.ID.String(),
		Email:     account.Email,
		Message:   "Registration received, check your email for the verification code",
	})
}

func renderRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	message := "Failed to register"

	var denied *verification.DeniedError
	switch {
	case errors.Is(err, iam.ErrEmailTaken):
		status = http.StatusConflict
		message = "This email is already registered"
	case errors.Is(err, iam.ErrPresidentExists):
		status = http.StatusConflict
		message = "A verified president is already registered"
	case errors.Is(err, login.ErrPasswordTooShort):
		message = err.Error()
	case errors.As(err, &denied):
		status = http.StatusTooManyRequests
		message = denied.Decision.Reason
	default:
		slog.Error("Failed to register", "err", err)
		status = http.StatusInternalServerError
		message = "An error occurred while registering"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

func renderSendError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	message := "Failed to send verification code"

	var denied *verification.DeniedError
	switch {
	case errors.As(err, &denied):
		status = http.StatusTooManyRequests
		message = denied.Decision.Reason
	case errors.Is(err, signup.ErrAlreadyVerified):
		message = "Email is already verified"
	case errors.Is(err, iam.ErrAccountNotFound):
		status = http.StatusNotFound
		message = "Account not found"
	default:
		slog.Error("Failed to send verification code", "err", err)
		status = http.StatusInternalServerError
		message = "An error occurred while sending the code"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
