package api

// RequestResetRequest starts a password recovery by email.
type RequestResetRequest struct {
	Email string `json:"email"`
}

// RequestResetResponse always carries the same generic message; the token
// is only usable when the email was actually registered.
type RequestResetResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// VerifyCodeRequest carries a submitted recovery code.
type VerifyCodeRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// VerifyCodeResponse returns the token for the final step.
type VerifyCodeResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// CompleteResetRequest sets the new password.
type CompleteResetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResendCodeRequest asks for the recovery code to be sent again.
type ResendCodeRequest struct {
	Token string `json:"token"`
}

// MessageResponse is a generic success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a generic error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
