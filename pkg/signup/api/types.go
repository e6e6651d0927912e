package api

// RegisterRequest is the payload for president and associate registration.
type RegisterRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Sex          string `json:"sex,omitempty"`
	DateOfBirth  string `json:"birthDate,omitempty"`
	PhoneCountry string `json:"phoneCountry,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Password     string `json:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

// VerifyEmailRequest carries a submitted verification code.
type VerifyEmailRequest struct {
	AccountID string `json:"accountId"`
	Code      string `json:"code"`
}

// VerifyEmailResponse confirms a verified email.
type VerifyEmailResponse struct {
	Message    string `json:"message"`
	VerifiedAt string `json:"verifiedAt"`
}

// ResendCodeRequest asks for the verification code to be sent again.
type ResendCodeRequest struct {
	AccountID string `json:"accountId"`
}

// MessageResponse is a generic success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a generic error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
