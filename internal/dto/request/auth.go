package request

// ClientInfo describes the caller for the session it receives. It is filled from the
// HTTP request, never from the body.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`

	Client ClientInfo `json:"-" validate:"-"`
}

func (r RegisterRequest) FullName() string {
	return r.FirstName + " " + r.LastName
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	Client ClientInfo `json:"-" validate:"-"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}
