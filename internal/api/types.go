package api

// LinkRecord is the backend's view of one platform link.
type LinkRecord struct {
	Username string         `json:"username"`
	Verified bool           `json:"verified"`
	Data     map[string]any `json:"data,omitempty"`
}

// Links maps platform name to link record, as returned by every platform
// endpoint that changes link state.
type Links map[string]LinkRecord

type credentialResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type linksResponse struct {
	Platforms Links `json:"platforms"`
}

type challengeResponse struct {
	VerificationCode string `json:"verificationCode"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type startVerificationRequest struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
}

type platformRequest struct {
	Platform string `json:"platform"`
}
