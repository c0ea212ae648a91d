package dto

// SignupRequest: payload for account sign-up. A confirmation code is mailed
// to the address; no password is involved.
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=150,not_me,username"`
	Email    string `json:"email" binding:"required,email,max=254"`
}

// SignupResponse echoes the accepted pair.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: exchange of a confirmation code for an access token
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
