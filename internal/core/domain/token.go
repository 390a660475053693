package domain

// TokenPayload is everything an access or refresh token asserts about its bearer.
type TokenPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// LoginResult is returned by a successful login. RefreshToken is meant for
// the transport's httpOnly cookie and is never rendered in a body.
type LoginResult struct {
	User         *PrincipalView `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"-"`
}
