package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	AuthTypeLocal  = "local"
	AuthTypeGoogle = "google"
)

const DefaultProfilePic = "https://www.svgrepo.com/show/192247/man-user.svg"

// Principal is an authenticated identity of either class (user or admin).
// Both classes share this shape; they live in separate stores.
type Principal struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	ProfilePic    string
	Role          string
	AuthType      string
	IsBlocked     bool
	RefreshTokens []string

	// Reset state. ResetTokenHash is the SHA-256 of the token that was mailed
	// out; both fields are empty when no reset is in flight.
	ResetTokenHash   string
	ResetTokenExpiry *time.Time

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRefreshToken reports whether token is one of the principal's live sessions.
func (p *Principal) HasRefreshToken(token string) bool {
	for _, t := range p.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

// PrincipalView is the sanitized principal handed to callers: no password
// hash, no refresh tokens, no reset state.
type PrincipalView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email"`
	ProfilePic string     `json:"profile_pic,omitempty"`
	Role       string     `json:"role"`
	AuthType   string     `json:"auth_type,omitempty"`
	IsBlocked  bool       `json:"is_blocked"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// View strips the sensitive fields off p.
func (p *Principal) View() *PrincipalView {
	if p == nil {
		return nil
	}
	return &PrincipalView{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		ProfilePic: p.ProfilePic,
		Role:       p.Role,
		AuthType:   p.AuthType,
		IsBlocked:  p.IsBlocked,
		LastLogin:  p.LastLogin,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
