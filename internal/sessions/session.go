package sessions

import "time"

// Session binds a refresh token to a user until ExpiresAt.
type Session struct {
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	UserID       string    `bson:"userId" json:"userId"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
