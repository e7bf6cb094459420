package models

import "time"

// OTP is a one-time password reset code. Records expire at ExpiresAt and are
// deleted after a successful reset.
type OTP struct {
	Email     string    `bson:"email" json:"email"`
	Code      string    `bson:"otp" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}
