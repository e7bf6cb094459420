package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/oidc"
	"github.com/campusconecto/campusconecto/backend/api/internal/otp"
	"github.com/campusconecto/campusconecto/backend/api/internal/sessions"
	"github.com/campusconecto/campusconecto/backend/api/internal/tokens"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrNoAccount          = errors.New("no user found with this email")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetMailFailed    = errors.New("failed to send otp email")
	ErrSSODisabled        = errors.New("single sign-on is not configured")
	ErrInvalidCode        = otp.ErrInvalidCode
)

var log = logger.For("auth")

// Mailer delivers the account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, to, fullName string) error
	SendResetCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// Revoker blacklists access tokens until they expire.
type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// Registration carries the signup form.
type Registration struct {
	FullName      string
	Email         string
	Password      string
	Qualification string
	Branch        string
	Year          string
	Subjects      []string
}

// Result is a signed-in user with a fresh token pair.
type Result struct {
	User         *models.User
	Token        string
	RefreshToken string
}

// Service authenticates users and runs the password reset flow.
type Service struct {
	cfg      *config.Config
	users    users.UserRepository
	sessions *sessions.Service
	revoker  Revoker
	codes    *otp.Service
	mailer   Mailer
	sso      oidc.IdentityVerifier
}

// NewService wires the auth flows. revoker and sso may be nil.
func NewService(cfg *config.Config, repo users.UserRepository, sess *sessions.Service, revoker Revoker, codes *otp.Service, mailer Mailer, sso oidc.IdentityVerifier) *Service {
	return &Service{cfg: cfg, users: repo, sessions: sess, revoker: revoker, codes: codes, mailer: mailer, sso: sso}
}

// SSOEnabled reports whether an identity verifier is configured.
func (s *Service) SSOEnabled() bool { return s.sso != nil }

func (s *Service) issue(ctx context.Context, u *models.User) (*Result, error) {
	access, err := tokens.GenerateAccessToken(s.cfg, u, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sessions.CreateSession(ctx, u.ID.Hex(), s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Result{User: u, Token: access, RefreshToken: refresh}, nil
}

// Register creates an account and signs it in. A failed welcome email is
// logged only.
func (s *Service) Register(ctx context.Context, reg Registration) (*Result, error) {
	email := models.NormalizeEmail(reg.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		FullName:      strings.TrimSpace(reg.FullName),
		Email:         email,
		PasswordHash:  string(hash),
		Qualification: strings.TrimSpace(reg.Qualification),
		Branch:        strings.TrimSpace(reg.Branch),
		Year:          strings.TrimSpace(reg.Year),
		Subjects:      reg.Subjects,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	if err := s.mailer.SendWelcome(ctx, u.Email, u.FullName); err != nil {
		log.Warnf("welcome email to %s failed: %v", u.Email, err)
	}
	return s.issue(ctx, u)
}

// Login checks credentials. Unknown email and wrong password fail alike.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	sess, err := s.sessions.ValidateRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrInvalidRefresh
	}
	id, ok := models.ParseID(sess.UserID)
	if !ok {
		return "", ErrInvalidRefresh
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrInvalidRefresh
	}
	return tokens.GenerateAccessToken(s.cfg, u, s.cfg.JWT.AccessTokenTTL)
}

// Logout drops the refresh session and blacklists accessToken for the rest
// of its lifetime.
func (s *Service) Logout(ctx context.Context, refresh, accessToken string) error {
	if accessToken != "" && s.revoker != nil {
		claims, err := tokens.ParseAccessToken(s.cfg.JWT.Secret, accessToken)
		if err == nil {
			if err := s.revoker.Revoke(ctx, accessToken, tokens.ExpiresIn(claims)); err != nil {
				return fmt.Errorf("revoke access token: %w", err)
			}
		}
	}
	if refresh == "" {
		return nil
	}
	return s.sessions.DeleteRefresh(ctx, refresh)
}

// SendResetCode issues a reset code for email. In dev mode the code is
// logged instead of mailed and dev is true.
func (s *Service) SendResetCode(ctx context.Context, email string) (dev bool, err error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, ErrNoAccount
	}
	rec, err := s.codes.Issue(ctx, u.Email)
	if err != nil {
		return false, err
	}
	if s.cfg.OTP.DevLog {
		log.Infof("DEV OTP for %s: %s", u.Email, rec.Code)
		return true, nil
	}
	if err := s.mailer.SendResetCode(ctx, u.Email, rec.Code, rec.ExpiresAt.Sub(rec.CreatedAt)); err != nil {
		log.Errorf("reset code email to %s failed: %v", u.Email, err)
		return false, ErrResetMailFailed
	}
	return false, nil
}

// VerifyResetCode checks a code without consuming it.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	return s.codes.Check(ctx, email, code)
}

// ResetPassword replaces the password when code is valid, then consumes
// every code for the email and signs out all sessions.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := s.codes.Check(ctx, email, code); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.codes.Invalidate(ctx, u.Email); err != nil {
		return fmt.Errorf("invalidate codes: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, u.ID.Hex()); err != nil {
		log.Warnf("revoke sessions for %s: %v", u.Email, err)
	}
	return nil
}

// SingleSignOn verifies a campus ID token, finds or creates the matching
// account and signs it in.
func (s *Service) SingleSignOn(ctx context.Context, idToken string) (*Result, error) {
	if s.sso == nil {
		return nil, ErrSSODisabled
	}
	ident, err := s.sso.VerifyIdentity(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	u, err := s.users.GetByEmail(ctx, ident.Email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return s.issue(ctx, u)
	}

	// SSO accounts get an unguessable password; a reset sets a real one.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u = &models.User{FullName: ident.Name, Email: ident.Email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, users.ErrDuplicateEmail) {
			return nil, err
		}
		// lost a race with a concurrent sign-in
		if u, err = s.users.GetByEmail(ctx, ident.Email); err != nil {
			return nil, fmt.Errorf("load sso account: %w", err)
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
		return s.issue(ctx, u)
	}
	log.Infof("created account %s via sso", u.Email)
	if err := s.mailer.SendWelcome(ctx, u.Email, u.FullName); err != nil {
		log.Warnf("welcome email to %s failed: %v", u.Email, err)
	}
	return s.issue(ctx, u)
}
