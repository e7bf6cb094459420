package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

var ErrNoEmail = errors.New("id token carries no email")

// Identity is the subset of ID token claims used to find or create a local
// account.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// IdentityVerifier turns a raw ID token into a verified Identity.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, raw string) (*Identity, error)
}

// claimsSource is satisfied by *oidc.IDToken and the insecure token.
type claimsSource interface {
	Claims(v interface{}) error
}

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and verifies tokens issued
// for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

func (v *Verifier) VerifyIdentity(ctx context.Context, raw string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return identityFrom(idToken)
}

func identityFrom(tok claimsSource) (*Identity, error) {
	var id Identity
	if err := tok.Claims(&id); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	if id.Email == "" {
		return nil, ErrNoEmail
	}
	if strings.TrimSpace(id.Name) == "" {
		id.Name = strings.SplitN(id.Email, "@", 2)[0]
	}
	return &id, nil
}
