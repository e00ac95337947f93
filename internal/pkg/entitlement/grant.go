package entitlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidGrant means the token is malformed or its signature does not verify.
	ErrInvalidGrant = errors.New("entitlement: invalid grant token")
	// ErrGrantExpired means the token's TTL has passed.
	ErrGrantExpired = errors.New("entitlement: grant expired")
	// ErrGrantAlreadyUsed means the grant was redeemed before.
	ErrGrantAlreadyUsed = errors.New("entitlement: grant already used")
)

// DefaultGrantTTL bounds how long an issued download grant stays redeemable.
const DefaultGrantTTL = 5 * time.Minute

// GrantClaims is the payload of a signed download grant. The grant is the
// output of a successful entitlement decision and never a source of further
// credit consumption.
type GrantClaims struct {
	GrantID         string `json:"grant_id"`
	BuyerID         uint   `json:"buyer_id"`
	DesignUUID      string `json:"design_uuid"`
	ResourceLocator string `json:"resource"`
	IssuedAt        int64  `json:"iat"`
	ExpiresAt       int64  `json:"exp"`
}

// GrantStore tracks redeemed grant ids so each grant serves exactly one
// file fetch.
type GrantStore interface {
	// MarkRedeemed records the first redemption of a grant id and reports
	// whether this caller was first.
	MarkRedeemed(grantID string, ttl time.Duration) (bool, error)
}

// Signer mints and verifies HMAC-SHA256 signed grant tokens:
// base64url(payload) + "." + base64url(signature).
type Signer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a grant signer. A zero ttl falls back to DefaultGrantTTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Tests only.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// TTL returns the grant lifetime this signer stamps into tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for the given claims, filling IssuedAt/ExpiresAt.
func (s *Signer) Sign(claims *GrantClaims) (string, error) {
	if s.secret == "" {
		return "", errors.New("entitlement: secret is required for grant signing")
	}
	issued := s.now()
	claims.IssuedAt = issued.Unix()
	claims.ExpiresAt = issued.Add(s.ttl).Unix()

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	return fmt.Sprintf("%s.%s",
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(sig)), nil
}

// Verify checks a token's signature and TTL and returns its claims.
func (s *Signer) Verify(token string) (*GrantClaims, error) {
	if s.secret == "" {
		return nil, errors.New("entitlement: secret is required for grant verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidGrant
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidGrant
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidGrant
	}
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payloadBytes)
	if !hmac.Equal(sigBytes, mac.Sum(nil)) {
		return nil, ErrInvalidGrant
	}
	var claims GrantClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, ErrInvalidGrant
	}
	if s.now().Unix() > claims.ExpiresAt {
		return nil, ErrGrantExpired
	}
	return &claims, nil
}
