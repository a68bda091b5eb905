// Package share issues and reads the tokens a user hands to a sender so the
// sender can pay into their ledger-network account without seeing its id.
package share

import (
	"errors"
	"fmt"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pancake"

// Tokens signs and verifies shareable tokens with HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a signer. A zero ttl issues tokens that never expire.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token whose subject is accountID.
func (t *Tokens) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", domain.Validation("account id is required")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:  accountID,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Decode verifies raw and returns the account id it carries. Any failure
// is a validation error.
func (t *Tokens) Decode(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", domain.Wrap(domain.ErrValidation, "invalid shareable token", err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return "", domain.Wrap(domain.ErrValidation, "invalid shareable token", fmt.Errorf("token has no subject"))
	}
	return claims.Subject, nil
}
