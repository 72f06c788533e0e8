// Package token issues and verifies the signed identity assertions carried
// in the x-auth-token header.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers bad signatures, expiry and unrecognized payloads.
var ErrInvalidToken = errors.New("token is not valid")

// Identity is the verified caller extracted from a token.
type Identity struct {
	UserID int64
	Name   string
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed assertion embedding the user id and display name.
func (i *Issuer) Issue(userID int64, name string) (string, error) {
	claims := jwt.MapClaims{
		"user": map[string]any{
			"id":   userID,
			"name": name,
		},
		"exp": time.Now().Add(i.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

// Verify checks signature and expiry and normalizes the payload into an
// Identity. Two payload shapes are in circulation: the current
// {"user":{"id","name"}} and the legacy flat {"userId"}. Both are accepted;
// this is a compatibility shim for tokens minted by older deployments, not a
// format to extend.
func (i *Issuer) Verify(tokenStr string) (*Identity, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if u, found := claims["user"]; found {
		obj, ok := u.(map[string]any)
		if !ok {
			return nil, ErrInvalidToken
		}
		id, ok := claimInt64(obj["id"])
		if !ok {
			return nil, ErrInvalidToken
		}
		ident := &Identity{UserID: id}
		if name, ok := obj["name"].(string); ok {
			ident.Name = name
		}
		return ident, nil
	}

	if v, found := claims["userId"]; found {
		id, ok := claimInt64(v)
		if !ok {
			return nil, ErrInvalidToken
		}
		return &Identity{UserID: id}, nil
	}

	return nil, ErrInvalidToken
}

// claimInt64 handles the number types JSON decoding can hand us.
func claimInt64(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	}
	return 0, false
}
