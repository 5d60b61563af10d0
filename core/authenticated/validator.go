// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package authenticated signs and verifies the session tokens stored in
browser cookies, using PASETO v4.public.
*/
package authenticated

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// Implicit is the domain separation assertion. Changing it invalidates
// every issued token.
const Implicit = "filekit navigation session"

const (
	sessionSubject = "navigation session"
	sessionIDClaim = "sid"
)

var ErrInvalidToken = errors.New("invalid session token")

// NewSecretKeyHex returns a fresh hex-encoded secret key.
func NewSecretKeyHex() string {
	return paseto.NewV4AsymmetricSecretKey().ExportHex()
}

// Signer issues and checks session tokens. It is safe for concurrent use.
type Signer struct {
	secretKey paseto.V4AsymmetricSecretKey
	publicKey paseto.V4AsymmetricPublicKey
	parser    paseto.Parser
	ttl       time.Duration
}

// NewSigner loads hexKey, or generates an ephemeral key when hexKey is empty.
// Tokens expire after ttl.
func NewSigner(hexKey string, ttl time.Duration) (*Signer, error) {
	secretKey := paseto.NewV4AsymmetricSecretKey()

	if hexKey != "" {
		var err error

		secretKey, err = paseto.NewV4AsymmetricSecretKeyFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load session secret: %w", err)
		}
	}

	return &Signer{
		secretKey: secretKey,
		publicKey: secretKey.Public(),
		parser: paseto.MakeParser([]paseto.Rule{
			paseto.NotExpired(),
			paseto.Subject(sessionSubject),
		}),
		ttl: ttl,
	}, nil
}

// TTL is the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns a token binding sessionID.
func (s *Signer) Sign(sessionID string) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))
	token.SetSubject(sessionSubject)
	token.SetString(sessionIDClaim, sessionID)

	return token.V4Sign(s.secretKey, []byte(Implicit))
}

// Verify returns the session ID bound by signed.
func (s *Signer) Verify(signed string) (string, error) {
	token, err := s.parser.ParseV4Public(s.publicKey, signed, []byte(Implicit))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	sessionID, err := token.GetString(sessionIDClaim)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return sessionID, nil
}
