package token

import "errors"

var (
	ErrMissingToken      = errors.New("token: missing token")
	ErrInvalidToken      = errors.New("token: invalid token")
	ErrExpiredToken      = errors.New("token: token is expired")
	ErrMissingSigningKey = errors.New("token: missing signing key")
	ErrMissingSubject    = errors.New("token: missing subject claim")
)
