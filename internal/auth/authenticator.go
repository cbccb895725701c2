// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/validation"
)

// Authentication modes.
const (
	ModeJWT    = "jwt"
	ModeHeader = "header"
)

// UserIDHeader carries the caller in header mode.
const UserIDHeader = "X-User-ID"

// Authenticator identifies the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
	Name() string
}

// JWTAuthenticator reads a bearer token from the Authorization header.
type JWTAuthenticator struct {
	manager *JWTManager
}

func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{manager: manager}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidCredentials
	}
	return a.manager.ValidateToken(strings.TrimSpace(parts[1]))
}

func (a *JWTAuthenticator) Name() string { return ModeJWT }

// HeaderAuthenticator trusts the X-User-ID header. It is meant for local
// development and for deployments behind a gateway that sets the header.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	id := r.Header.Get(UserIDHeader)
	if id == "" {
		return "", ErrNoCredentials
	}
	if verr := validation.ValidateID("user_id", id); verr != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidCredentials, verr.Error())
	}
	return id, nil
}

func (HeaderAuthenticator) Name() string { return ModeHeader }

// NewAuthenticator builds the authenticator selected by cfg.AuthMode.
func NewAuthenticator(cfg config.SecurityConfig) (Authenticator, error) {
	switch cfg.AuthMode {
	case ModeJWT:
		m, err := NewJWTManager(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return NewJWTAuthenticator(m), nil
	case ModeHeader:
		return HeaderAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}
