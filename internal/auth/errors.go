// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package auth

import "errors"

var (
	// ErrNoCredentials indicates the request carried no credentials.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the credentials were malformed or failed verification.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates a token past its expiry.
	ErrExpiredCredentials = errors.New("credentials expired")
)
