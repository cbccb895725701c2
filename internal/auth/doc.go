// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package auth identifies the voting user of an HTTP request.
//
// Two modes are supported, selected by security.auth_mode:
//
//   - jwt: an HS256 bearer token whose "sub" claim is the user id
//   - header: the X-User-ID header, trusted as is
//
// Identity issuance is out of scope; tokens are minted elsewhere with the
// shared secret. The authenticated id is stored with
// logging.ContextWithUserID so every log line of the request carries it.
package auth
