// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/validation"
)

const maxBodyBytes = 4 << 10

// VoteRequest is the body of POST /rooms/{roomID}/votes.
type VoteRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,max=128,entity_id"`
	VoteType    string `json:"vote_type" validate:"required,oneof=POSITIVE NEGATIVE"`
}

// decodeJSON reads a bounded JSON body into v and validates it. The returned
// *validation.Error is non-nil for rule violations; err is non-nil for
// unreadable bodies.
func decodeJSON(r *http.Request, v interface{}) (*validation.Error, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return validation.ValidateStruct(v), nil
}
