// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package validation wraps go-playground/validator v10 behind a process-wide
// singleton.
//
// Everything that crosses a boundary is validated here: catalog items decoded
// from the upstream API, vote requests decoded by the HTTP layer and rooms read
// from the seed file. Errors name fields by their json tag.
//
// The custom "entity_id" rule rejects identifiers that would corrupt the
// store's key layout:
//
//	type voteRequest struct {
//	    CandidateID string `json:"candidate_id" validate:"required,max=128,entity_id"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
//	    return
//	}
package validation
