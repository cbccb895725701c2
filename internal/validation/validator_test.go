// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	RoomID   string   `json:"room_id" validate:"required,entity_id"`
	VoteType string   `json:"vote_type" validate:"required,oneof=POSITIVE NEGATIVE"`
	Rating   *float64 `json:"rating" validate:"required,gte=0,lte=10"`
	Title    string   `json:"title" validate:"omitempty,max=5"`
}

func ptr(f float64) *float64 { return &f }

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      sampleRequest
		wantFields []string
		wantMsg    string
	}{
		{
			name:  "valid",
			input: sampleRequest{RoomID: "r1", VoteType: "POSITIVE", Rating: ptr(7.5)},
		},
		{
			name:       "missing rating pointer",
			input:      sampleRequest{RoomID: "r1", VoteType: "NEGATIVE"},
			wantFields: []string{"rating"},
			wantMsg:    "rating is required",
		},
		{
			name:       "zero rating is present",
			input:      sampleRequest{RoomID: "r1", VoteType: "NEGATIVE", Rating: ptr(0)},
			wantFields: nil,
		},
		{
			name:       "room id with key separator",
			input:      sampleRequest{RoomID: "r:1", VoteType: "POSITIVE", Rating: ptr(1)},
			wantFields: []string{"room_id"},
			wantMsg:    "room_id must not be blank",
		},
		{
			name:       "bad vote type and rating out of range",
			input:      sampleRequest{RoomID: "r1", VoteType: "MAYBE", Rating: ptr(11)},
			wantFields: []string{"vote_type", "rating"},
			wantMsg:    "vote_type must be one of: POSITIVE NEGATIVE",
		},
		{
			name:       "string max",
			input:      sampleRequest{RoomID: "r1", VoteType: "POSITIVE", Rating: ptr(1), Title: "too long"},
			wantFields: []string{"title"},
			wantMsg:    "title must be at most 5 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			got := err.Fields()
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"room-42", false},
		{"550", false},
		{"", true},
		{"   ", true},
		{"a#b", true},
		{"a:b", true},
		{"a/b", true},
		{strings.Repeat("x", 129), true},
	}
	for _, tt := range tests {
		err := ValidateID("user_id", tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && err.Fields()[0] != "user_id" {
			t.Errorf("ValidateID(%q) field = %q, want user_id", tt.id, err.Fields()[0])
		}
	}
}

func TestErrorDetails(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&sampleRequest{RoomID: "r1", VoteType: "POSITIVE"})
	if single == nil {
		t.Fatal("expected error")
	}
	if d := single.Details(); d["field"] != "rating" || d["tag"] != "required" {
		t.Errorf("Details() = %v", d)
	}

	multi := ValidateStruct(&sampleRequest{})
	if multi == nil {
		t.Fatal("expected error")
	}
	fields, ok := multi.Details()["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Errorf("Details()[fields] = %v, want 3 entries", multi.Details()["fields"])
	}
}
