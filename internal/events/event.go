// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/trinity/internal/models"
)

const metadataCorrelationID = "correlation_id"

// Event is the payload of every observer message.
type Event struct {
	ID            string              `json:"id"`
	Kind          models.ActivityKind `json:"kind"`
	RoomID        string              `json:"room_id"`
	UserID        string              `json:"user_id,omitempty"`
	CandidateID   string              `json:"candidate_id,omitempty"`
	VoteType      models.VoteType     `json:"vote_type,omitempty"`
	Detail        string              `json:"detail,omitempty"`
	CorrelationID string              `json:"correlation_id,omitempty"`
	At            time.Time           `json:"at"`
}

func newEvent(kind models.ActivityKind, roomID string) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		RoomID: roomID,
		At:     time.Now().UTC(),
	}
}

// Activity converts the event to its stored form.
func (e *Event) Activity() *models.Activity {
	return &models.Activity{
		ID:          e.ID,
		RoomID:      e.RoomID,
		Kind:        e.Kind,
		UserID:      e.UserID,
		CandidateID: e.CandidateID,
		VoteType:    e.VoteType,
		Detail:      e.Detail,
		At:          e.At,
	}
}

func (e *Event) toMessage() (*message.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(e.ID, data)
	if e.CorrelationID != "" {
		msg.Metadata.Set(metadataCorrelationID, e.CorrelationID)
	}
	return msg, nil
}

func decodeEvent(msg *message.Message) (*Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event %s: %w", msg.UUID, err)
	}
	if e.RoomID == "" || e.Kind == "" {
		return nil, fmt.Errorf("event %s is missing room_id or kind", msg.UUID)
	}
	if e.ID == "" {
		e.ID = msg.UUID
	}
	return &e, nil
}
