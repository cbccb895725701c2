// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// ActivityAppender stores activity records.
type ActivityAppender interface {
	AppendActivity(ctx context.Context, a *models.Activity) error
}

// recordedKinds are the topics the recorder follows.
var recordedKinds = []models.ActivityKind{
	models.ActivityVote,
	models.ActivityMatch,
	models.ActivityFallback,
}

// Recorder subscribes to every observer topic and appends each event to the
// room's activity feed. It implements suture.Service.
type Recorder struct {
	subscriber message.Subscriber
	store      ActivityAppender
	prefix     string

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRecorder creates a recorder reading from subscriber.
func NewRecorder(subscriber message.Subscriber, store ActivityAppender, prefix string) *Recorder {
	return &Recorder{
		subscriber: subscriber,
		store:      store,
		prefix:     prefix,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the first set of subscriptions is in place.
func (r *Recorder) Ready() <-chan struct{} {
	return r.ready
}

// Serve consumes events until ctx is canceled. It returns an error, and is
// restarted by its supervisor, when a subscription cannot be opened or is
// closed underneath it.
func (r *Recorder) Serve(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	merged := make(chan *message.Message)
	var wg sync.WaitGroup
	for _, kind := range recordedKinds {
		topic := Topic(r.prefix, kind)
		ch, err := r.subscriber.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range ch {
				select {
				case merged <- msg:
				case <-subCtx.Done():
					msg.Nack()
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	r.readyOnce.Do(func() { close(r.ready) })
	logging.Info().Str("prefix", r.prefix).Msg("Event recorder subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-merged:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("event subscription closed")
			}
			r.handle(ctx, msg)
		}
	}
}

// handle stores one event. The feed is best-effort: messages that cannot be
// decoded or stored are acknowledged and dropped so they are not redelivered
// forever.
func (r *Recorder) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	e, err := decodeEvent(msg)
	if err != nil {
		metrics.EventsRecorded.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("Dropping undecodable event")
		return
	}

	if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	if err := r.store.AppendActivity(ctx, e.Activity()); err != nil {
		metrics.EventsRecorded.WithLabelValues("dropped").Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("room_id", e.RoomID).
			Str("kind", string(e.Kind)).
			Msg("Failed to record activity")
		return
	}
	metrics.EventsRecorded.WithLabelValues(string(e.Kind)).Inc()
}

func (r *Recorder) String() string {
	return "event-recorder"
}
