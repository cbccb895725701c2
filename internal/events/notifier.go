// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package events

import (
	"context"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

const (
	defaultNotifierWorkers   = 4
	defaultNotifierQueueSize = 256
)

type publishJob struct {
	ctx   context.Context
	topic string
	event *Event
}

// Notifier publishes observer events after the state they describe has been
// committed. Publication runs on a fixed set of workers fed by a bounded
// queue and never fails or blocks the caller: errors are logged and counted,
// and events that find the queue full are dropped.
type Notifier struct {
	publisher message.Publisher
	prefix    string
	queue     chan publishJob
	pending   sync.WaitGroup
	stop      chan struct{}
	stopOnce  sync.Once
}

// NotifierOption customizes a Notifier.
type NotifierOption func(*notifierOptions)

type notifierOptions struct {
	workers   int
	queueSize int
}

// WithWorkers sets the number of publishing goroutines.
func WithWorkers(n int) NotifierOption {
	return func(o *notifierOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets how many events may wait for a worker.
func WithQueueSize(n int) NotifierOption {
	return func(o *notifierOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// NewNotifier publishes on publisher under topics prefixed with prefix.
// Call Close once Wait has drained it.
func NewNotifier(publisher message.Publisher, prefix string, opts ...NotifierOption) *Notifier {
	o := notifierOptions{workers: defaultNotifierWorkers, queueSize: defaultNotifierQueueSize}
	for _, opt := range opts {
		opt(&o)
	}

	n := &Notifier{
		publisher: publisher,
		prefix:    prefix,
		queue:     make(chan publishJob, o.queueSize),
		stop:      make(chan struct{}),
	}
	for i := 0; i < o.workers; i++ {
		go n.work()
	}
	return n
}

// VoteRecorded announces an accepted vote.
func (n *Notifier) VoteRecorded(ctx context.Context, vote models.Vote) {
	e := newEvent(models.ActivityVote, vote.RoomID)
	e.UserID = vote.UserID
	e.CandidateID = vote.CandidateID
	e.VoteType = vote.Type
	n.publishAsync(ctx, e)
}

// MatchFound announces a finalized match.
func (n *Notifier) MatchFound(ctx context.Context, match models.Match) {
	e := newEvent(models.ActivityMatch, match.RoomID)
	e.CandidateID = match.CandidateID
	e.Detail = "votes=" + strconv.FormatInt(match.Votes, 10)
	n.publishAsync(ctx, e)
}

// SupplyFallback announces that a room's candidates came from a fallback tier.
func (n *Notifier) SupplyFallback(ctx context.Context, roomID, tier, reason string) {
	if roomID == "" {
		return
	}
	e := newEvent(models.ActivityFallback, roomID)
	e.Detail = "tier=" + tier + " reason=" + reason
	n.publishAsync(ctx, e)
}

func (n *Notifier) publishAsync(ctx context.Context, e *Event) {
	e.CorrelationID = logging.CorrelationIDFromContext(ctx)
	job := publishJob{ctx: logging.Detach(ctx), topic: Topic(n.prefix, e.Kind), event: e}

	select {
	case <-n.stop:
		n.drop(job, "notifier closed")
		return
	default:
	}

	n.pending.Add(1)
	select {
	case n.queue <- job:
	default:
		n.pending.Done()
		n.drop(job, "publish queue full")
	}
}

func (n *Notifier) drop(job publishJob, reason string) {
	metrics.EventsPublished.WithLabelValues(job.topic, "dropped").Inc()
	logging.Ctx(job.ctx).Warn().
		Str("topic", job.topic).
		Str("room_id", job.event.RoomID).
		Str("reason", reason).
		Msg("Dropping event")
}

func (n *Notifier) work() {
	for {
		select {
		case <-n.stop:
			return
		case job := <-n.queue:
			n.publish(job.ctx, job.topic, job.event)
			n.pending.Done()
		}
	}
}

func (n *Notifier) publish(ctx context.Context, topic string, e *Event) {
	msg, err := e.toMessage()
	if err == nil {
		msg.SetContext(ctx)
		err = n.publisher.Publish(topic, msg)
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("topic", topic).
			Str("room_id", e.RoomID).
			Msg("Failed to publish event")
		return
	}
	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()
}

// Wait blocks until every queued publication has finished or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers without waiting for a publication in progress.
// Events still queued are dropped, as is anything published afterwards.
func (n *Notifier) Close() {
	n.stopOnce.Do(func() {
		close(n.stop)
	})
	for {
		select {
		case job := <-n.queue:
			n.pending.Done()
			n.drop(job, "notifier closed")
		default:
			return
		}
	}
}
