// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
)

func goChannelConfig() config.EventsConfig {
	return config.EventsConfig{Driver: DriverGoChannel, Buffer: 16, TopicPrefix: "trinity"}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// startRecorder runs a recorder until the test ends and waits for its
// subscriptions.
func startRecorder(t *testing.T, bus *Bus, s *store.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	rec := NewRecorder(bus.Subscriber(), s, "trinity")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = rec.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-rec.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("recorder never subscribed")
	}
}

func waitForActivity(t *testing.T, s *store.Store, roomID string, n int) []models.Activity {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := s.ListActivity(context.Background(), roomID, 50)
		if err != nil {
			t.Fatalf("ListActivity() error = %v", err)
		}
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("got %d activity records for %s, want %d", len(got), roomID, n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNotifierToRecorderOverGoChannel(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(goChannelConfig(), nil)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	s := newTestStore(t)
	startRecorder(t, bus, s)

	n := NewNotifier(bus.Publisher(), "trinity")
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr1234")

	n.VoteRecorded(ctx, models.Vote{RoomID: "r1", UserID: "u1", CandidateID: "A", Type: models.VotePositive})
	if err := n.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitForActivity(t, s, "r1", 1)

	n.MatchFound(ctx, models.Match{RoomID: "r1", CandidateID: "A", Votes: 2})
	if err := n.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := waitForActivity(t, s, "r1", 2)

	if got[0].Kind != models.ActivityMatch || got[0].Detail != "votes=2" {
		t.Errorf("newest activity = %+v, want match with votes=2", got[0])
	}
	if got[1].Kind != models.ActivityVote || got[1].UserID != "u1" || got[1].VoteType != models.VotePositive {
		t.Errorf("older activity = %+v, want the vote", got[1])
	}
	if got[0].ID == "" || got[0].At.IsZero() {
		t.Errorf("activity missing id or time: %+v", got[0])
	}
}

func TestSupplyFallbackIgnoresFilterScopedCalls(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(goChannelConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	s := newTestStore(t)
	startRecorder(t, bus, s)

	n := NewNotifier(bus.Publisher(), "trinity")
	n.SupplyFallback(context.Background(), "", "default_list", "upstream_unavailable")
	n.SupplyFallback(context.Background(), "r2", "filter_cache", "upstream_unavailable")
	if err := n.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := waitForActivity(t, s, "r2", 1)
	if got[0].Kind != models.ActivityFallback || got[0].Detail != "tier=filter_cache reason=upstream_unavailable" {
		t.Errorf("activity = %+v", got[0])
	}
}

func TestRecorderDropsInvalidMessages(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(goChannelConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	s := newTestStore(t)
	startRecorder(t, bus, s)

	topic := bus.Topic(models.ActivityVote)
	if err := bus.Publisher().Publish(topic, message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Fatal(err)
	}
	if err := bus.Publisher().Publish(topic, message.NewMessage(watermill.NewUUID(), []byte(`{"kind":"vote.recorded"}`))); err != nil {
		t.Fatal(err)
	}

	n := NewNotifier(bus.Publisher(), "trinity")
	n.VoteRecorded(context.Background(), models.Vote{RoomID: "r3", UserID: "u1", CandidateID: "B", Type: models.VoteNegative})
	if err := n.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := waitForActivity(t, s, "r3", 1)
	if got[0].CandidateID != "B" {
		t.Errorf("activity = %+v", got[0])
	}
}

func TestNotifierPublishErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(goChannelConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Publishing on a closed gochannel fails.
	_ = bus.Close()

	n := NewNotifier(bus.Publisher(), "trinity")
	n.VoteRecorded(context.Background(), models.Vote{RoomID: "r1", UserID: "u1", CandidateID: "A"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

// stalledPublisher blocks every Publish until release is closed.
type stalledPublisher struct {
	release   chan struct{}
	published atomic.Int32
}

func (p *stalledPublisher) Publish(string, ...*message.Message) error {
	<-p.release
	p.published.Add(1)
	return nil
}

func (p *stalledPublisher) Close() error { return nil }

func TestNotifierDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	pub := &stalledPublisher{release: make(chan struct{})}
	n := NewNotifier(pub, "stalled", WithWorkers(1), WithQueueSize(1))
	t.Cleanup(n.Close)

	// One worker and one queue slot hold at most two events.
	const sent = 6
	for i := 0; i < sent; i++ {
		n.VoteRecorded(context.Background(), models.Vote{RoomID: "r1", UserID: "u1", CandidateID: "A"})
	}

	topic := Topic("stalled", models.ActivityVote)
	dropped := int(testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "dropped")))
	if dropped < sent-2 {
		t.Errorf("dropped = %d, want at least %d", dropped, sent-2)
	}

	close(pub.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := int(pub.published.Load()); got+dropped != sent {
		t.Errorf("published %d + dropped %d, want %d", got, dropped, sent)
	}
}

func TestNotifierDropsAfterClose(t *testing.T) {
	t.Parallel()

	pub := &stalledPublisher{release: make(chan struct{})}
	close(pub.release)
	n := NewNotifier(pub, "closed")
	n.Close()

	n.MatchFound(context.Background(), models.Match{RoomID: "r1", CandidateID: "A", Votes: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	topic := Topic("closed", models.ActivityMatch)
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "dropped")); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
}

func TestNewBusRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := NewBus(config.EventsConfig{Driver: "kafka"}, nil)
	if err == nil || !strings.Contains(err.Error(), "kafka") {
		t.Errorf("NewBus(kafka) error = %v", err)
	}
}

func TestTopic(t *testing.T) {
	t.Parallel()

	if got := Topic("trinity", models.ActivityMatch); got != "trinity.match.found" {
		t.Errorf("Topic() = %q", got)
	}
	if got := Topic("", models.ActivityVote); got != "vote.recorded" {
		t.Errorf("Topic(no prefix) = %q", got)
	}
}

func TestZerologAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewZerologAdapterFrom(logging.NewTestLogger(&buf))
	a.With(watermill.LogFields{"topic": "trinity.vote.recorded"}).
		Error("publish failed", errors.New("closed"), watermill.LogFields{"attempt": 2})

	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"topic":"trinity.vote.recorded"`, `"attempt":2`, `"error":"closed"`, `"message":"publish failed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}

func TestNATSDriverWithEmbeddedServer(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	t.Parallel()

	bus, err := NewBus(config.EventsConfig{
		Driver:       DriverNATS,
		EmbeddedNATS: true,
		EmbeddedPort: -1,
		TopicPrefix:  "trinity",
	}, nil)
	if err != nil {
		t.Fatalf("NewBus(nats) error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	if bus.Driver() != DriverNATS {
		t.Fatalf("Driver() = %s", bus.Driver())
	}

	s := newTestStore(t)
	startRecorder(t, bus, s)

	n := NewNotifier(bus.Publisher(), "trinity")
	// Core NATS drops messages published before the subscription reaches
	// the server, so keep publishing until one lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		n.MatchFound(context.Background(), models.Match{RoomID: "nats-room", CandidateID: "550", Votes: 3})
		_ = n.Wait(context.Background())
		got, err := s.ListActivity(context.Background(), "nats-room", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 1 {
			if got[0].CandidateID != "550" {
				t.Errorf("activity = %+v", got[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("no event delivered over NATS")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
