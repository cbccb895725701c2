// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/sequencer"
	"github.com/tomtom215/trinity/internal/store"
	"github.com/tomtom215/trinity/internal/supply"
)

type recordingObserver struct {
	mu      sync.Mutex
	votes   []models.Vote
	matches []models.Match
}

func (o *recordingObserver) VoteRecorded(_ context.Context, v models.Vote) {
	o.mu.Lock()
	o.votes = append(o.votes, v)
	o.mu.Unlock()
}

func (o *recordingObserver) MatchFound(_ context.Context, m models.Match) {
	o.mu.Lock()
	o.matches = append(o.matches, m)
	o.mu.Unlock()
}

func (o *recordingObserver) counts() (votes, matches int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.votes), len(o.matches)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.StoreConfig{InMemory: true, TxnRetries: 200})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createRoom(t *testing.T, s *store.Store, roomID string, required int, candidates []string, members ...string) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.PutRoomIfAbsent(ctx, &models.Room{ID: roomID, RequiredVotes: required, CandidateList: candidates}); err != nil {
		t.Fatalf("PutRoomIfAbsent() error = %v", err)
	}
	for _, m := range members {
		if _, err := s.AddMemberIfAbsent(ctx, roomID, m); err != nil {
			t.Fatalf("AddMemberIfAbsent() error = %v", err)
		}
	}
}

type noSupply struct{}

func (noSupply) GetCandidates(context.Context, string, models.Filters) ([]models.Candidate, supply.Source, error) {
	return nil, "", errors.New("unexpected supply call")
}

func (noSupply) FindCandidate(context.Context, string, models.Filters, string) (models.Candidate, bool) {
	return models.Candidate{}, false
}

func TestTwoUserMatchScenario(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "room", 2, []string{"A", "B", "C"}, "user1", "user2")
	obs := &recordingObserver{}
	engine := NewEngine(s, obs)

	res, err := engine.SubmitVote(ctx, "room", "user1", "A", models.VotePositive)
	if err != nil {
		t.Fatalf("user1 vote error = %v", err)
	}
	if res.Match != nil {
		t.Fatalf("first vote produced a match: %+v", res.Match)
	}
	if tally, _ := s.GetTally(ctx, "room", "A"); tally.PositiveVotes != 1 {
		t.Errorf("tally after first vote = %d, want 1", tally.PositiveVotes)
	}
	if room, _ := s.GetRoom(ctx, "room"); room.Status != models.RoomActive {
		t.Errorf("room status after first vote = %s, want ACTIVE", room.Status)
	}

	res, err = engine.SubmitVote(ctx, "room", "user2", "A", models.VotePositive)
	if err != nil {
		t.Fatalf("user2 vote error = %v", err)
	}
	if res.Match == nil || res.Match.CandidateID != "A" || res.Match.Votes != 2 {
		t.Fatalf("second vote match = %+v, want A with 2 votes", res.Match)
	}

	room, err := s.GetRoom(ctx, "room")
	if err != nil {
		t.Fatalf("GetRoom() error = %v", err)
	}
	if room.Status != models.RoomMatched || room.ResultCandidateID != "A" {
		t.Errorf("room = %s/%s, want MATCHED/A", room.Status, room.ResultCandidateID)
	}
	match, err := s.GetMatch(ctx, "room")
	if err != nil || match.CandidateID != room.ResultCandidateID {
		t.Errorf("GetMatch() = (%+v, %v), want candidate %s", match, err, room.ResultCandidateID)
	}

	next, err := sequencer.New(s, noSupply{}).NextCandidate(ctx, "room", "user1")
	if err != nil {
		t.Fatalf("NextCandidate() error = %v", err)
	}
	if !next.IsMatched || next.Candidate == nil || next.Candidate.ID != "A" {
		t.Errorf("NextCandidate() = %+v, want matched A", next)
	}

	votes, matches := obs.counts()
	if votes != 2 || matches != 1 {
		t.Errorf("observer saw %d votes and %d matches, want 2 and 1", votes, matches)
	}

	if _, err := engine.SubmitVote(ctx, "room", "user1", "B", models.VotePositive); !errors.Is(err, models.ErrRoomNotJoinable) {
		t.Errorf("vote on matched room error = %v, want ErrRoomNotJoinable", err)
	}
}

func TestDuplicatePositiveVoteCountsOnce(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r", 5, []string{"A"}, "u1")
	engine := NewEngine(s, nil)

	if _, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive); err != nil {
		t.Fatalf("first vote error = %v", err)
	}
	_, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive)
	if !errors.Is(err, models.ErrDuplicateVote) {
		t.Fatalf("second vote error = %v, want ErrDuplicateVote", err)
	}
	if errors.Is(err, models.ErrRetryable) {
		t.Error("duplicate vote must not be retryable")
	}
	if tally, _ := s.GetTally(ctx, "r", "A"); tally.PositiveVotes != 1 {
		t.Errorf("tally = %d, want 1", tally.PositiveVotes)
	}
}

func TestNegativeVote(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r", 1, []string{"A", "B"}, "u1")
	engine := NewEngine(s, nil)

	res, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VoteNegative)
	if err != nil {
		t.Fatalf("negative vote error = %v", err)
	}
	if res.Vote.Type != models.VoteNegative || res.Match != nil {
		t.Errorf("result = %+v", res)
	}
	if tally, _ := s.GetTally(ctx, "r", "A"); tally.PositiveVotes != 0 {
		t.Errorf("negative vote counted: tally = %d", tally.PositiveVotes)
	}

	room, _ := s.GetRoom(ctx, "r")
	if room.Status != models.RoomWaiting {
		t.Errorf("negative vote activated the room: %s", room.Status)
	}
	if len(room.ShownCandidateIDs) != 1 || room.ShownCandidateIDs[0] != "A" {
		t.Errorf("ShownCandidateIDs = %v, want [A]", room.ShownCandidateIDs)
	}

	if _, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive); !errors.Is(err, models.ErrDuplicateVote) {
		t.Errorf("positive after negative error = %v, want ErrDuplicateVote", err)
	}
}

func TestSubmitVoteRejections(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "open", 2, []string{"A"}, "u1")
	createRoom(t, s, "done", 1, []string{"A"}, "u1", "u2")
	engine := NewEngine(s, nil)
	if _, err := engine.SubmitVote(ctx, "done", "u1", "A", models.VotePositive); err != nil {
		t.Fatalf("setup vote error = %v", err)
	}

	tests := []struct {
		name     string
		room     string
		user     string
		cand     string
		voteType models.VoteType
		want     error
	}{
		{"missing room", "ghost", "u1", "A", models.VotePositive, models.ErrRoomNotFound},
		{"missing room is not joinable", "ghost", "u1", "A", models.VoteNegative, models.ErrRoomNotJoinable},
		{"matched room", "done", "u2", "A", models.VotePositive, models.ErrRoomNotJoinable},
		{"not a member", "open", "stranger", "A", models.VotePositive, models.ErrNotAMember},
		{"bad candidate id", "open", "u1", "a#b", models.VotePositive, models.ErrInvalidArgument},
		{"empty user", "open", "", "A", models.VotePositive, models.ErrInvalidArgument},
		{"unknown vote type", "open", "u1", "A", models.VoteType("MAYBE"), models.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := engine.SubmitVote(ctx, tt.room, tt.user, tt.cand, tt.voteType)
			if !errors.Is(err, tt.want) {
				t.Errorf("SubmitVote() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConcurrentVotesProduceOneMatch(t *testing.T) {
	t.Parallel()

	const voters = 12
	s := newTestStore(t)
	ctx := context.Background()
	users := make([]string, voters)
	for i := range users {
		users[i] = fmt.Sprintf("u%02d", i)
	}
	createRoom(t, s, "race", 3, []string{"A", "B"}, users...)
	obs := &recordingObserver{}
	engine := NewEngine(s, obs)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matches []*models.Match
	)
	for _, u := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			res, err := engine.SubmitVote(ctx, "race", user, "A", models.VotePositive)
			if err != nil {
				if !errors.Is(err, models.ErrRoomNotJoinable) {
					t.Errorf("SubmitVote(%s) error = %v", user, err)
				}
				return
			}
			if res.Match != nil {
				mu.Lock()
				matches = append(matches, res.Match)
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want exactly 1", len(matches))
	}
	room, _ := s.GetRoom(ctx, "race")
	if room.Status != models.RoomMatched || room.ResultCandidateID != "A" {
		t.Errorf("room = %s/%s, want MATCHED/A", room.Status, room.ResultCandidateID)
	}
	counts, _ := s.CountPositiveVotes(ctx, "race")
	tally, _ := s.GetTally(ctx, "race", "A")
	if tally.PositiveVotes != counts["A"] {
		t.Errorf("tally = %d, recorded votes = %d", tally.PositiveVotes, counts["A"])
	}
	if _, m := obs.counts(); m != 1 {
		t.Errorf("observer saw %d matches, want 1", m)
	}
}

type failingStore struct {
	*store.Store
	voteErr     error
	finalizeErr error
	shownErr    error
}

func (f *failingStore) RecordPositiveVote(ctx context.Context, roomID, userID, candidateID string) (store.PositiveVoteResult, error) {
	if f.voteErr != nil {
		return store.PositiveVoteResult{}, f.voteErr
	}
	return f.Store.RecordPositiveVote(ctx, roomID, userID, candidateID)
}

func (f *failingStore) FinalizeMatch(ctx context.Context, roomID, candidateID string) (models.Match, bool, error) {
	if f.finalizeErr != nil {
		return models.Match{}, false, f.finalizeErr
	}
	return f.Store.FinalizeMatch(ctx, roomID, candidateID)
}

func (f *failingStore) MarkShown(ctx context.Context, roomID, candidateID string) error {
	if f.shownErr != nil {
		return f.shownErr
	}
	return f.Store.MarkShown(ctx, roomID, candidateID)
}

func TestStoreFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	ctx := context.Background()

	t.Run("vote transaction is retryable", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		createRoom(t, s, "r", 1, nil, "u1")
		engine := NewEngine(&failingStore{Store: s, voteErr: boom}, nil)
		if _, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive); !errors.Is(err, models.ErrRetryable) {
			t.Errorf("error = %v, want ErrRetryable", err)
		}
	})

	t.Run("finalize failure is retryable", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		createRoom(t, s, "r", 1, nil, "u1")
		engine := NewEngine(&failingStore{Store: s, finalizeErr: boom}, nil)
		res, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive)
		if !errors.Is(err, models.ErrRetryable) {
			t.Errorf("error = %v, want ErrRetryable", err)
		}
		if res.Vote.CandidateID != "A" {
			t.Errorf("committed vote not returned: %+v", res.Vote)
		}
	})

	t.Run("shown marking failure is swallowed", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		createRoom(t, s, "r", 2, nil, "u1")
		engine := NewEngine(&failingStore{Store: s, shownErr: boom}, nil)
		if _, err := engine.SubmitVote(ctx, "r", "u1", "A", models.VotePositive); err != nil {
			t.Errorf("error = %v, want nil", err)
		}
	})
}

func setTally(t *testing.T, s *store.Store, roomID, candidateID string, n int64) {
	t.Helper()
	data, err := json.Marshal(models.Tally{RoomID: roomID, CandidateID: candidateID, PositiveVotes: n})
	if err != nil {
		t.Fatalf("marshal tally: %v", err)
	}
	err = s.DB().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("tally:"+roomID+":"+candidateID), data)
	})
	if err != nil {
		t.Fatalf("set tally: %v", err)
	}
}

func TestReconcilerFinalizesPendingRoom(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "pending", 2, []string{"A", "B"}, "u1", "u2")
	createRoom(t, s, "quiet", 2, []string{"A"}, "u1")

	// Votes recorded directly, as if the process died before finalizing.
	for _, u := range []string{"u1", "u2"} {
		if _, err := s.RecordPositiveVote(ctx, "pending", u, "B"); err != nil {
			t.Fatalf("RecordPositiveVote() error = %v", err)
		}
	}
	if _, err := s.RecordPositiveVote(ctx, "quiet", "u1", "A"); err != nil {
		t.Fatalf("RecordPositiveVote() error = %v", err)
	}

	obs := &recordingObserver{}
	r := NewReconciler(s, obs)
	report, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if report.Rooms != 2 || report.MatchesFinalized != 1 || report.Errors != 0 {
		t.Errorf("report = %+v", report)
	}
	room, _ := s.GetRoom(ctx, "pending")
	if room.Status != models.RoomMatched || room.ResultCandidateID != "B" {
		t.Errorf("pending room = %s/%s, want MATCHED/B", room.Status, room.ResultCandidateID)
	}
	if quiet, _ := s.GetRoom(ctx, "quiet"); quiet.IsMatched() {
		t.Error("room below quorum was finalized")
	}
	if _, m := obs.counts(); m != 1 {
		t.Errorf("observer saw %d matches, want 1", m)
	}

	again, err := r.Reconcile(ctx)
	if err != nil || again.MatchesFinalized != 0 || again.TalliesRepaired != 0 {
		t.Errorf("second pass = (%+v, %v), want no repairs", again, err)
	}
}

func TestReconcilerRaisesLowTallies(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r", 3, []string{"A", "B"}, "u1", "u2")
	for _, u := range []string{"u1", "u2"} {
		if _, err := s.RecordPositiveVote(ctx, "r", u, "A"); err != nil {
			t.Fatalf("RecordPositiveVote() error = %v", err)
		}
	}
	setTally(t, s, "r", "A", 0)
	setTally(t, s, "r", "B", 2)

	report, err := NewReconciler(s, nil).Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if report.TalliesRepaired != 1 {
		t.Errorf("TalliesRepaired = %d, want 1", report.TalliesRepaired)
	}
	if a, _ := s.GetTally(ctx, "r", "A"); a.PositiveVotes != 2 {
		t.Errorf("tally A = %d, want 2", a.PositiveVotes)
	}
	if b, _ := s.GetTally(ctx, "r", "B"); b.PositiveVotes != 2 {
		t.Errorf("tally B = %d, want 2 (never lowered)", b.PositiveVotes)
	}
}
