// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount returns the number of observations of one histogram series.
func histogramCount(t *testing.T, obs prometheus.Observer) uint64 {
	t.Helper()
	h, ok := obs.(prometheus.Histogram)
	if !ok {
		t.Fatalf("observer %T is not a histogram", obs)
	}
	var m io_prometheus_client.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordVote(t *testing.T) {
	before := testutil.ToFloat64(VotesTotal.WithLabelValues("POSITIVE", "duplicate"))
	RecordVote("POSITIVE", "duplicate")
	RecordVote("POSITIVE", "duplicate")
	after := testutil.ToFloat64(VotesTotal.WithLabelValues("POSITIVE", "duplicate"))

	if after-before != 2 {
		t.Errorf("duplicate votes delta = %v, want 2", after-before)
	}
}

func TestRecordCatalogResponse(t *testing.T) {
	tests := []struct {
		code  int
		label string
	}{
		{200, "200"},
		{429, "429"},
		{0, "error"},
	}
	for _, tt := range tests {
		before := testutil.ToFloat64(CatalogRequests.WithLabelValues(tt.label))
		RecordCatalogResponse(tt.code)
		after := testutil.ToFloat64(CatalogRequests.WithLabelValues(tt.label))
		if after-before != 1 {
			t.Errorf("RecordCatalogResponse(%d): label %q delta = %v, want 1", tt.code, tt.label, after-before)
		}
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/rooms/{roomID}/votes", "201"))
	observedBefore := histogramCount(t, APIRequestDuration.WithLabelValues("POST", "/api/v1/rooms/{roomID}/votes"))
	RecordAPIRequest("POST", "/api/v1/rooms/{roomID}/votes", "201", 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/rooms/{roomID}/votes", "201"))
	if after-before != 1 {
		t.Errorf("api request delta = %v, want 1", after-before)
	}
	if got := histogramCount(t, APIRequestDuration.WithLabelValues("POST", "/api/v1/rooms/{roomID}/votes")); got != observedBefore+1 {
		t.Errorf("duration observations = %d, want %d", got, observedBefore+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}
