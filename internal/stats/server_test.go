package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SerialScope/internal/core/model"
)

func TestStatsEndpoint(t *testing.T) {
	session := NewSession()
	session.RecordFlushed(model.ChannelCtrl, 10)
	session.RecordFlushed(model.ChannelNode, 1)
	session.RecordFlushed(model.ChannelCtrl, 4)
	session.SetStagingDropped(model.ChannelCtrl, 3)
	session.SetResyncs(2)

	srv := NewServer(":0", session)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var sum Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if sum.Records != 3 {
		t.Errorf("Expected 3 records, got %d", sum.Records)
	}
	if sum.BytesCtrl != 14 || sum.BytesNode != 1 {
		t.Errorf("Unexpected byte counters: ctrl=%d node=%d", sum.BytesCtrl, sum.BytesNode)
	}
	if sum.StagingDroppedCtrl != 3 || sum.Resyncs != 2 {
		t.Errorf("Unexpected diagnostics: %+v", sum)
	}
}

func TestStatsEndpoint_MethodNotAllowed(t *testing.T) {
	srv := NewServer(":0", NewSession())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats", nil)
	rr := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", rr.Code)
	}
}

func TestNilSessionSnapshot(t *testing.T) {
	var s *Session
	sum := s.Snapshot()
	if sum.Records != 0 {
		t.Fatalf("Nil session must snapshot to zeros, got %+v", sum)
	}
	// Counter methods on a nil session are no-ops, not panics.
	s.RecordFlushed(model.ChannelCtrl, 1)
	s.SetStagingDropped(model.ChannelNode, 1)
	s.SetResyncs(1)
}
