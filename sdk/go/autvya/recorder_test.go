package autvya

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// batchCollector records every batch the server receives.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]InteractionInput
	fail    bool
}

func (bc *batchCollector) handler(w http.ResponseWriter, r *http.Request) {
	bc.mu.Lock()
	fail := bc.fail
	bc.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"code": "INTERNAL_ERROR", "message": "boom"},
		})
		return
	}

	var req batchRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	bc.mu.Lock()
	bc.batches = append(bc.batches, req.Interactions)
	bc.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"data": BatchResponse{Accepted: int64(len(req.Interactions))},
	})
}

func (bc *batchCollector) total() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	n := 0
	for _, b := range bc.batches {
		n += len(b)
	}
	return n
}

func (bc *batchCollector) setFail(v bool) {
	bc.mu.Lock()
	bc.fail = v
	bc.mu.Unlock()
}

func TestRecorderFlushOnClose(t *testing.T) {
	collector := &batchCollector{}
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/interactions/batch": collector.handler,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rec := NewSessionRecorder(c, uuid.New(), RecorderConfig{FlushInterval: time.Hour})

	rec.Record("agua", 45*time.Second)
	rec.Record("comida", 0)
	rec.Record("brincar", 12*time.Second)

	if got := rec.Pending(); got != 3 {
		t.Errorf("expected 3 pending, got %d", got)
	}

	rec.Close(context.Background())

	if got := collector.total(); got != 3 {
		t.Errorf("expected 3 events uploaded, got %d", got)
	}
	if got := rec.Pending(); got != 0 {
		t.Errorf("expected empty buffer after close, got %d", got)
	}

	collector.mu.Lock()
	first := collector.batches[0][0]
	second := collector.batches[0][1]
	collector.mu.Unlock()

	if first.Button != "agua" {
		t.Errorf("expected first button agua, got %q", first.Button)
	}
	if first.SessionDurationSecs == nil || *first.SessionDurationSecs != 45 {
		t.Errorf("expected 45s duration, got %v", first.SessionDurationSecs)
	}
	if second.SessionDurationSecs != nil {
		t.Errorf("expected nil duration for zero input, got %v", second.SessionDurationSecs)
	}
	if first.OccurredAt == nil {
		t.Error("expected OccurredAt to be set")
	}
}

func TestRecorderPeriodicFlush(t *testing.T) {
	collector := &batchCollector{}
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/interactions/batch": collector.handler,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rec := NewSessionRecorder(c, uuid.New(), RecorderConfig{FlushInterval: 20 * time.Millisecond})
	defer rec.Close(context.Background())

	rec.Record("agua", 0)
	rec.Record("musica", 0)

	deadline := time.Now().Add(2 * time.Second)
	for collector.total() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := collector.total(); got != 2 {
		t.Fatalf("expected 2 events flushed by ticker, got %d", got)
	}
}

func TestRecorderDropsFailedBatch(t *testing.T) {
	collector := &batchCollector{}
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/interactions/batch": collector.handler,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rec := NewSessionRecorder(c, uuid.New(), RecorderConfig{FlushInterval: time.Hour})
	defer rec.Close(context.Background())

	collector.setFail(true)
	rec.Record("agua", 0)
	if got := rec.Flush(context.Background()); got != 0 {
		t.Errorf("expected 0 accepted on failure, got %d", got)
	}
	if got := rec.Pending(); got != 0 {
		t.Errorf("failed batch should be dropped, got %d pending", got)
	}

	// Later presses still make it through.
	collector.setFail(false)
	rec.Record("comida", 0)
	if got := rec.Flush(context.Background()); got != 1 {
		t.Errorf("expected 1 accepted after recovery, got %d", got)
	}
}

func TestRecorderSplitsOversizeBatch(t *testing.T) {
	collector := &batchCollector{}
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/interactions/batch": collector.handler,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rec := NewSessionRecorder(c, uuid.New(), RecorderConfig{FlushInterval: time.Hour})
	defer rec.Close(context.Background())

	for range maxBatchSize + 10 {
		rec.Record("agua", 0)
	}
	if got := rec.Flush(context.Background()); got != maxBatchSize+10 {
		t.Fatalf("expected %d accepted, got %d", maxBatchSize+10, got)
	}

	collector.mu.Lock()
	defer collector.mu.Unlock()
	if len(collector.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(collector.batches))
	}
	if len(collector.batches[0]) != maxBatchSize {
		t.Errorf("expected first batch of %d, got %d", maxBatchSize, len(collector.batches[0]))
	}
	if len(collector.batches[1]) != 10 {
		t.Errorf("expected second batch of 10, got %d", len(collector.batches[1]))
	}
}
