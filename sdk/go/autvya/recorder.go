package autvya

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultFlushInterval = 30 * time.Second
	maxBatchSize         = 500
)

// RecorderConfig configures a SessionRecorder.
type RecorderConfig struct {
	// FlushInterval is how often buffered presses are sent to the server.
	// Defaults to 30 seconds.
	FlushInterval time.Duration

	// Logger receives flush failure reports. Defaults to slog.Default().
	Logger *slog.Logger
}

// SessionRecorder buffers button presses on the device and ships them to
// the server in periodic batches, so a flaky connection never blocks the
// child's interaction. Presses that fail to upload are dropped after
// logging; the AAC board must keep responding regardless.
//
// All methods are safe for concurrent use.
type SessionRecorder struct {
	client  *Client
	childID uuid.UUID
	logger  *slog.Logger

	mu  sync.Mutex
	buf []InteractionInput

	// flushMu serializes flushes so at most one upload is in flight.
	flushMu sync.Mutex

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSessionRecorder starts a recorder for one child. Call Close when the
// session ends to stop the flush loop and upload what remains.
func NewSessionRecorder(client *Client, childID uuid.UUID, cfg RecorderConfig) *SessionRecorder {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &SessionRecorder{
		client:  client,
		childID: childID,
		logger:  logger,
		ticker:  time.NewTicker(interval),
		done:    make(chan struct{}),
	}

	r.wg.Add(1)
	go r.loop()
	return r
}

// Record buffers one button press, timestamped now. sessionDuration <= 0
// means the press carries no session timing.
func (r *SessionRecorder) Record(button string, sessionDuration time.Duration) {
	now := time.Now().UTC()
	input := InteractionInput{Button: button, OccurredAt: &now}
	if sessionDuration > 0 {
		secs := int(sessionDuration.Seconds())
		input.SessionDurationSecs = &secs
	}

	r.mu.Lock()
	r.buf = append(r.buf, input)
	r.mu.Unlock()
}

// Pending returns the number of presses waiting for the next flush.
func (r *SessionRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Flush uploads the buffered presses immediately. Failed batches are
// dropped after logging. Returns the number of presses the server accepted.
func (r *SessionRecorder) Flush(ctx context.Context) int {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	var accepted int
	for {
		r.mu.Lock()
		if len(r.buf) == 0 {
			r.mu.Unlock()
			return accepted
		}
		n := len(r.buf)
		if n > maxBatchSize {
			n = maxBatchSize
		}
		batch := r.buf[:n:n]
		r.buf = append([]InteractionInput(nil), r.buf[n:]...)
		r.mu.Unlock()

		resp, err := r.client.SubmitBatch(ctx, r.childID, batch)
		if err != nil {
			r.logger.Warn("autvya: dropping interaction batch after failed upload",
				"child_id", r.childID.String(),
				"events", len(batch),
				"error", err,
			)
			continue
		}
		accepted += int(resp.Accepted)
	}
}

// Close stops the flush loop and uploads whatever is still buffered.
func (r *SessionRecorder) Close(ctx context.Context) {
	r.ticker.Stop()
	close(r.done)
	r.wg.Wait()
	r.Flush(ctx)
}

func (r *SessionRecorder) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			r.Flush(ctx)
			cancel()
		case <-r.done:
			return
		}
	}
}
