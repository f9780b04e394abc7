package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const defaultSaveTimeout = 10 * time.Second

// SaveStatus is the advisory state of layout persistence.
type SaveStatus struct {
	Pending     bool      `json:"pending"`
	Failed      bool      `json:"failed"`
	Error       string    `json:"error,omitempty"`
	Saves       int       `json:"saves"`
	LastSavedAt time.Time `json:"lastSavedAt,omitzero"`
}

// PersistenceOptions configures the bridge.
type PersistenceOptions struct {
	Store       LayoutStore
	TokenSource oauth2.TokenSource
	QuietPeriod time.Duration
	SaveTimeout time.Duration
	Telemetry   Telemetry
	Logger      *zap.Logger
}

// PersistenceBridge debounces layout saves. Failures are recorded for the UI
// and never touch the in-memory order.
type PersistenceBridge struct {
	store     LayoutStore
	tokens    oauth2.TokenSource
	timeout   time.Duration
	debouncer *Debouncer
	telemetry Telemetry
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	lastErr     error
	saves       int
	lastSavedAt time.Time
}

// NewPersistenceBridge builds a bridge with the given quiet period.
func NewPersistenceBridge(opts PersistenceOptions) *PersistenceBridge {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = defaultQuietPeriod
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PersistenceBridge{
		store:     opts.Store,
		tokens:    opts.TokenSource,
		timeout:   opts.SaveTimeout,
		debouncer: NewDebouncer(opts.QuietPeriod),
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ScheduleSave queues doc; only the last document of a burst is sent.
func (b *PersistenceBridge) ScheduleSave(doc LayoutDocument) {
	doc = cloneLayout(doc)
	b.debouncer.Trigger(func() {
		_ = b.save(doc)
	})
}

// Flush sends the pending document now. It returns false when nothing was
// pending.
func (b *PersistenceBridge) Flush() bool {
	return b.debouncer.Flush()
}

func (b *PersistenceBridge) save(doc LayoutDocument) error {
	requestID := uuid.NewString()
	if b.store == nil {
		return b.record(errMissingLayoutStore, requestID)
	}
	token, err := accessToken(b.tokens)
	if err != nil {
		return b.record(err, requestID)
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	ctx = ContextWithBearerToken(ctx, token)
	ctx = ContextWithRequestID(ctx, requestID)
	return b.record(b.store.SaveLayout(ctx, doc), requestID)
}

func (b *PersistenceBridge) record(err error, requestID string) error {
	b.mu.Lock()
	b.lastErr = err
	if err == nil {
		b.saves++
		b.lastSavedAt = time.Now()
	}
	b.mu.Unlock()
	if err != nil {
		if errors.Is(err, context.Canceled) && b.ctx.Err() != nil {
			return err
		}
		b.logger.Error("layout save failed", zap.String("request_id", requestID), zap.Error(err))
		b.telemetry.Record(b.ctx, "dashboard.layout.save_error", map[string]any{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return err
	}
	b.logger.Debug("layout saved", zap.String("request_id", requestID))
	b.telemetry.Record(b.ctx, "dashboard.layout.save", map[string]any{"request_id": requestID})
	return nil
}

// SaveFailed reports whether the most recent save attempt failed.
func (b *PersistenceBridge) SaveFailed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr != nil
}

// LastError returns the error of the most recent save attempt.
func (b *PersistenceBridge) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Status summarizes persistence for display.
func (b *PersistenceBridge) Status() SaveStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	status := SaveStatus{
		Pending:     b.debouncer.Pending(),
		Failed:      b.lastErr != nil,
		Saves:       b.saves,
		LastSavedAt: b.lastSavedAt,
	}
	if b.lastErr != nil {
		status.Error = b.lastErr.Error()
	}
	return status
}

// Close drops any pending save and aborts an in-flight request.
func (b *PersistenceBridge) Close() {
	b.debouncer.Stop()
	b.cancel()
	b.debouncer.Wait()
}

func cloneLayout(doc LayoutDocument) LayoutDocument {
	return LayoutDocument{
		VisualOrder:            append([]string{}, doc.VisualOrder...),
		SelectedDynamicReports: append([]ReportKey{}, doc.SelectedDynamicReports...),
	}
}
