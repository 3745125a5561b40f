package negotiation

import (
	"context"
	"errors"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/metrics"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// FailureMessage is what a shopper sees on a failed negotiation record.
const FailureMessage = "Failed to complete negotiation."

const (
	defaultDeskTimeout = 90 * time.Second
	metricTimeout      = 5 * time.Second
)

// Desk accepts negotiations into a session's history and settles them in
// the background as the orchestrator finishes.
type Desk struct {
	orchestrator *Orchestrator
	sessions     *Sessions
	validate     *validatorv10.Validate
	metrics      metrics.Recorder
	timeout      time.Duration
	log          *zap.Logger

	wg sync.WaitGroup
}

type DeskConfig struct {
	Orchestrator *Orchestrator
	Sessions     *Sessions
	Validator    *validatorv10.Validate
	Metrics      metrics.Recorder
	Timeout      time.Duration
	Logger       *zap.Logger
}

func NewDesk(cfg DeskConfig) *Desk {
	d := &Desk{
		orchestrator: cfg.Orchestrator,
		sessions:     cfg.Sessions,
		validate:     cfg.Validator,
		metrics:      cfg.Metrics,
		timeout:      cfg.Timeout,
		log:          logging.OrNop(cfg.Logger),
	}
	if d.sessions == nil {
		d.sessions = NewSessions()
	}
	if d.validate == nil {
		d.validate = validation.New()
	}
	if d.metrics == nil {
		d.metrics = metrics.Nop{}
	}
	if d.timeout <= 0 {
		d.timeout = defaultDeskTimeout
	}
	return d
}

// Sessions exposes the histories the desk writes into.
func (d *Desk) Sessions() *Sessions { return d.sessions }

// Submit validates req, records it as pending in the session's history and
// starts the negotiation. The returned record is the pending one.
func (d *Desk) Submit(ctx context.Context, sessionID string, req Request) (Record, error) {
	if err := validation.Check(d.validate, req); err != nil {
		return Record{}, err
	}

	history := d.sessions.Get(sessionID)
	rec := history.Begin(req)

	// The negotiation outlives the submitting request.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		d.settle(runCtx, sessionID, history, rec.ID, req)
	}()

	return rec, nil
}

func (d *Desk) settle(ctx context.Context, sessionID string, history *History, id string, req Request) {
	res, err := d.orchestrator.Negotiate(ctx, req)

	metric := metrics.NegotiationSucceeded
	var settleErr error
	if err != nil {
		metric = metrics.NegotiationFailed
		settleErr = errors.New(FailureMessage)
	}

	rec, serr := history.Settle(id, res, settleErr)
	switch {
	case errors.Is(serr, ErrRecordNotFound):
		d.log.Info("negotiation settled after history was cleared",
			zap.String("session_id", sessionID), zap.String("record_id", id))
	case serr != nil:
		d.log.Error("settle negotiation record", zap.String("record_id", id), zap.Error(serr))
	default:
		d.log.Info("negotiation record settled",
			zap.String("session_id", sessionID),
			zap.String("record_id", id),
			zap.String("status", string(rec.Status)))
	}

	// ctx may already be past its deadline when the negotiation timed out.
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricTimeout)
	defer cancel()
	if merr := d.metrics.Incr(mctx, metric, nil); merr != nil {
		d.log.Warn("record metric", zap.String("metric", metric), zap.Error(merr))
	}
}

// Wait blocks until every submitted negotiation has settled or ctx ends.
func (d *Desk) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
