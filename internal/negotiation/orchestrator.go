// Package negotiation runs price negotiations against the oracle and keeps
// each shopper's negotiation history.
package negotiation

import (
	"context"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

var tracer = otel.Tracer("github.com/imrishuroy/bargainbot/internal/negotiation")

// Oracle is the part of the oracle client the orchestrator joins.
type Oracle interface {
	NegotiatePrice(ctx context.Context, productLink string) (oracle.PriceNegotiation, error)
	SuggestUpsells(ctx context.Context, productDescription string) (oracle.UpsellSuggestions, error)
}

// Orchestrator is stateless and safe for concurrent use.
type Orchestrator struct {
	oracle   Oracle
	validate *validatorv10.Validate
	log      *zap.Logger
}

func NewOrchestrator(o Oracle, v *validatorv10.Validate, logger *zap.Logger) *Orchestrator {
	if v == nil {
		v = validation.New()
	}
	return &Orchestrator{
		oracle:   o,
		validate: v,
		log:      logging.OrNop(logger),
	}
}

// UpsellDescription is the product description the upsell call receives.
func UpsellDescription(productLink string) string {
	return "Product at " + productLink
}

// Negotiate requests the price negotiation and the upsell suggestions
// concurrently. It returns both or fails as soon as either call fails,
// without waiting for the other one.
func (o *Orchestrator) Negotiate(ctx context.Context, req Request) (*Result, error) {
	if err := validation.Check(o.validate, req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "negotiation.negotiate")
	defer span.End()
	span.SetAttributes(attribute.String("product.link", req.ProductLink))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	var (
		price   oracle.PriceNegotiation
		upsells oracle.UpsellSuggestions
	)
	failed := make(chan error, 2)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := o.oracle.NegotiatePrice(gctx, req.ProductLink)
		if err != nil {
			err = &OrchestrationError{Call: CallNegotiatePrice, Err: err}
			failed <- err
			return err
		}
		price = out
		return nil
	})
	g.Go(func() error {
		out, err := o.oracle.SuggestUpsells(gctx, UpsellDescription(req.ProductLink))
		if err != nil {
			err = &OrchestrationError{Call: CallSuggestUpsells, Err: err}
			failed <- err
			return err
		}
		upsells = out
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-failed:
	case err = <-done:
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "negotiation failed")
		o.log.Warn("negotiation failed",
			zap.String("product_link", req.ProductLink),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	o.log.Info("negotiation completed",
		zap.String("product_link", req.ProductLink),
		zap.String("status", price.Status),
		zap.Int("upsells", len(upsells.Suggestions)),
		zap.Duration("duration", time.Since(start)))

	return &Result{Negotiation: price, Upsells: upsells}, nil
}
