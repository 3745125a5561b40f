// Package oracle is the text-generation backend behind negotiation, upsell,
// research, shopping-list and preference flows. A Client is built once and
// injected into the services that need it.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/validation"
)

const defaultTimeout = 45 * time.Second

// Client runs the declared flows against a Generator and validates every
// response against the flow's output type.
type Client struct {
	gen      Generator
	flows    *flowSet
	validate *validatorv10.Validate
	timeout  time.Duration
	log      *zap.Logger
}

type Option func(*Client)

// WithTimeout bounds every flow call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithValidator shares a configured validator with the client.
func WithValidator(v *validatorv10.Validate) Option {
	return func(c *Client) {
		if v != nil {
			c.validate = v
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Client around gen.
func New(gen Generator, opts ...Option) *Client {
	c := &Client{
		gen:      gen,
		flows:    newFlowSet(),
		validate: validation.New(),
		timeout:  defaultTimeout,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NegotiatePrice asks the oracle to negotiate the product behind productLink.
func (c *Client) NegotiatePrice(ctx context.Context, productLink string) (PriceNegotiation, error) {
	var out PriceNegotiation
	err := run(ctx, c, c.flows.negotiate, struct{ ProductLink string }{productLink}, &out)
	return out, err
}

// SuggestUpsells asks for complementary products for productDescription.
func (c *Client) SuggestUpsells(ctx context.Context, productDescription string) (UpsellSuggestions, error) {
	var out UpsellSuggestions
	err := run(ctx, c, c.flows.upsells, struct{ ProductDescription string }{productDescription}, &out)
	return out, err
}

// ResearchProducts finds purchasable options for a free-text description.
func (c *Client) ResearchProducts(ctx context.Context, productDescription string) ([]ProductFinding, error) {
	var out researchOutput
	if err := run(ctx, c, c.flows.research, struct{ ProductDescription string }{productDescription}, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// SuggestShoppingList turns a description of shopping needs into items.
func (c *Client) SuggestShoppingList(ctx context.Context, prompt string) ([]ShoppingItem, error) {
	var out shoppingListOutput
	if err := run(ctx, c, c.flows.shopping, struct{ Prompt string }{prompt}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ApplyPreferences forwards a negotiation strategy for acknowledgement.
func (c *Client) ApplyPreferences(ctx context.Context, in PreferenceInput) (PreferenceAck, error) {
	var out PreferenceAck
	err := run(ctx, c, c.flows.preferences, in, &out)
	return out, err
}

func run[T any](ctx context.Context, c *Client, f *flow, data interface{}, out *T) error {
	prompt, err := f.render(data)
	if err != nil {
		return &Error{Flow: f.name, Kind: KindSchema, Err: fmt.Errorf("render prompt: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.gen.Generate(ctx, Request{Flow: f.name, Prompt: prompt, Schema: f.schema})
	if err != nil {
		kind := KindUnavailable
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		c.log.Warn("oracle call failed",
			zap.String("flow", f.name),
			zap.String("kind", string(kind)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return &Error{Flow: f.name, Kind: kind, Err: err}
	}

	if err := json.Unmarshal([]byte(stripFence(text)), out); err != nil {
		return &Error{Flow: f.name, Kind: KindSchema, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := c.validate.Struct(out); err != nil {
		return &Error{Flow: f.name, Kind: KindSchema, Err: fmt.Errorf("response shape: %w", err)}
	}

	c.log.Debug("oracle call completed",
		zap.String("flow", f.name),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// stripFence removes a ```json ... ``` wrapper some models add even in JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
