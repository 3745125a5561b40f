// Package oracletest provides a scripted oracle.Generator for tests.
package oracletest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/imrishuroy/bargainbot/internal/oracle"
)

// Generator answers each flow with a canned response or error.
type Generator struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	delays    map[string]time.Duration
	calls     map[string]int
	prompts   map[string]string
}

func New() *Generator {
	return &Generator{
		responses: map[string]string{},
		errs:      map[string]error{},
		delays:    map[string]time.Duration{},
		calls:     map[string]int{},
		prompts:   map[string]string{},
	}
}

// Respond scripts the raw model text returned for flow.
func (g *Generator) Respond(flow, text string) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[flow] = text
	return g
}

// Fail scripts an error for flow.
func (g *Generator) Fail(flow string, err error) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[flow] = err
	return g
}

// Delay makes flow wait d (or until the context ends) before answering.
func (g *Generator) Delay(flow string, d time.Duration) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[flow] = d
	return g
}

// Calls reports how many times flow was invoked.
func (g *Generator) Calls(flow string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[flow]
}

// LastPrompt returns the most recent prompt rendered for flow.
func (g *Generator) LastPrompt(flow string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[flow]
}

func (g *Generator) Generate(ctx context.Context, req oracle.Request) (string, error) {
	g.mu.Lock()
	g.calls[req.Flow]++
	g.prompts[req.Flow] = req.Prompt
	delay := g.delays[req.Flow]
	err := g.errs[req.Flow]
	text, ok := g.responses[req.Flow]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no scripted response for flow %s", req.Flow)
	}
	return text, nil
}
