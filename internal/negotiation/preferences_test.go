package negotiation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imrishuroy/bargainbot/internal/negotiation"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/oracle/oracletest"
)

func TestPreferences_Acknowledged(t *testing.T) {
	gen := oracletest.New().Respond(oracle.FlowManagePreferences,
		`{"success":true,"message":"Preferences updated successfully."}`)
	m := negotiation.NewPreferenceManager(oracle.New(gen), nil, nil)

	out := m.Update(context.Background(), negotiation.Preferences{
		Aggressiveness:       "medium",
		AcceptablePriceRange: 0.1,
	})
	if !out.Success || out.Message != "Preferences updated successfully." {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	prompt := gen.LastPrompt(oracle.FlowManagePreferences)
	if !strings.Contains(prompt, "medium") || !strings.Contains(prompt, "0.10") {
		t.Fatalf("prompt missing preference values: %q", prompt)
	}
}

func TestPreferences_InvalidValuesSkipOracle(t *testing.T) {
	cases := map[string]negotiation.Preferences{
		"zero ceiling":     {Aggressiveness: "low", AcceptablePriceRange: 0},
		"negative ceiling": {Aggressiveness: "low", AcceptablePriceRange: -5},
		"unknown level":    {Aggressiveness: "extreme", AcceptablePriceRange: 0.2},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			gen := oracletest.New()
			m := negotiation.NewPreferenceManager(oracle.New(gen), nil, nil)

			out := m.Update(context.Background(), p)
			if out.Success || out.Message != "Invalid preference values." {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if gen.Calls(oracle.FlowManagePreferences) != 0 {
				t.Fatal("oracle must not be called")
			}
		})
	}
}

func TestPreferences_OracleFailure(t *testing.T) {
	gen := oracletest.New().Fail(oracle.FlowManagePreferences, errors.New("boom"))
	m := negotiation.NewPreferenceManager(oracle.New(gen), nil, nil)

	out := m.Update(context.Background(), negotiation.Preferences{Aggressiveness: "high", AcceptablePriceRange: 0.3})
	if out.Success || out.Message != "Failed to update preferences." {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestPreferences_DeclinedByOracle(t *testing.T) {
	gen := oracletest.New().Respond(oracle.FlowManagePreferences,
		`{"success":false,"message":"Instructions conflict with aggressiveness."}`)
	m := negotiation.NewPreferenceManager(oracle.New(gen), nil, nil)

	out := m.Update(context.Background(), negotiation.Preferences{
		Aggressiveness:         "low",
		AcceptablePriceRange:   0.05,
		AdditionalInstructions: "Push hard",
	})
	if out.Success || out.Message != "Instructions conflict with aggressiveness." {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
