package negotiation

import (
	"context"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// Messages reported for unsuccessful preference updates.
const (
	InvalidPreferencesMessage = "Invalid preference values."
	PreferencesFailedMessage  = "Failed to update preferences."
)

// PreferenceOracle acknowledges strategy updates.
type PreferenceOracle interface {
	ApplyPreferences(ctx context.Context, in oracle.PreferenceInput) (oracle.PreferenceAck, error)
}

// PreferenceManager forwards strategy preferences to the oracle. Nothing is
// stored locally.
type PreferenceManager struct {
	oracle   PreferenceOracle
	validate *validatorv10.Validate
	log      *zap.Logger
}

func NewPreferenceManager(o PreferenceOracle, v *validatorv10.Validate, logger *zap.Logger) *PreferenceManager {
	if v == nil {
		v = validation.New()
	}
	return &PreferenceManager{oracle: o, validate: v, log: logging.OrNop(logger)}
}

// Update never returns an error: invalid input and oracle failures are
// reported as an unsuccessful outcome.
func (m *PreferenceManager) Update(ctx context.Context, p Preferences) PreferenceOutcome {
	if err := validation.Check(m.validate, p); err != nil {
		m.log.Info("rejected preference update", zap.Error(err))
		return PreferenceOutcome{Success: false, Message: InvalidPreferencesMessage}
	}

	ack, err := m.oracle.ApplyPreferences(ctx, oracle.PreferenceInput{
		Aggressiveness:         p.Aggressiveness,
		AcceptablePriceRange:   p.AcceptablePriceRange,
		AdditionalInstructions: p.AdditionalInstructions,
	})
	if err != nil {
		m.log.Error("error updating preferences", zap.Error(err))
		return PreferenceOutcome{Success: false, Message: PreferencesFailedMessage}
	}
	return PreferenceOutcome{Success: ack.Success, Message: ack.Message}
}
