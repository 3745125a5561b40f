// Package shopping serves market research and shopping-list suggestions.
package shopping

import (
	"context"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/bargainbot/internal/logging"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

// Oracle is the subset of the oracle client the shopping service uses.
type Oracle interface {
	ResearchProducts(ctx context.Context, productDescription string) ([]oracle.ProductFinding, error)
	SuggestShoppingList(ctx context.Context, prompt string) ([]oracle.ShoppingItem, error)
}

type Service struct {
	oracle   Oracle
	validate *validatorv10.Validate
	log      *zap.Logger
}

func NewService(o Oracle, v *validatorv10.Validate, logger *zap.Logger) *Service {
	if v == nil {
		v = validation.New()
	}
	return &Service{oracle: o, validate: v, log: logging.OrNop(logger)}
}

// ResearchProduct returns a few purchase options for the described product.
func (s *Service) ResearchProduct(ctx context.Context, description string) ([]oracle.ProductFinding, error) {
	if err := validation.Check(s.validate, validation.ResearchRequest{ProductDescription: description}); err != nil {
		return nil, err
	}

	products, err := s.oracle.ResearchProducts(ctx, description)
	if err != nil {
		s.log.Warn("product research failed", zap.String("description", description), zap.Error(err))
		return nil, fmt.Errorf("research product: %w", err)
	}
	s.log.Info("product research completed", zap.Int("products", len(products)))
	return products, nil
}

// SuggestShoppingList turns a free-form need ("ingredients for rolex") into
// list items with estimated market prices.
func (s *Service) SuggestShoppingList(ctx context.Context, prompt string) ([]oracle.ShoppingItem, error) {
	if err := validation.Check(s.validate, validation.ShoppingListRequest{Prompt: prompt}); err != nil {
		return nil, err
	}

	items, err := s.oracle.SuggestShoppingList(ctx, prompt)
	if err != nil {
		s.log.Warn("shopping list suggestion failed", zap.Error(err))
		return nil, fmt.Errorf("suggest shopping list: %w", err)
	}
	s.log.Info("shopping list suggested", zap.Int("items", len(items)))
	return items, nil
}
