package shopping_test

import (
	"context"
	"errors"
	"testing"

	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/oracle/oracletest"
	"github.com/imrishuroy/bargainbot/internal/shopping"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

func TestResearchProduct(t *testing.T) {
	gen := oracletest.New().Respond(oracle.FlowResearchProducts, `{"products":[
		{"name":"Samsung 24\" LED","description":"HD ready","price":"UGX 650,000","store":"Game Lugogo"},
		{"name":"Samsung 24\" Smart","description":"Tizen","price":"UGX 820,000","store":"Jumia Uganda"}]}`)
	svc := shopping.NewService(oracle.New(gen), nil, nil)

	products, err := svc.ResearchProduct(context.Background(), "24 inch Samsung TV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 || products[1].Store != "Jumia Uganda" || products[0].Price != "UGX 650,000" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestResearchProduct_ShortDescription(t *testing.T) {
	gen := oracletest.New()
	svc := shopping.NewService(oracle.New(gen), nil, nil)

	_, err := svc.ResearchProduct(context.Background(), "tv")
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if gen.Calls(oracle.FlowResearchProducts) != 0 {
		t.Fatal("oracle must not be called")
	}
}

func TestSuggestShoppingList(t *testing.T) {
	gen := oracletest.New().Respond(oracle.FlowSuggestShoppingList, `{"shoppingList":[
		{"itemName":"Eggs (tray)","category":"Dairy","estimatedPrice":"UGX 12,000","suggestedMarket":"Nakasero Market"},
		{"itemName":"Chapati","category":"Bakery","estimatedPrice":"UGX 1,000","suggestedMarket":"Local vendor"}]}`)
	svc := shopping.NewService(oracle.New(gen), nil, nil)

	items, err := svc.SuggestShoppingList(context.Background(), "ingredients for a rolex breakfast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].ItemName != "Eggs (tray)" || items[1].EstimatedPrice != "UGX 1,000" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSuggestShoppingList_Errors(t *testing.T) {
	t.Run("short prompt", func(t *testing.T) {
		svc := shopping.NewService(oracle.New(oracletest.New()), nil, nil)
		_, err := svc.SuggestShoppingList(context.Background(), "food")
		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("expected *validation.Error, got %v", err)
		}
	})

	t.Run("oracle failure", func(t *testing.T) {
		gen := oracletest.New().Fail(oracle.FlowSuggestShoppingList, errors.New("quota"))
		svc := shopping.NewService(oracle.New(gen), nil, nil)
		_, err := svc.SuggestShoppingList(context.Background(), "weekly groceries for two")
		var oerr *oracle.Error
		if !errors.As(err, &oerr) || oerr.Flow != oracle.FlowSuggestShoppingList {
			t.Fatalf("expected *oracle.Error, got %v", err)
		}
	})
}
