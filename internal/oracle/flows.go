package oracle

import (
	"strings"
	"text/template"

	"google.golang.org/genai"
)

// Flow names.
const (
	FlowNegotiatePrice      = "negotiate_price"
	FlowSuggestUpsells      = "suggest_upsells"
	FlowResearchProducts    = "research_products"
	FlowSuggestShoppingList = "suggest_shopping_list"
	FlowManagePreferences   = "manage_preferences"
)

// flow pairs an instruction template with the response shape the model
// is asked to produce.
type flow struct {
	name   string
	tmpl   *template.Template
	schema *genai.Schema
}

func (f *flow) render(data interface{}) (string, error) {
	var b strings.Builder
	if err := f.tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

type flowSet struct {
	negotiate   *flow
	upsells     *flow
	research    *flow
	shopping    *flow
	preferences *flow
}

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func newFlowSet() *flowSet {
	return &flowSet{
		negotiate: &flow{
			name: FlowNegotiatePrice,
			tmpl: template.Must(template.New(FlowNegotiatePrice).Parse(
				`You negotiate on behalf of a shopper and your goal is the lowest price you can get.

Product link: {{.ProductLink}}

Work the negotiation through to an outcome. Report the final status of the negotiation,
the negotiated price if you secured one, and a short summary of how it went.
`)),
			schema: object(map[string]*genai.Schema{
				"status":          str("Final status of the negotiation, e.g. accepted or declined."),
				"negotiatedPrice": str("Final negotiated price, only when the negotiation succeeded."),
				"summary":         str("Short summary of the negotiation."),
			}, "status", "summary"),
		},
		upsells: &flow{
			name: FlowSuggestUpsells,
			tmpl: template.Must(template.New(FlowSuggestUpsells).Parse(
				`You recommend products that complement a purchase.

Product: {{.ProductDescription}}

List products the shopper would likely want alongside it, best match first.
Return only the product names.
`)),
			schema: object(map[string]*genai.Schema{
				"suggestions": {
					Type:        genai.TypeArray,
					Description: "Complementary product names, best first.",
					Items:       str("Product name."),
				},
			}, "suggestions"),
		},
		research: &flow{
			name: FlowResearchProducts,
			tmpl: template.Must(template.New(FlowResearchProducts).Parse(
				`You are a market researcher and personal shopper in Kampala, Uganda.

The shopper is looking for: "{{.ProductDescription}}"

Find 2 to 3 concrete product options. For each give the full product name, a one-sentence
description, an estimated price in Ugandan Shillings formatted like "UGX 1,200,000", and a
Kampala store (Game, Shoprite, TMT, ...) or an online store (Jumia, Kikuu, ...) that sells it.
`)),
			schema: object(map[string]*genai.Schema{
				"products": {
					Type: genai.TypeArray,
					Items: object(map[string]*genai.Schema{
						"name":        str("Full product name."),
						"description": str("One-sentence description."),
						"price":       str(`Price in UGX, formatted like "UGX 1,200,000".`),
						"store":       str("Kampala or online store selling it."),
					}, "name", "description", "price", "store"),
				},
			}, "products"),
		},
		shopping: &flow{
			name: FlowSuggestShoppingList,
			tmpl: template.Must(template.New(FlowSuggestShoppingList).Parse(
				`You are a personal shopper in Kampala, Uganda, and you look for the most affordable options.

The shopper needs: "{{.Prompt}}"

Build a list of specific items. For each item give its category, an estimated price in UGX,
and the cheapest market or area in Kampala to buy it (Kikuubo, Nakasero Market, Owino Market,
Game Store, ...).
`)),
			schema: object(map[string]*genai.Schema{
				"shoppingList": {
					Type: genai.TypeArray,
					Items: object(map[string]*genai.Schema{
						"itemName":        str("Item name."),
						"category":        str("Category, e.g. Kitchen Ware or Food Stuffs."),
						"estimatedPrice":  str("Estimated price in UGX."),
						"suggestedMarket": str("Cheapest Kampala market or area for the item."),
					}, "itemName", "category", "estimatedPrice", "suggestedMarket"),
				},
			}, "shoppingList"),
		},
		preferences: &flow{
			name: FlowManagePreferences,
			tmpl: template.Must(template.New(FlowManagePreferences).Parse(
				`You manage the negotiation strategy of a shopping assistant. Apply these preferences:

Aggressiveness: {{.Aggressiveness}}
Acceptable price range: {{printf "%.2f" .AcceptablePriceRange}}
Additional instructions: {{if .AdditionalInstructions}}{{.AdditionalInstructions}}{{else}}none{{end}}

Confirm whether the strategy was updated and reply with a short message for the shopper.
`)),
			schema: object(map[string]*genai.Schema{
				"success": {Type: genai.TypeBoolean, Description: "Whether the strategy was updated."},
				"message": str("Message for the shopper."),
			}, "success", "message"),
		},
	}
}
