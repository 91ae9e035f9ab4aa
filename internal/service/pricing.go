package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/trackeasy/railtick/internal/model"
	"github.com/trackeasy/railtick/internal/upstream"
	"github.com/trackeasy/railtick/pkg/currency"
)

// pricingAPI is the slice of the upstream client the engine needs.
type pricingAPI interface {
	Price(ctx context.Context, order model.PurchaseOrder) (model.Money, error)
	Discounts(ctx context.Context) ([]model.Discount, error)
	DiscountCode(ctx context.Context, code string) (*model.DiscountCode, error)
}

// PricingEngine computes the priced total for an order and resolves
// discount codes. Prices are never trusted until they survive the wire
// normalization and a post-normalization validity check; a failure
// blocks purchase confirmation.
type PricingEngine struct {
	api pricingAPI
}

// NewPricingEngine creates a pricing engine.
func NewPricingEngine(api pricingAPI) *PricingEngine {
	return &PricingEngine{api: api}
}

// Calculate submits the normalized order to the pricing endpoint and
// returns the canonical price. Both response shapes (flat and nested)
// and both currency encodings are accepted; anything that does not
// normalize cleanly is ErrInvalidPriceData.
func (e *PricingEngine) Calculate(ctx context.Context, order model.PurchaseOrder) (model.Money, error) {
	price, err := e.api.Price(ctx, order)
	if err != nil {
		if errors.Is(err, upstream.ErrInvalidResponseShape) || errors.Is(err, model.ErrUnknownCurrency) {
			return model.Money{}, fmt.Errorf("%w: %v", ErrInvalidPriceData, err)
		}
		return model.Money{}, err
	}
	if price.Amount.IsNegative() || !currency.Valid(price.Currency) {
		return model.Money{}, ErrInvalidPriceData
	}

	log.Printf("[pricing] order for %d passenger(s) priced at %s", len(order.Passengers), price)
	return price, nil
}

// Discounts returns the passenger-category discount list.
func (e *PricingEngine) Discounts(ctx context.Context) ([]model.Discount, error) {
	return e.api.Discounts(ctx)
}

// ValidateDiscountCode resolves a human-entered code to its identifier
// and percentage. A code the server does not recognize comes back as
// ErrInvalidDiscountCode; callers keep any previously applied discount.
func (e *PricingEngine) ValidateDiscountCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	if code == "" {
		return nil, ErrInvalidDiscountCode
	}
	dc, err := e.api.DiscountCode(ctx, code)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) || errors.Is(err, upstream.ErrInvalidResponseShape) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDiscountCode, code)
		}
		return nil, err
	}
	log.Printf("[pricing] discount code %s resolved: %.0f%% off", dc.Code, dc.Percentage)
	return dc, nil
}
