package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/catalog"
	"github.com/flexmart/promo-api/internal/common"
	"github.com/flexmart/promo-api/internal/lock"
	"github.com/flexmart/promo-api/internal/obs"
	"github.com/flexmart/promo-api/internal/pricing"
	"github.com/flexmart/promo-api/internal/promo"
)

// ItemSource provides catalog lookups for cart operations.
type ItemSource interface {
	GetItem(ctx context.Context, id int64) (catalog.Item, error)
}

// PromotionSource provides promotion lookups for cart operations.
type PromotionSource interface {
	CandidatesFor(ctx context.Context, itemID int64, categoryID *int64, activated map[int64]struct{}, now time.Time) ([]promo.Promotion, error)
	ResolveCode(ctx context.Context, code string, now time.Time) (*promo.Promotion, error)
}

// MutexScope serialises mutations on a shared key.
type MutexScope interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service implements cart operations. Mutations run under a per-cart redis
// lock so concurrent requests against the same cart cannot interleave their
// read-check-write cycles.
type Service struct {
	Store   Store
	Catalog ItemSource
	Promos  PromotionSource
	Locker  MutexScope
	LockTTL time.Duration
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) withCartLock(ctx context.Context, cartID uuid.UUID, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	return s.Locker.WithLock(ctx, lock.CartKey(cartID.String()), s.LockTTL, fn)
}

func recordMutation(op, result string) {
	if obs.CartMutationTotal != nil {
		obs.CartMutationTotal.WithLabelValues(op, result).Inc()
	}
}

// Create opens a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	c, err := s.Store.CreateCart(ctx)
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("create cart: %w", err))
	}
	return c, nil
}

func (s *Service) getCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	c, err := s.Store.GetCart(ctx, id)
	if errors.Is(err, ErrCartNotFound) {
		return nil, common.NotFoundError(common.CodeCartNotFound, "Cart not found")
	}
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("get cart: %w", err))
	}
	return c, nil
}

// AddItem adds an item to the cart, merging into an existing line for the
// same item. The requested amount is added on top of what the cart already
// holds, and the cumulative amount is checked against stock.
func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, itemID int64, quantity *int64, weight *decimal.Decimal) (view *View, err error) {
	defer func() { recordMutation("add_item", resultLabel(err)) }()
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		item, err := s.Catalog.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		amount, err := requestedAmount(item, quantity, weight)
		if err != nil {
			return err
		}

		existing, err := s.Store.GetLine(ctx, cartID, itemID)
		if err != nil && !errors.Is(err, ErrLineNotFound) {
			return common.InternalError(err)
		}

		inCart := decimal.Zero
		if existing != nil {
			inCart = existing.Amount()
		}
		if err := checkStock(item, inCart, inCart.Add(amount)); err != nil {
			return err
		}

		total := inCart.Add(amount)
		if existing == nil {
			line := &Line{CartID: cartID, ItemID: itemID}
			setAmount(line, item, total)
			if err := s.Store.InsertLine(ctx, line); err != nil {
				return common.InternalError(err)
			}
		} else {
			q, w := splitAmount(item, total)
			if err := s.Store.UpdateLineAmount(ctx, cartID, itemID, q, w); err != nil {
				return common.InternalError(err)
			}
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// UpdateItem replaces the line's amount with an absolute value.
func (s *Service) UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, quantity *int64, weight *decimal.Decimal) (view *View, err error) {
	defer func() { recordMutation("update_item", resultLabel(err)) }()
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		item, err := s.Catalog.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		amount, err := requestedAmount(item, quantity, weight)
		if err != nil {
			return err
		}
		if _, err := s.Store.GetLine(ctx, cartID, itemID); err != nil {
			if errors.Is(err, ErrLineNotFound) {
				return common.NotFoundError(common.CodeItemNotInCart, "Item not in cart")
			}
			return common.InternalError(err)
		}
		if err := checkStockLevel(item, amount); err != nil {
			return err
		}
		q, w := splitAmount(item, amount)
		if err := s.Store.UpdateLineAmount(ctx, cartID, itemID, q, w); err != nil {
			return common.InternalError(err)
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// RemoveItem drops an item's line from the cart entirely.
func (s *Service) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) (view *View, err error) {
	defer func() { recordMutation("remove_item", resultLabel(err)) }()
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		if err := s.Store.DeleteLine(ctx, cartID, itemID); err != nil {
			if errors.Is(err, ErrLineNotFound) {
				return common.NotFoundError(common.CodeItemNotInCart, "Item not in cart")
			}
			return common.InternalError(err)
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// Clear empties the cart: all lines and all promo code activations go.
func (s *Service) Clear(ctx context.Context, cartID uuid.UUID) (view *View, err error) {
	defer func() { recordMutation("clear", resultLabel(err)) }()
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		if err := s.Store.DeleteLines(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		if err := s.Store.DeleteActivations(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// ActivateCode applies a promo code to the cart. Applying a code the cart
// already carries is a no-op, not an error.
func (s *Service) ActivateCode(ctx context.Context, cartID uuid.UUID, code string) (view *View, err error) {
	defer func() {
		if obs.PromoCodeActivationTotal != nil {
			obs.PromoCodeActivationTotal.WithLabelValues(resultLabel(err)).Inc()
		}
	}()
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		lines, err := s.Store.ListLines(ctx, cartID)
		if err != nil {
			return common.InternalError(err)
		}
		if len(lines) == 0 {
			return common.ValidationError(common.CodeEmptyCart, "Cannot apply a promo code to an empty cart")
		}
		p, err := s.Promos.ResolveCode(ctx, code, s.now())
		if err != nil {
			return err
		}
		if err := s.Store.AddActivation(ctx, cartID, p.ID); err != nil {
			return common.InternalError(err)
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// DeactivateCode removes a previously applied promo code. The code is matched
// against the cart's own activations, so a code whose promotion has since
// expired can still be removed.
func (s *Service) DeactivateCode(ctx context.Context, cartID uuid.UUID, code string) (view *View, err error) {
	err = s.withCartLock(ctx, cartID, func(ctx context.Context) error {
		if _, err := s.getCart(ctx, cartID); err != nil {
			return err
		}
		activations, err := s.Store.ListActivations(ctx, cartID)
		if err != nil {
			return common.InternalError(err)
		}
		var target *Activation
		for i := range activations {
			if activations[i].Code == code {
				target = &activations[i]
				break
			}
		}
		if target == nil {
			return common.ValidationError(common.CodeInvalidPromoCode, "Promo code is not applied to this cart")
		}
		if _, err := s.Store.RemoveActivation(ctx, cartID, target.PromotionID); err != nil {
			return common.InternalError(err)
		}
		if err := s.Store.TouchCart(ctx, cartID); err != nil {
			return common.InternalError(err)
		}
		view, err = s.priced(ctx, cartID)
		return err
	})
	return view, err
}

// Pricing returns the priced cart without mutating it.
func (s *Service) Pricing(ctx context.Context, cartID uuid.UUID) (*View, error) {
	if _, err := s.getCart(ctx, cartID); err != nil {
		return nil, err
	}
	return s.priced(ctx, cartID)
}

func (s *Service) priced(ctx context.Context, cartID uuid.UUID) (*View, error) {
	now := s.now()
	lines, err := s.Store.ListLines(ctx, cartID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	activations, err := s.Store.ListActivations(ctx, cartID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	activated := make(map[int64]struct{}, len(activations))
	promoIDs := make([]int64, 0, len(activations))
	codes := make([]string, 0, len(activations))
	for _, a := range activations {
		activated[a.PromotionID] = struct{}{}
		promoIDs = append(promoIDs, a.PromotionID)
		codes = append(codes, a.Code)
	}
	sort.Slice(promoIDs, func(i, j int) bool { return promoIDs[i] < promoIDs[j] })

	pLines := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		item, err := s.Catalog.GetItem(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		candidates, err := s.Promos.CandidatesFor(ctx, item.ID, item.CategoryID, activated, now)
		if err != nil {
			return nil, err
		}
		pLines = append(pLines, pricing.Line{
			ItemID:     item.ID,
			ItemName:   item.Name,
			Quantity:   l.Quantity,
			Weight:     l.Weight,
			UnitPrice:  item.Price,
			Candidates: candidates,
		})
	}

	started := time.Now()
	quote := pricing.Compute(pLines)
	if obs.PricingComputeDuration != nil {
		obs.PricingComputeDuration.Observe(obs.DurationMillis(time.Since(started)))
	}
	if obs.PromotionAppliedTotal != nil {
		for _, lp := range quote.Lines {
			if lp.Promotion != nil && lp.Discount.IsPositive() {
				obs.PromotionAppliedTotal.WithLabelValues(string(lp.Promotion.Type)).Inc()
			}
		}
	}
	return viewOf(cartID, quote, promoIDs, codes), nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// requestedAmount validates the request against the item's sale unit and
// returns the amount as a decimal.
func requestedAmount(item catalog.Item, quantity *int64, weight *decimal.Decimal) (decimal.Decimal, error) {
	if item.SoldByQuantity() {
		if quantity == nil || weight != nil {
			return decimal.Zero, common.ValidationError(common.CodeUnitMismatch,
				fmt.Sprintf("%s is sold by quantity", item.Name))
		}
		if *quantity <= 0 {
			return decimal.Zero, common.ValidationError(common.CodeInvalidAmount, "Quantity must be greater than zero")
		}
		return decimal.NewFromInt(*quantity), nil
	}
	if weight == nil || quantity != nil {
		return decimal.Zero, common.ValidationError(common.CodeUnitMismatch,
			fmt.Sprintf("%s is sold by weight", item.Name))
	}
	if !weight.IsPositive() {
		return decimal.Zero, common.ValidationError(common.CodeInvalidAmount, "Weight must be greater than zero")
	}
	return *weight, nil
}

// checkStock validates a prospective cumulative amount after an add. The
// message tells the shopper how much of the item the cart already holds.
// A nil stock means the item is not stock-tracked.
func checkStock(item catalog.Item, inCart, wanted decimal.Decimal) error {
	stock, err := availableStock(item)
	if err != nil || stock == nil {
		return err
	}
	if wanted.GreaterThan(*stock) {
		if item.SoldByQuantity() {
			return common.ValidationError(common.CodeInsufficientStock,
				fmt.Sprintf("Only %s units of %s available in stock. You already have %s in your cart.",
					stock, item.Name, inCart))
		}
		return common.ValidationError(common.CodeInsufficientStock,
			fmt.Sprintf("Only %s g of %s available in stock. You already have %s g in your cart.",
				stock, item.Name, inCart))
	}
	return nil
}

// checkStockLevel validates an absolute amount on an update. The line is
// being replaced outright, so the message skips the already-in-cart part.
func checkStockLevel(item catalog.Item, wanted decimal.Decimal) error {
	stock, err := availableStock(item)
	if err != nil || stock == nil {
		return err
	}
	if wanted.GreaterThan(*stock) {
		unit := "units"
		if !item.SoldByQuantity() {
			unit = "g"
		}
		return common.ValidationError(common.CodeInsufficientStock,
			fmt.Sprintf("Only %s %s of %s available in stock", stock, unit, item.Name))
	}
	return nil
}

func availableStock(item catalog.Item) (*decimal.Decimal, error) {
	if item.StockQuantity == nil {
		return nil, nil
	}
	stock := *item.StockQuantity
	if !stock.IsPositive() {
		return nil, common.ValidationError(common.CodeOutOfStock,
			fmt.Sprintf("%s is out of stock", item.Name))
	}
	return &stock, nil
}

func setAmount(line *Line, item catalog.Item, amount decimal.Decimal) {
	q, w := splitAmount(item, amount)
	line.Quantity = q
	line.Weight = w
}

func splitAmount(item catalog.Item, amount decimal.Decimal) (*int64, *decimal.Decimal) {
	if item.SoldByQuantity() {
		q := amount.IntPart()
		return &q, nil
	}
	w := amount
	return nil, &w
}
