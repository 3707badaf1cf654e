package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flexmart/promo-api/internal/catalog"
	"github.com/flexmart/promo-api/internal/common"
	"github.com/flexmart/promo-api/internal/promo"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int64) *int64 { return &n }

type stubStore struct {
	carts       map[uuid.UUID]*Cart
	lines       map[uuid.UUID][]Line
	activations map[uuid.UUID][]Activation
	nextLineID  int64
}

func newStubStore() *stubStore {
	return &stubStore{
		carts:       map[uuid.UUID]*Cart{},
		lines:       map[uuid.UUID][]Line{},
		activations: map[uuid.UUID][]Activation{},
	}
}

func (s *stubStore) CreateCart(context.Context) (*Cart, error) {
	c := &Cart{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.carts[c.ID] = c
	return c, nil
}

func (s *stubStore) GetCart(_ context.Context, id uuid.UUID) (*Cart, error) {
	c, ok := s.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return c, nil
}

func (s *stubStore) TouchCart(_ context.Context, id uuid.UUID) error {
	if _, ok := s.carts[id]; !ok {
		return ErrCartNotFound
	}
	return nil
}

func (s *stubStore) ListLines(_ context.Context, cartID uuid.UUID) ([]Line, error) {
	return append([]Line(nil), s.lines[cartID]...), nil
}

func (s *stubStore) GetLine(_ context.Context, cartID uuid.UUID, itemID int64) (*Line, error) {
	for _, l := range s.lines[cartID] {
		if l.ItemID == itemID {
			line := l
			return &line, nil
		}
	}
	return nil, ErrLineNotFound
}

func (s *stubStore) InsertLine(_ context.Context, line *Line) error {
	s.nextLineID++
	line.ID = s.nextLineID
	s.lines[line.CartID] = append(s.lines[line.CartID], *line)
	return nil
}

func (s *stubStore) UpdateLineAmount(_ context.Context, cartID uuid.UUID, itemID int64, quantity *int64, weight *decimal.Decimal) error {
	for i, l := range s.lines[cartID] {
		if l.ItemID == itemID {
			s.lines[cartID][i].Quantity = quantity
			s.lines[cartID][i].Weight = weight
			return nil
		}
	}
	return ErrLineNotFound
}

func (s *stubStore) DeleteLine(_ context.Context, cartID uuid.UUID, itemID int64) error {
	lines := s.lines[cartID]
	for i, l := range lines {
		if l.ItemID == itemID {
			s.lines[cartID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (s *stubStore) DeleteLines(_ context.Context, cartID uuid.UUID) error {
	delete(s.lines, cartID)
	return nil
}

func (s *stubStore) ListActivations(_ context.Context, cartID uuid.UUID) ([]Activation, error) {
	return append([]Activation(nil), s.activations[cartID]...), nil
}

func (s *stubStore) AddActivation(_ context.Context, cartID uuid.UUID, promotionID int64) error {
	for _, a := range s.activations[cartID] {
		if a.PromotionID == promotionID {
			return nil
		}
	}
	code := ""
	if p, ok := testPromotions[promotionID]; ok && p.PromoCode != nil {
		code = *p.PromoCode
	}
	s.activations[cartID] = append(s.activations[cartID], Activation{
		CartID: cartID, PromotionID: promotionID, Code: code, ActivatedAt: time.Now(),
	})
	return nil
}

func (s *stubStore) RemoveActivation(_ context.Context, cartID uuid.UUID, promotionID int64) (bool, error) {
	acts := s.activations[cartID]
	for i, a := range acts {
		if a.PromotionID == promotionID {
			s.activations[cartID] = append(acts[:i], acts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) DeleteActivations(_ context.Context, cartID uuid.UUID) error {
	delete(s.activations, cartID)
	return nil
}

type stubCatalog map[int64]catalog.Item

func (s stubCatalog) GetItem(_ context.Context, id int64) (catalog.Item, error) {
	item, ok := s[id]
	if !ok {
		return catalog.Item{}, common.NotFoundError(common.CodeItemNotFound, "Item not found")
	}
	return item, nil
}

type stubPromos struct {
	promotions []promo.Promotion
}

func (s *stubPromos) CandidatesFor(_ context.Context, itemID int64, categoryID *int64, activated map[int64]struct{}, now time.Time) ([]promo.Promotion, error) {
	var out []promo.Promotion
	for _, p := range s.promotions {
		if !p.ActiveAt(now) || !p.MatchesTarget(itemID, categoryID) {
			continue
		}
		if !p.Automatic() {
			if _, ok := activated[p.ID]; !ok {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubPromos) ResolveCode(_ context.Context, code string, now time.Time) (*promo.Promotion, error) {
	for i, p := range s.promotions {
		if p.PromoCode != nil && *p.PromoCode == code {
			if !p.ActiveAt(now) {
				return nil, common.ValidationError(common.CodeInvalidPromoCode, "Promo code is not currently active")
			}
			return &s.promotions[i], nil
		}
	}
	return nil, common.ValidationError(common.CodeInvalidPromoCode, "Invalid promo code")
}

var (
	coffeeCode = "COFFEE50"

	testItems = stubCatalog{
		1: {ID: 1, Name: "MacBook Pro", Price: dec("2000"), SaleUnit: catalog.SaleUnitQuantity, StockQuantity: decPtr("5")},
		2: {ID: 2, Name: "Dell XPS", Price: dec("1500"), SaleUnit: catalog.SaleUnitQuantity, StockQuantity: decPtr("0")},
		3: {ID: 3, Name: "Logitech Mouse", Price: dec("99.99"), SaleUnit: catalog.SaleUnitQuantity, StockQuantity: decPtr("100")},
		4: {ID: 4, Name: "Coffee Beans", Price: dec("0.05"), SaleUnit: catalog.SaleUnitWeight, StockQuantity: decPtr("5000")},
	}

	testPromotions = map[int64]promo.Promotion{
		1: {ID: 1, Name: "MacBook Flat", Type: promo.TypeFlatDiscount, Value: dec("200"),
			TargetType: promo.TargetItem, TargetID: 1,
			StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		4: {ID: 4, Name: "Coffee Half Off", Type: promo.TypeWeightThreshold, Value: dec("50"),
			TargetType: promo.TargetItem, TargetID: 4,
			StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Config:    promo.Config{ThresholdWeight: decPtr("200")},
			PromoCode: &coffeeCode},
	}
)

func newService() (*Service, *stubStore) {
	store := newStubStore()
	promos := &stubPromos{}
	for _, p := range testPromotions {
		promos.promotions = append(promos.promotions, p)
	}
	svc := &Service{
		Store:   store,
		Catalog: testItems,
		Promos:  promos,
		Now:     func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, store
}

func mustCart(t *testing.T, svc *Service) uuid.UUID {
	t.Helper()
	c, err := svc.Create(context.Background())
	require.NoError(t, err)
	return c.ID
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestAddItemMergesIntoOneLine(t *testing.T) {
	svc, store := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(2), nil)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, cartID, 1, intPtr(3), nil)
	require.NoError(t, err)

	require.Len(t, store.lines[cartID], 1)
	require.Len(t, view.Lines, 1)
	require.Equal(t, int64(5), *view.Lines[0].Quantity)
}

func TestAddItemCumulativeStockCheck(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, cartID, 1, intPtr(5), nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), *view.Lines[0].Quantity)

	// Six more would exceed the five in stock; the cart keeps its five.
	_, err = svc.AddItem(ctx, cartID, 1, intPtr(6), nil)
	require.Equal(t, common.CodeInsufficientStock, appCode(t, err))
	require.Contains(t, err.Error(), "Only 5 units of MacBook Pro available in stock. You already have 5 in your cart.")

	view, err = svc.Pricing(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t, int64(5), *view.Lines[0].Quantity)
}

func TestAddItemOutOfStock(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)

	_, err := svc.AddItem(context.Background(), cartID, 2, intPtr(1), nil)
	require.Equal(t, common.CodeOutOfStock, appCode(t, err))
	require.Contains(t, err.Error(), "Dell XPS is out of stock")
}

func TestAddItemUnitMismatch(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	// Weight for a quantity item.
	_, err := svc.AddItem(ctx, cartID, 1, nil, decPtr("100"))
	require.Equal(t, common.CodeUnitMismatch, appCode(t, err))

	// Quantity for a weight item.
	_, err = svc.AddItem(ctx, cartID, 4, intPtr(1), nil)
	require.Equal(t, common.CodeUnitMismatch, appCode(t, err))
}

func TestAddItemRejectsNonPositiveAmounts(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(0), nil)
	require.Equal(t, common.CodeInvalidAmount, appCode(t, err))

	_, err = svc.AddItem(ctx, cartID, 4, nil, decPtr("-1"))
	require.Equal(t, common.CodeInvalidAmount, appCode(t, err))
}

func TestAddItemUnknownCart(t *testing.T) {
	svc, _ := newService()
	_, err := svc.AddItem(context.Background(), uuid.New(), 1, intPtr(1), nil)
	require.Equal(t, common.CodeCartNotFound, appCode(t, err))
}

func TestUpdateItemReplacesAmount(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(4), nil)
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, cartID, 1, intPtr(2), nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), *view.Lines[0].Quantity)
}

func TestUpdateItemExceedingStock(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(2), nil)
	require.NoError(t, err)

	// The update replaces the line, so the message states the stock limit
	// without referring to the current cart contents.
	_, err = svc.UpdateItem(ctx, cartID, 1, intPtr(9), nil)
	require.Equal(t, common.CodeInsufficientStock, appCode(t, err))
	require.Contains(t, err.Error(), "Only 5 units of MacBook Pro available in stock")
	require.NotContains(t, err.Error(), "You already have")
}

func TestUpdateItemNotInCart(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)

	_, err := svc.UpdateItem(context.Background(), cartID, 1, intPtr(1), nil)
	require.Equal(t, common.CodeItemNotInCart, appCode(t, err))
}

func TestRemoveItem(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(1), nil)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, cartID, 1)
	require.NoError(t, err)
	require.Empty(t, view.Lines)

	_, err = svc.RemoveItem(ctx, cartID, 1)
	require.Equal(t, common.CodeItemNotInCart, appCode(t, err))
}

func TestAutomaticPromotionApplied(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)

	view, err := svc.AddItem(context.Background(), cartID, 1, intPtr(1), nil)
	require.NoError(t, err)

	require.InDelta(t, 2000.0, view.Subtotal, 1e-9)
	require.InDelta(t, 200.0, view.TotalDiscount, 1e-9)
	require.InDelta(t, 1800.0, view.Total, 1e-9)
	require.NotNil(t, view.Lines[0].AppliedPromotion)
	require.Equal(t, int64(1), view.Lines[0].AppliedPromotion.ID)
}

func TestPromoCodeGatesDiscount(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	// 250g of coffee at 0.05/g is 12.50 with no discount before the code.
	view, err := svc.AddItem(ctx, cartID, 4, nil, decPtr("250"))
	require.NoError(t, err)
	require.InDelta(t, 12.50, view.Total, 1e-9)
	require.Nil(t, view.Lines[0].AppliedPromotion)

	view, err = svc.ActivateCode(ctx, cartID, "COFFEE50")
	require.NoError(t, err)
	require.InDelta(t, 6.25, view.TotalDiscount, 1e-9)
	require.InDelta(t, 6.25, view.Total, 1e-9)
	require.Equal(t, []string{"COFFEE50"}, view.AppliedCodes)
	require.Equal(t, []int64{4}, view.ActivePromotionIDs)

	view, err = svc.DeactivateCode(ctx, cartID, "COFFEE50")
	require.NoError(t, err)
	require.InDelta(t, 12.50, view.Total, 1e-9)
	require.Empty(t, view.AppliedCodes)
}

func TestActivateCodeOnEmptyCart(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)

	_, err := svc.ActivateCode(context.Background(), cartID, "COFFEE50")
	require.Equal(t, common.CodeEmptyCart, appCode(t, err))
}

func TestActivateCodeIdempotent(t *testing.T) {
	svc, store := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 4, nil, decPtr("250"))
	require.NoError(t, err)

	_, err = svc.ActivateCode(ctx, cartID, "COFFEE50")
	require.NoError(t, err)
	view, err := svc.ActivateCode(ctx, cartID, "COFFEE50")
	require.NoError(t, err)

	require.Len(t, store.activations[cartID], 1)
	require.InDelta(t, 6.25, view.Total, 1e-9)
}

func TestActivateUnknownCode(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(1), nil)
	require.NoError(t, err)

	_, err = svc.ActivateCode(ctx, cartID, "NOPE")
	require.Equal(t, common.CodeInvalidPromoCode, appCode(t, err))
}

func TestDeactivateCodeNotApplied(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)

	_, err := svc.DeactivateCode(context.Background(), cartID, "COFFEE50")
	require.Equal(t, common.CodeInvalidPromoCode, appCode(t, err))
}

func TestClearRemovesLinesAndActivations(t *testing.T) {
	svc, store := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 4, nil, decPtr("250"))
	require.NoError(t, err)
	_, err = svc.ActivateCode(ctx, cartID, "COFFEE50")
	require.NoError(t, err)

	view, err := svc.Clear(ctx, cartID)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	require.Empty(t, view.AppliedCodes)
	require.InDelta(t, 0.0, view.Total, 1e-9)
	require.Empty(t, store.lines[cartID])
	require.Empty(t, store.activations[cartID])
}

func TestPricingIsRepeatable(t *testing.T) {
	svc, _ := newService()
	cartID := mustCart(t, svc)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, 1, intPtr(2), nil)
	require.NoError(t, err)

	first, err := svc.Pricing(ctx, cartID)
	require.NoError(t, err)
	second, err := svc.Pricing(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t, first.Total, second.Total)
	require.Equal(t, first.TotalDiscount, second.TotalDiscount)
}
