package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/cartstore"
	"app/internal/domain/model"
	"app/internal/pricing"
	repo "app/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 価格とレストランはメニューから引いてスナップショットする（クライアントの言い値は使わない）。
type CartUsecase struct {
	store    *cartstore.Store
	menuRepo repo.MenuItemRepository
	policy   pricing.FeePolicy
}

func NewCartUsecase(store *cartstore.Store, menuRepo repo.MenuItemRepository, policy pricing.FeePolicy) *CartUsecase {
	return &CartUsecase{
		store:    store,
		menuRepo: menuRepo,
		policy:   policy,
	}
}

type CartLineResponse struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int64  `json:"quantity"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

type CartResponse struct {
	Items            []CartLineResponse `json:"items"`
	TotalQuantity    int64              `json:"total_quantity"`
	SubtotalMinor    int64              `json:"subtotal_minor"`
	DeliveryFeeMinor int64              `json:"delivery_fee_minor"`
	TotalMinor       int64              `json:"total_minor"`
}

type AddItemInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID), nil
}

// AddItemはカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	//商品チェック（提供中のみ）
	item, err := u.menuRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !item.Available {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	line := model.CartLine{
		ProductID:      item.ID,
		Name:           item.Name,
		UnitPriceMinor: item.PriceMinor,
		Quantity:       in.Quantity,
		RestaurantID:   item.RestaurantID,
		AddedAt:        time.Now(),
	}

	if err := u.store.Add(ctx, userID, line); err != nil {
		if errors.Is(err, cartstore.ErrDifferentRestaurant) {
			return CartResponse{}, NewHTTPError(http.StatusConflict, "cart holds items from another restaurant")
		}
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	return u.buildCartResponse(ctx, userID), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.store.Remove(ctx, userID, productID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return u.buildCartResponse(ctx, userID), nil
}

func (u *CartUsecase) IncreaseItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.store.Increase(ctx, userID, productID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return u.buildCartResponse(ctx, userID), nil
}

// 数量-1。0になる場合は明細ごと消える。
func (u *CartUsecase) DecreaseItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.store.Decrease(ctx, userID, productID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return u.buildCartResponse(ctx, userID), nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u.store.Clear(ctx, userID)
	return u.buildCartResponse(ctx, userID), nil
}

// 合計は必ずpricing経由（checkoutと同じ計算）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) CartResponse {
	lines := u.store.Lines(ctx, userID)
	quote := pricing.BuildQuote(lines, u.policy)

	items := make([]CartLineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineResponse{
			ProductID:      l.ProductID,
			Name:           l.Name,
			UnitPriceMinor: l.UnitPriceMinor,
			Quantity:       l.Quantity,
			LineTotalMinor: l.UnitPriceMinor * l.Quantity,
		})
	}

	return CartResponse{
		Items:            items,
		TotalQuantity:    pricing.TotalQuantity(lines),
		SubtotalMinor:    quote.Subtotal,
		DeliveryFeeMinor: quote.DeliveryFee,
		TotalMinor:       quote.Total,
	}
}
