package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/cartstore"
	"app/internal/domain/model"
	"app/internal/pricing"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartFixture(t *testing.T) (*usecase.CartUsecase, *MenuRepoMock) {
	t.Helper()

	menu := new(MenuRepoMock)
	store := cartstore.New(noopSnapshotRepo{})
	t.Cleanup(store.Close)

	uc := usecase.NewCartUsecase(store, menu, pricing.FeePolicy{FreeThreshold: 30000, Fee: 3000})
	return uc, menu
}

func TestCart_AddItem_UnknownProduct(t *testing.T) {
	uc, menu := newCartFixture(t)

	menu.On("FindByID", mock.Anything, int64(99)).Return(model.MenuItem{}, repo.ErrNotFound)

	_, err := uc.AddItem(context.Background(), 7, usecase.AddItemInput{ProductID: 99, Quantity: 1})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid product")
}

func TestCart_AddItem_UnavailableProduct(t *testing.T) {
	uc, menu := newCartFixture(t)

	menu.On("FindByID", mock.Anything, int64(1)).Return(model.MenuItem{
		ID: 1, RestaurantID: 3, Name: "Bandeja", PriceMinor: 12000, Available: false,
	}, nil)

	_, err := uc.AddItem(context.Background(), 7, usecase.AddItemInput{ProductID: 1, Quantity: 1})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid product")
}

// 価格はメニューのスナップショット。同一商品は数量加算。
func TestCart_AddItem_SnapshotsPriceAndMerges(t *testing.T) {
	ctx := context.Background()
	uc, menu := newCartFixture(t)

	menu.On("FindByID", mock.Anything, int64(1)).Return(model.MenuItem{
		ID: 1, RestaurantID: 3, Name: "Bandeja", PriceMinor: 12000, Available: true,
	}, nil)

	out, err := uc.AddItem(ctx, 7, usecase.AddItemInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)

	out, err = uc.AddItem(ctx, 7, usecase.AddItemInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(3), out.Items[0].Quantity)
	assert.Equal(t, int64(12000), out.Items[0].UnitPriceMinor)
	assert.Equal(t, int64(36000), out.Items[0].LineTotalMinor)

	//閾値30000以上なので配送料0
	assert.Equal(t, int64(36000), out.SubtotalMinor)
	assert.Equal(t, int64(0), out.DeliveryFeeMinor)
	assert.Equal(t, int64(36000), out.TotalMinor)
}

func TestCart_AddItem_DifferentRestaurantConflict(t *testing.T) {
	ctx := context.Background()
	uc, menu := newCartFixture(t)

	menu.On("FindByID", mock.Anything, int64(1)).Return(model.MenuItem{
		ID: 1, RestaurantID: 3, Name: "Bandeja", PriceMinor: 12000, Available: true,
	}, nil)
	menu.On("FindByID", mock.Anything, int64(2)).Return(model.MenuItem{
		ID: 2, RestaurantID: 4, Name: "Sushi", PriceMinor: 20000, Available: true,
	}, nil)

	_, err := uc.AddItem(ctx, 7, usecase.AddItemInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)

	_, err = uc.AddItem(ctx, 7, usecase.AddItemInput{ProductID: 2, Quantity: 1})
	assertHTTPError(t, err, http.StatusConflict, "another restaurant")
}

func TestCart_DecreaseToZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	uc, menu := newCartFixture(t)

	menu.On("FindByID", mock.Anything, int64(1)).Return(model.MenuItem{
		ID: 1, RestaurantID: 3, Name: "Bandeja", PriceMinor: 12000, Available: true,
	}, nil)

	_, err := uc.AddItem(ctx, 7, usecase.AddItemInput{ProductID: 1, Quantity: 1})
	assert.NoError(t, err)

	out, err := uc.DecreaseItem(ctx, 7, 1)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 0)

	//消えた明細への操作は404
	_, err = uc.DecreaseItem(ctx, 7, 1)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestCart_RemoveMissingLine(t *testing.T) {
	uc, _ := newCartFixture(t)

	_, err := uc.RemoveItem(context.Background(), 7, 99)
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestCart_GetCart_EmptyTotals(t *testing.T) {
	uc, _ := newCartFixture(t)

	out, err := uc.GetCart(context.Background(), 7)
	assert.NoError(t, err)
	assert.Len(t, out.Items, 0)
	assert.Equal(t, int64(0), out.SubtotalMinor)
}
