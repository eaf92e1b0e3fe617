package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/payment"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) FindByReference(ctx context.Context, reference string) (model.Order, error) {
	args := m.Called(ctx, reference)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ApplyOutcomeIfPending(ctx context.Context, reference string, upd repo.PaymentUpdate) (bool, error) {
	args := m.Called(ctx, reference, upd)
	return args.Bool(0), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type MenuRepoMock struct{ mock.Mock }

func (m *MenuRepoMock) FindByID(ctx context.Context, itemID int64) (model.MenuItem, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(model.MenuItem)
	return item, args.Error(1)
}

func (m *MenuRepoMock) ListByRestaurantID(ctx context.Context, restaurantID int64) ([]model.MenuItem, error) {
	args := m.Called(ctx, restaurantID)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type StatusQuerierMock struct{ mock.Mock }

func (m *StatusQuerierMock) QueryStatus(ctx context.Context, transactionID string) (payment.TransactionStatus, error) {
	args := m.Called(ctx, transactionID)
	ts, _ := args.Get(0).(payment.TransactionStatus)
	return ts, args.Error(1)
}

// モックをそのまま通すTransactionManager（commit/rollbackは無し）
type stubTxRepos struct {
	orders *OrderRepoMock
	items  *OrderItemRepoMock
	menu   *MenuRepoMock
}

func (r stubTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r stubTxRepos) OrderItems() repo.OrderItemRepository { return r.items }
func (r stubTxRepos) MenuItems() repo.MenuItemRepository   { return r.menu }

type stubTxManager struct {
	repos stubTxRepos
}

func (m *stubTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// スナップショット保存を何もしない（cartstore用）
type noopSnapshotRepo struct{}

func (noopSnapshotRepo) Load(ctx context.Context, userID int64) ([]byte, bool, error) {
	return nil, false, nil
}
func (noopSnapshotRepo) Save(ctx context.Context, userID int64, payload []byte) error {
	return nil
}

// 固定referenceを返すCheckoutGateway
type stubGateway struct {
	reference string
}

func (g *stubGateway) NewReference() string { return g.reference }

func (g *stubGateway) BuildCheckout(reference string, totalMinor int64, cust payment.Customer) payment.Checkout {
	return payment.Checkout{
		RedirectURL: "https://checkout.example.com/?reference=" + reference,
		Reference:   reference,
	}
}

// =====================
// Helpers
// =====================

func assertHTTPError(t *testing.T, err error, status int, contains string) {
	t.Helper()
	assert.Error(t, err)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
	assert.Contains(t, he.Message, contains)
}
