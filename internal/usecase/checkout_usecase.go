package usecase

import (
	"context"
	"net/http"
	"sync"
	"time"

	"app/internal/cartstore"
	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/pricing"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// 確認トークンの有効期限
const confirmationTTL = 5 * time.Minute

// 配達見込み（確定時刻からの固定オフセット）
const deliveryEstimate = 35 * time.Minute

// checkoutの入力検証。実装はvalidatorパッケージ。
type CheckoutValidator interface {
	ValidateSelections(address string, method model.PaymentMethod, notes string) error
}

// 決済プロバイダへのリクエスト組み立て。実装はpaymentパッケージ。
type CheckoutGateway interface {
	NewReference() string
	BuildCheckout(reference string, totalMinor int64, cust payment.Customer) payment.Checkout
}

// CheckoutUsecase はカートから注文を起こすまでの2段階プロトコルを持つ。
// RequestCheckoutで検証してトークンを返し、ConfirmCheckoutで実際に注文を作る。
type CheckoutUsecase struct {
	store     *cartstore.Store
	tx        repo.TransactionManager
	users     repo.UserRepository
	gateway   CheckoutGateway
	validator CheckoutValidator
	policy    pricing.FeePolicy

	mu       sync.Mutex
	intents  map[string]checkoutIntent
	inflight map[int64]bool
}

// トークンに紐づく確定待ちのスナップショット。
// 注文はこのスナップショットから作る（確認後のカート変更は次の注文）。
type checkoutIntent struct {
	userID    int64
	lines     []model.CartLine
	quote     pricing.Quote
	address   string
	method    model.PaymentMethod
	notes     string
	expiresAt time.Time
}

func NewCheckoutUsecase(
	store *cartstore.Store,
	tx repo.TransactionManager,
	users repo.UserRepository,
	gateway CheckoutGateway,
	validator CheckoutValidator,
	policy pricing.FeePolicy,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		store:     store,
		tx:        tx,
		users:     users,
		gateway:   gateway,
		validator: validator,
		policy:    policy,
		intents:   make(map[string]checkoutIntent),
		inflight:  make(map[int64]bool),
	}
}

type CheckoutInput struct {
	DeliveryAddress string
	PaymentMethod   model.PaymentMethod
	Notes           string

	// クライアント側で表示していた合計（任意）。サーバー再計算と食い違えば拒否。
	ClientTotalMinor *int64
}

type CheckoutIntentResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Quote     pricing.Quote `json:"quote"`
}

type CheckoutResponse struct {
	Order       OrderOutput `json:"order"`
	Reference   string      `json:"reference"`
	RedirectURL string      `json:"redirect_url,omitempty"`
}

// RequestCheckoutは前提条件を検証してスナップショットを凍結し、確認トークンを返す。
// ここでは何も送信しない（部分的な注文は作らない）。
func (u *CheckoutUsecase) RequestCheckout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutIntentResponse, error) {
	if userID <= 0 {
		return CheckoutIntentResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//最初に満たせなかった前提条件をそのまま返す
	if err := u.validator.ValidateSelections(in.DeliveryAddress, in.PaymentMethod, in.Notes); err != nil {
		return CheckoutIntentResponse{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines := u.store.Lines(ctx, userID)
	if len(lines) == 0 {
		return CheckoutIntentResponse{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	//1カート1レストラン（storeが守っているが、注文の前提なのでここでも確認）
	for _, l := range lines {
		if l.RestaurantID != lines[0].RestaurantID {
			return CheckoutIntentResponse{}, NewHTTPError(http.StatusBadRequest, "cart holds items from multiple restaurants")
		}
	}

	quote := pricing.BuildQuote(lines, u.policy)

	//クライアント表示額とサーバー再計算が一致しない注文は受けない
	if in.ClientTotalMinor != nil && *in.ClientTotalMinor != quote.Total {
		return CheckoutIntentResponse{}, NewHTTPError(http.StatusBadRequest, "total mismatch")
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(confirmationTTL)

	u.mu.Lock()
	//有効なトークンはユーザーごとに最新の1つだけ。
	//古いトークンを残すと同じカートのスナップショットから注文が2件作れてしまう。
	//ついでに期限切れの放置分も掃除する。
	now := time.Now()
	for tok, it := range u.intents {
		if it.userID == userID || now.After(it.expiresAt) {
			delete(u.intents, tok)
		}
	}
	u.intents[token] = checkoutIntent{
		userID:    userID,
		lines:     lines,
		quote:     quote,
		address:   in.DeliveryAddress,
		method:    in.PaymentMethod,
		notes:     in.Notes,
		expiresAt: expiresAt,
	}
	u.mu.Unlock()

	return CheckoutIntentResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Quote:     quote,
	}, nil
}

// ConfirmCheckoutはトークンのスナップショットから注文を作り、カード決済ならredirect URLを返す。
// 注文がDBに入った時点でカートを空にする（支払い完了を待たない）。
func (u *CheckoutUsecase) ConfirmCheckout(ctx context.Context, userID int64, token string) (CheckoutResponse, error) {
	if userID <= 0 {
		return CheckoutResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	u.mu.Lock()
	intent, ok := u.intents[token]
	if !ok || intent.userID != userID {
		u.mu.Unlock()
		return CheckoutResponse{}, NewHTTPError(http.StatusNotFound, "confirmation not found")
	}
	//トークンは一度しか使えない
	delete(u.intents, token)

	if time.Now().After(intent.expiresAt) {
		u.mu.Unlock()
		return CheckoutResponse{}, NewHTTPError(http.StatusBadRequest, "confirmation expired")
	}

	//同一ユーザーのcheckoutは同時に1件まで。2件目は割り込ませない。
	if u.inflight[userID] {
		u.mu.Unlock()
		return CheckoutResponse{}, NewHTTPError(http.StatusConflict, "checkout already in progress")
	}
	u.inflight[userID] = true
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		delete(u.inflight, userID)
		u.mu.Unlock()
	}()

	//checkout試行ごとに新しいreference
	reference := u.gateway.NewReference()

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return CheckoutResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return CheckoutResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()

	//現金・振込は配達時精算なので注文は即CONFIRMED。決済はPENDINGのまま。
	orderStatus := model.OrderStatusPending
	if intent.method != model.PaymentMethodCardGateway {
		orderStatus = model.OrderStatusConfirmed
	}

	order := model.Order{
		UserID:              userID,
		RestaurantID:        intent.lines[0].RestaurantID,
		Status:              orderStatus,
		PaymentStatus:       model.PaymentStatusPending,
		PaymentMethod:       intent.method,
		SubtotalMinor:       intent.quote.Subtotal,
		DeliveryFeeMinor:    intent.quote.DeliveryFee,
		TotalMinor:          intent.quote.Total,
		DeliveryAddress:     intent.address,
		Notes:               intent.notes,
		EstimatedDeliveryAt: now.Add(deliveryEstimate),
		PaymentReference:    reference,
	}

	items := make([]model.OrderItem, 0, len(intent.lines))
	for _, l := range intent.lines {
		items = append(items, model.OrderItem{
			ProductID:           l.ProductID,
			ProductNameSnapshot: l.Name,
			UnitPriceMinor:      l.UnitPriceMinor,
			Quantity:            l.Quantity,
			LineTotalMinor:      l.UnitPriceMinor * l.Quantity,
			CreatedAt:           now,
		})
	}

	var orderID int64

	//注文と明細は1トランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, id, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		orderID = id
		return nil
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	//注文が受理されたのでカートを空にし、このカートから出た残りのトークンも無効化する
	u.store.Clear(ctx, userID)

	u.mu.Lock()
	for tok, it := range u.intents {
		if it.userID == userID {
			delete(u.intents, tok)
		}
	}
	u.mu.Unlock()

	order.ID = orderID
	out := CheckoutResponse{
		Order:     toOrderOutput(order, items),
		Reference: reference,
	}

	if intent.method == model.PaymentMethodCardGateway {
		checkout := u.gateway.BuildCheckout(reference, intent.quote.Total, payment.Customer{
			Email:    user.Email,
			FullName: user.FullName,
			Phone:    user.Phone,
		})
		out.RedirectURL = checkout.RedirectURL
	}

	return out, nil
}
