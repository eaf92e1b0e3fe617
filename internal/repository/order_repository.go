package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// プロバイダの結果を注文へ反映するときの更新内容。
type PaymentUpdate struct {
	PaymentStatus     model.PaymentStatus
	OrderStatus       model.OrderStatus
	TransactionID     string
	PaymentMethodType string
	PaidAt            *time.Time
	CancelReason      string

	// この状態の行にだけ書く（CASの条件）。空ならPENDINGのみ。
	// 返金（VOIDED）だけはPAID確定後にも適用できる。
	FromStatuses []model.PaymentStatus
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// referenceの完全一致で1件取得（分割パースはしない）
	FindByReference(ctx context.Context, reference string) (model.Order, error)

	// payment_statusがまだupd.FromStatuses（既定はPENDING）の行だけを条件付きで更新する。
	// 更新できたらtrue。0件なら（存在しない or 既に確定済みで）false。
	// read-then-writeの競合をDB側の1文で潰すための入口。
	ApplyOutcomeIfPending(ctx context.Context, reference string, upd PaymentUpdate) (bool, error)
}
