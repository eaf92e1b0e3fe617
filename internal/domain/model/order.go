package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCardGateway  PaymentMethod = "card_gateway"
)

// 対応している支払い方法かどうか
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCardGateway:
		return true
	}
	return false
}

// 注文。作成後の金額・明細は不変。
// 支払い状態の更新はReconcile経由の条件付きUPDATEのみ。
type Order struct {
	ID                  int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              int64         `gorm:"not null;index" json:"user_id"`
	RestaurantID        int64         `gorm:"not null;index" json:"restaurant_id"`
	Status              OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus       PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	PaymentMethod       PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	SubtotalMinor       int64         `gorm:"not null" json:"subtotal_minor"`
	DeliveryFeeMinor    int64         `gorm:"not null" json:"delivery_fee_minor"`
	TotalMinor          int64         `gorm:"not null" json:"total_minor"`
	DeliveryAddress     string        `gorm:"type:varchar(255);not null" json:"delivery_address"`
	Notes               string        `gorm:"type:varchar(500)" json:"notes"`
	EstimatedDeliveryAt time.Time     `gorm:"not null" json:"estimated_delivery_at"`

	// 決済の突き合わせキー（checkout試行ごとに一意）
	PaymentReference  string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"payment_reference"`
	TransactionID     *string    `gorm:"type:varchar(128)" json:"transaction_id,omitempty"`
	PaymentMethodType string     `gorm:"type:varchar(40)" json:"payment_method_type,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CancelReason      string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
