package payment

import "time"

// プロバイダが報告する取引ステータスの語彙。
// webhookと手動照会で同じ値が来る。
const (
	StatusApproved = "APPROVED"
	StatusPending  = "PENDING"
	StatusDeclined = "DECLINED"
	StatusVoided   = "VOIDED"
	StatusError    = "ERROR"
)

// プロバイダ側の取引1件。
type TransactionStatus struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	AmountInCents     int64  `json:"amount_in_cents"`
	PaymentMethodType string `json:"payment_method_type"`
}

// 注文へ反映する決済結果。webhookまたは照会から作る。
type Outcome struct {
	TransactionID     string
	Status            string
	Reference         string
	AmountInCents     int64
	PaymentMethodType string
	SentAt            time.Time
}
