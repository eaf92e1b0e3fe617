package handler

import (
	"context"
	"net/http"
	"time"

	"app/internal/payment"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// webhook本体は薄く保ち、判断はReconcileUsecaseへ寄せる。
type OutcomeApplier interface {
	ApplyOutcome(ctx context.Context, out payment.Outcome) (usecase.ApplyResult, error)
}

// プロバイダからの非同期通知を受けるエンドポイント。
// 認証ヘッダは無い（送信元はreference+署名済み取引でしか特定できない）。
type WebhookHandler struct {
	applier OutcomeApplier
}

func NewWebhookHandler(applier OutcomeApplier) *WebhookHandler {
	return &WebhookHandler{applier: applier}
}

// Wompiのイベントペイロード
type webhookTransaction struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	AmountInCents     int64  `json:"amount_in_cents"`
	PaymentMethodType string `json:"payment_method_type"`
}

type webhookData struct {
	Transaction webhookTransaction `json:"transaction"`
}

type WebhookRequest struct {
	Event  string      `json:"event"`
	Data   webhookData `json:"data"`
	SentAt time.Time   `json:"sent_at"`
}

type WebhookResponse struct {
	Result string `json:"result"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payments/webhook", h.receive)
}

// ackを返せないとプロバイダが再送し続けるので、処理できた通知は
// 中身がunknown/staleでも200で受ける。500は再送してほしい失敗だけ。
func (h *WebhookHandler) receive(c echo.Context) error {
	var req WebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//対象外イベントはそのままack
	if req.Event != "transaction.updated" {
		return c.JSON(http.StatusOK, WebhookResponse{Result: "IGNORED"})
	}

	tx := req.Data.Transaction

	//referenceが無い通知は反映しようがない。再送されても直らないのでackして記録だけ残す。
	if tx.Reference == "" || tx.Status == "" {
		log.WithFields(log.Fields{
			"event":          req.Event,
			"transaction_id": tx.ID,
		}).Warn("malformed webhook payload, acknowledged without applying")
		return c.JSON(http.StatusOK, WebhookResponse{Result: "MALFORMED"})
	}

	result, err := h.applier.ApplyOutcome(c.Request().Context(), payment.Outcome{
		TransactionID:     tx.ID,
		Status:            tx.Status,
		Reference:         tx.Reference,
		AmountInCents:     tx.AmountInCents,
		PaymentMethodType: tx.PaymentMethodType,
		SentAt:            req.SentAt,
	})
	if err != nil {
		//DB障害など。500で返してプロバイダに再送させる。
		log.WithFields(log.Fields{
			"reference": tx.Reference,
		}).WithError(err).Error("webhook apply failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, WebhookResponse{Result: string(result)})
}
