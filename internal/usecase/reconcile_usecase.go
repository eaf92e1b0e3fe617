package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/payment"
	repo "app/internal/repository"

	log "github.com/sirupsen/logrus"
)

// 結果の適用がどう処理されたか
type ApplyResult string

const (
	//今回の配信で状態が変わった
	OutcomeApplied ApplyResult = "APPLIED"
	//対象の注文は既に確定済み。重複・遅延配信なので捨てた
	OutcomeStale ApplyResult = "STALE"
	//referenceに対応する注文が無い
	OutcomeUnknownReference ApplyResult = "UNKNOWN_REFERENCE"
	//プロバイダがまだPENDING等、遷移なし
	OutcomeNoChange ApplyResult = "NO_CHANGE"
)

// 取引照会。実装はpayment.Gateway。
type StatusQuerier interface {
	QueryStatus(ctx context.Context, transactionID string) (payment.TransactionStatus, error)
}

// ReconcileUsecase はプロバイダの結果を注文へ反映する状態機械。
// 遷移はPENDING→{PAID,FAILED,REFUNDED}と、返金のPAID→REFUNDEDのみ。
// それ以外の確定後の行は何が来ても動かさない。
type ReconcileUsecase struct {
	orders  repo.OrderRepository
	gateway StatusQuerier
}

func NewReconcileUsecase(orders repo.OrderRepository, gateway StatusQuerier) *ReconcileUsecase {
	return &ReconcileUsecase{orders: orders, gateway: gateway}
}

// ApplyOutcomeは結果を1件反映する。webhookと手動照会の両方がここを通る。
// 同じreferenceへの同じ結果の再配信は2回目以降no-op（冪等）。
func (u *ReconcileUsecase) ApplyOutcome(ctx context.Context, out payment.Outcome) (ApplyResult, error) {
	upd, terminal := buildUpdate(out)
	if !terminal {
		log.WithFields(log.Fields{
			"reference": out.Reference,
			"status":    out.Status,
		}).Info("non-terminal outcome, order unchanged")
		return OutcomeNoChange, nil
	}

	//「読んで・判断して・書く」をDB側の条件付きUPDATE1文にまとめる。
	//並行配信があっても先に確定した方が勝つ。
	applied, err := u.orders.ApplyOutcomeIfPending(ctx, out.Reference, upd)
	if err != nil {
		return "", err
	}

	if applied {
		log.WithFields(log.Fields{
			"reference":      out.Reference,
			"status":         out.Status,
			"transaction_id": out.TransactionID,
		}).Info("payment outcome applied")
		return OutcomeApplied, nil
	}

	//更新0件：注文が無いのか、既に確定済みなのかを切り分ける
	o, err := u.orders.FindByReference(ctx, out.Reference)
	if errors.Is(err, repo.ErrNotFound) {
		//運用で追えるように記録してackする（プロバイダに再送させ続けない）
		log.WithFields(log.Fields{
			"reference":      out.Reference,
			"status":         out.Status,
			"transaction_id": out.TransactionID,
		}).Warn("outcome for unknown reference")
		return OutcomeUnknownReference, nil
	}
	if err != nil {
		return "", err
	}

	//遅延・重複分は黙って落とさずログに残して捨てる
	log.WithFields(log.Fields{
		"reference":      out.Reference,
		"incoming":       out.Status,
		"payment_status": o.PaymentStatus,
	}).Warn("stale outcome discarded, order already settled")
	return OutcomeStale, nil
}

type PaymentSyncOutput struct {
	OrderID        int64  `json:"order_id"`
	OrderStatus    string `json:"order_status"`
	PaymentStatus  string `json:"payment_status"`
	ProviderStatus string `json:"provider_status"`
	TransactionID  string `json:"transaction_id"`
	Result         string `json:"result"`
}

// SyncFromProviderはwebhookが来ないときのフォールバック照会。
// 照会に失敗しても注文は触らない（応答が無い＝失敗ではない）。
func (u *ReconcileUsecase) SyncFromProvider(ctx context.Context, userID int64, orderID int64, transactionID string) (PaymentSyncOutput, error) {
	if userID <= 0 {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	//照会に使うtransaction id。リクエストで補完できる（redirect戻りでidだけ知っている場合）。
	txID := transactionID
	if txID == "" && o.TransactionID != nil {
		txID = *o.TransactionID
	}
	if txID == "" {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusConflict, "no transaction to sync")
	}

	ts, err := u.gateway.QueryStatus(ctx, txID)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusNotFound, "transaction not found")
	}
	if err != nil {
		//到達できないだけ。注文はPENDINGのまま、後で再試行してもらう。
		return PaymentSyncOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment provider unavailable")
	}

	//別注文のtransactionを食わせられても反映しない
	if ts.Reference != o.PaymentReference {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusConflict, "reference mismatch")
	}

	result, err := u.ApplyOutcome(ctx, payment.Outcome{
		TransactionID:     ts.ID,
		Status:            ts.Status,
		Reference:         ts.Reference,
		AmountInCents:     ts.AmountInCents,
		PaymentMethodType: ts.PaymentMethodType,
		SentAt:            time.Now(),
	})
	if err != nil {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	refreshed, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return PaymentSyncOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PaymentSyncOutput{
		OrderID:        refreshed.ID,
		OrderStatus:    string(refreshed.Status),
		PaymentStatus:  string(refreshed.PaymentStatus),
		ProviderStatus: ts.Status,
		TransactionID:  txID,
		Result:         string(result),
	}, nil
}

// プロバイダのステータスを注文側の遷移に写す。
// terminal=falseは遷移なし（PENDINGや未知の値）。
func buildUpdate(out payment.Outcome) (repo.PaymentUpdate, bool) {
	switch out.Status {
	case payment.StatusApproved:
		paidAt := out.SentAt
		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		return repo.PaymentUpdate{
			PaymentStatus:     model.PaymentStatusPaid,
			OrderStatus:       model.OrderStatusConfirmed,
			TransactionID:     out.TransactionID,
			PaymentMethodType: out.PaymentMethodType,
			PaidAt:            &paidAt,
		}, true

	case payment.StatusDeclined:
		return repo.PaymentUpdate{
			PaymentStatus:     model.PaymentStatusFailed,
			OrderStatus:       model.OrderStatusCancelled,
			TransactionID:     out.TransactionID,
			PaymentMethodType: out.PaymentMethodType,
			CancelReason:      "payment declined by provider",
		}, true

	case payment.StatusVoided:
		//返金だけはPAID確定後にも適用できる（PAID→REFUNDED）
		return repo.PaymentUpdate{
			PaymentStatus:     model.PaymentStatusRefunded,
			OrderStatus:       model.OrderStatusCancelled,
			TransactionID:     out.TransactionID,
			PaymentMethodType: out.PaymentMethodType,
			CancelReason:      "payment voided",
			FromStatuses:      []model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusPaid},
		}, true

	case payment.StatusError:
		return repo.PaymentUpdate{
			PaymentStatus:     model.PaymentStatusFailed,
			OrderStatus:       model.OrderStatusCancelled,
			TransactionID:     out.TransactionID,
			PaymentMethodType: out.PaymentMethodType,
			CancelReason:      "payment errored at provider",
		}, true
	}

	return repo.PaymentUpdate{}, false
}
