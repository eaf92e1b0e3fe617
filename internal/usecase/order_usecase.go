package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type OrderItemOutput struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int64  `json:"quantity"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

type OrderOutput struct {
	ID                  int64             `json:"id"`
	Status              string            `json:"status"`
	PaymentStatus       string            `json:"payment_status"`
	PaymentMethod       string            `json:"payment_method"`
	SubtotalMinor       int64             `json:"subtotal_minor"`
	DeliveryFeeMinor    int64             `json:"delivery_fee_minor"`
	TotalMinor          int64             `json:"total_minor"`
	DeliveryAddress     string            `json:"delivery_address"`
	Notes               string            `json:"notes,omitempty"`
	EstimatedDeliveryAt time.Time         `json:"estimated_delivery_at"`
	Reference           string            `json:"reference"`
	TransactionID       string            `json:"transaction_id,omitempty"`
	PaidAt              *time.Time        `json:"paid_at,omitempty"`
	CancelReason        string            `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	Items               []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:      it.ProductID,
			Name:           it.ProductNameSnapshot,
			UnitPriceMinor: it.UnitPriceMinor,
			Quantity:       it.Quantity,
			LineTotalMinor: it.LineTotalMinor,
		})
	}

	txID := ""
	if o.TransactionID != nil {
		txID = *o.TransactionID
	}

	return OrderOutput{
		ID:                  o.ID,
		Status:              string(o.Status),
		PaymentStatus:       string(o.PaymentStatus),
		PaymentMethod:       string(o.PaymentMethod),
		SubtotalMinor:       o.SubtotalMinor,
		DeliveryFeeMinor:    o.DeliveryFeeMinor,
		TotalMinor:          o.TotalMinor,
		DeliveryAddress:     o.DeliveryAddress,
		Notes:               o.Notes,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		Reference:           o.PaymentReference,
		TransactionID:       txID,
		PaidAt:              o.PaidAt,
		CancelReason:        o.CancelReason,
		CreatedAt:           o.CreatedAt,
		Items:               outItems,
	}
}
