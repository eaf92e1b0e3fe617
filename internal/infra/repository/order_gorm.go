package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) FindByReference(ctx context.Context, reference string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 現状態が条件に合う行にだけ書く条件付きUPDATE。
// WHEREに現状態を含めた1文なので、同じreferenceへの同時配信でも後勝ちにならない。
func (r *OrderGormRepository) ApplyOutcomeIfPending(ctx context.Context, reference string, upd repo.PaymentUpdate) (bool, error) {
	values := map[string]interface{}{
		"payment_status":      upd.PaymentStatus,
		"status":              upd.OrderStatus,
		"payment_method_type": upd.PaymentMethodType,
		"cancel_reason":       upd.CancelReason,
	}
	if upd.TransactionID != "" {
		values["transaction_id"] = upd.TransactionID
	}
	if upd.PaidAt != nil {
		values["paid_at"] = upd.PaidAt
	}

	from := upd.FromStatuses
	if len(from) == 0 {
		from = []model.PaymentStatus{model.PaymentStatusPending}
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("payment_reference = ? AND payment_status IN ?", reference, from).
		Updates(values)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
