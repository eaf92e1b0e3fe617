package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartSnapshotGormRepository struct {
	db *gorm.DB
}

func NewCartSnapshotGormRepository(db *gorm.DB) repo.CartSnapshotRepository {
	return &CartSnapshotGormRepository{db: db}
}

func (r *CartSnapshotGormRepository) Load(ctx context.Context, userID int64) ([]byte, bool, error) {
	var snap model.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&snap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap.Payload, true, nil
}

func (r *CartSnapshotGormRepository) Save(ctx context.Context, userID int64, payload []byte) error {
	snap := model.CartSnapshot{
		UserID:  userID,
		Payload: payload,
	}

	//user_idで全量upsert
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&snap).Error
}
