package repository

import (
	"context"

	"app/internal/domain/model"
)

type MenuItemRepository interface {
	FindByID(ctx context.Context, itemID int64) (model.MenuItem, error)
	ListByRestaurantID(ctx context.Context, restaurantID int64) ([]model.MenuItem, error)
}
