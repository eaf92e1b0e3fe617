package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// メニューの公開API。
type MenuUsecase struct {
	menuRepo repo.MenuItemRepository
}

func NewMenuUsecase(menuRepo repo.MenuItemRepository) *MenuUsecase {
	return &MenuUsecase{menuRepo: menuRepo}
}

type MenuListOutput struct {
	Items []model.MenuItem `json:"items"`
}

func (u *MenuUsecase) ListByRestaurant(ctx context.Context, restaurantID int64) (MenuListOutput, error) {
	if restaurantID <= 0 {
		return MenuListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	items, err := u.menuRepo.ListByRestaurantID(ctx, restaurantID)
	if err != nil {
		return MenuListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return MenuListOutput{Items: items}, nil
}
