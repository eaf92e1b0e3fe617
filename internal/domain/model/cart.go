package model

import "time"

// カートの1明細。
// 追加時点の価格とレストランを必ずスナップショットする。
type CartLine struct {
	ProductID      int64     `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	Quantity       int64     `json:"quantity"`
	RestaurantID   int64     `json:"restaurant_id"`
	AddedAt        time.Time `json:"added_at"`
}

// 1ユーザーにつきカートは1つ。
// 明細の配列をJSONのまま保存する（壊れていたら空カート扱い）。
type CartSnapshot struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	Payload   []byte    `gorm:"type:jsonb;not null" json:"payload"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
