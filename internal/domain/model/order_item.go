package model

import "time"

type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceMinor      int64     `gorm:"not null" json:"unit_price_minor"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	LineTotalMinor      int64     `gorm:"not null" json:"line_total_minor"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
