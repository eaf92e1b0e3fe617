package model

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`

	// checkoutのcustomer情報に使う
	FullName string `gorm:"type:varchar(255);not null"`
	Phone    string `gorm:"type:varchar(40)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
