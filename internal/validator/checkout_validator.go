package validator

import (
	"errors"
	"strings"

	"app/internal/domain/model"
	"app/internal/usecase"
)

var (
	// 配送先が空
	ErrAddressRequired = errors.New("delivery address required")

	// 配送先が長すぎる
	ErrAddressTooLong = errors.New("delivery address too long")

	// 未対応の支払い方法
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// 備考が長すぎる
	ErrNotesTooLong = errors.New("notes too long")
)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// checkoutの入力を検証。最初に満たせなかった条件のエラーを返す。
func (v *checkoutValidator) ValidateSelections(address string, method model.PaymentMethod, notes string) error {
	address = strings.TrimSpace(address)

	// 必須チェック
	if address == "" {
		return ErrAddressRequired
	}
	if len(address) > 255 {
		return ErrAddressTooLong
	}

	if !method.IsValid() {
		return ErrInvalidPaymentMethod
	}

	if len(notes) > 500 {
		return ErrNotesTooLong
	}

	return nil
}
