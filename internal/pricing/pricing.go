package pricing

import (
	"fmt"

	"app/internal/domain/model"
)

// 配送料ポリシー。閾値と固定料金（minor units）。
// configの値をそのまま渡す。呼び出し側ごとに閾値を変えない。
type FeePolicy struct {
	FreeThreshold int64
	Fee           int64
}

// 金額の内訳。常に Total == Subtotal + DeliveryFee。
type Quote struct {
	Subtotal    int64 `json:"subtotal_minor"`
	DeliveryFee int64 `json:"delivery_fee_minor"`
	Total       int64 `json:"total_minor"`
}

// 小計（minor units）
func Subtotal(lines []model.CartLine) int64 {
	var sum int64 = 0
	for _, l := range lines {
		sum += l.UnitPriceMinor * l.Quantity
	}
	return sum
}

// 数量合計
func TotalQuantity(lines []model.CartLine) int64 {
	var sum int64 = 0
	for _, l := range lines {
		sum += l.Quantity
	}
	return sum
}

// 配送料。閾値未満なら固定、閾値以上なら0。
func DeliveryFee(subtotal int64, p FeePolicy) int64 {
	if subtotal >= p.FreeThreshold {
		return 0
	}
	return p.Fee
}

// カートからQuoteを作る。純粋関数（同じ入力なら同じ出力）。
// カート表示とcheckoutの両方が必ずここを通る。
func BuildQuote(lines []model.CartLine, p FeePolicy) Quote {
	subtotal := Subtotal(lines)
	fee := DeliveryFee(subtotal, p)
	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}

// minor unitsを表示用の2桁小数文字列にする（内部計算では使わない）
func FormatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
