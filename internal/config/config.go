package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	JWTSecret string // JWT署名シークレット

	// Wompi（決済プロバイダ）
	WompiPublicKey       string // checkout URLに埋め込む公開キー
	WompiPrivateKey      string // 取引照会APIの認証キー
	WompiIntegritySecret string // 署名専用シークレット（APIキーと別物・ログ出力禁止）
	WompiAPIURL          string // 取引照会APIのベースURL
	WompiCheckoutURL     string // リダイレクト先checkoutのベースURL
	PaymentRedirectURL   string // 決済後に戻ってくるURL

	Currency string // 通貨コード（1デプロイ1通貨）

	// 配送料ポリシー（minor units）。閾値はここが唯一の定義。
	FreeDeliveryThreshold int64
	DeliveryFeeMinor      int64
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	freeThreshold, err := mustAtoi64("FREE_DELIVERY_THRESHOLD")
	if err != nil {
		return Config{}, err
	}
	deliveryFee, err := mustAtoi64("DELIVERY_FEE")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		WompiPublicKey:       os.Getenv("WOMPI_PUBLIC_KEY"),
		WompiPrivateKey:      os.Getenv("WOMPI_PRIVATE_KEY"),
		WompiIntegritySecret: os.Getenv("WOMPI_INTEGRITY_SECRET"),
		WompiAPIURL:          os.Getenv("WOMPI_API_URL"),
		WompiCheckoutURL:     os.Getenv("WOMPI_CHECKOUT_URL"),
		PaymentRedirectURL:   os.Getenv("PAYMENT_REDIRECT_URL"),

		Currency: os.Getenv("CURRENCY"),

		FreeDeliveryThreshold: freeThreshold,
		DeliveryFeeMinor:      deliveryFee,
	}

	if cfg.Currency == "" {
		cfg.Currency = "COP"
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.WompiPublicKey == "" {
		return Config{}, fmt.Errorf("WOMPI_PUBLIC_KEY is required")
	}
	if cfg.WompiPrivateKey == "" {
		return Config{}, fmt.Errorf("WOMPI_PRIVATE_KEY is required")
	}
	//署名シークレットが無いならcheckoutを一切提供しない（起動時に落とす）
	if cfg.WompiIntegritySecret == "" {
		return Config{}, fmt.Errorf("WOMPI_INTEGRITY_SECRET is required")
	}
	if cfg.WompiAPIURL == "" {
		return Config{}, fmt.Errorf("WOMPI_API_URL is required")
	}
	if cfg.WompiCheckoutURL == "" {
		return Config{}, fmt.Errorf("WOMPI_CHECKOUT_URL is required")
	}
	if cfg.PaymentRedirectURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_REDIRECT_URL is required")
	}
	if cfg.DeliveryFeeMinor < 0 {
		return Config{}, fmt.Errorf("DELIVERY_FEE must be >= 0")
	}
	if cfg.FreeDeliveryThreshold < 0 {
		return Config{}, fmt.Errorf("FREE_DELIVERY_THRESHOLD must be >= 0")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func mustAtoi64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
