package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"app/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// 照会先に到達できない（リトライ可能。DECLINED扱いにしてはいけない）
	ErrUnavailable = errors.New("payment provider unavailable")
	// 照会したtransactionが存在しない
	ErrTransactionNotFound = errors.New("transaction not found")
)

// checkoutの宛先。redirect URLをアプリ外のブラウザに渡す。
type Checkout struct {
	RedirectURL string `json:"redirect_url"`
	Reference   string `json:"reference"`
}

// checkout URLに入れる顧客情報
type Customer struct {
	Email    string
	FullName string
	Phone    string
}

// Wompiへのリクエストを組み立てるクライアント。
// カード情報はアプリを一切通らない（redirectのみ）。
type Gateway struct {
	signer *Signer

	publicKey   string
	privateKey  string
	checkoutURL string
	apiURL      string
	redirectURL string
	currency    string

	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewGateway(cfg config.Config, signer *Signer) *Gateway {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "wompi-status",
	})

	return &Gateway{
		signer:      signer,
		publicKey:   cfg.WompiPublicKey,
		privateKey:  cfg.WompiPrivateKey,
		checkoutURL: cfg.WompiCheckoutURL,
		apiURL:      cfg.WompiAPIURL,
		redirectURL: cfg.PaymentRedirectURL,
		currency:    cfg.Currency,
		client:      client,
		breaker:     breaker,
	}
}

// NewReferenceはcheckout試行ごとに新しいreferenceを発行する。
// 中身は不透明な文字列で、注文との対応はDBの完全一致検索で引く。
func (g *Gateway) NewReference() string {
	return "ORD-" + uuid.NewString()
}

// BuildCheckoutはredirect URLを組み立てる。ネットワークは呼ばない。
// 署名はプロバイダ側が再計算して検証するので、金額・通貨・referenceはURLと署名で必ず一致させる。
func (g *Gateway) BuildCheckout(reference string, totalMinor int64, cust Customer) Checkout {
	signature := g.signer.Sign(reference, totalMinor, g.currency)

	q := url.Values{}
	q.Set("public-key", g.publicKey)
	q.Set("currency", g.currency)
	q.Set("amount-in-cents", strconv.FormatInt(totalMinor, 10))
	q.Set("reference", reference)
	q.Set("signature:integrity", signature)
	q.Set("redirect-url", g.redirectURL)
	q.Set("customer-data:email", cust.Email)
	q.Set("customer-data:full-name", cust.FullName)
	q.Set("customer-data:phone-number", cust.Phone)

	return Checkout{
		RedirectURL: g.checkoutURL + "?" + q.Encode(),
		Reference:   reference,
	}
}

type transactionEnvelope struct {
	Data TransactionStatus `json:"data"`
}

// QueryStatusはtransactionを1件照会する。読み取り専用・冪等。
// webhookが来ないときのフォールバックで、注文には触らない。
func (g *Gateway) QueryStatus(ctx context.Context, transactionID string) (TransactionStatus, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		var envelope transactionEnvelope

		resp, err := g.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+g.privateKey).
			SetResult(&envelope).
			Get(fmt.Sprintf("%s/transactions/%s", g.apiURL, url.PathEscape(transactionID)))

		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if resp.StatusCode() == 404 {
			return nil, ErrTransactionNotFound
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
		}

		return envelope.Data, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		log.WithFields(log.Fields{
			"transaction_id": transactionID,
		}).WithError(err).Warn("transaction status query failed")
		return TransactionStatus{}, err
	}

	return result.(TransactionStatus), nil
}
