package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"app/internal/config"

	"github.com/stretchr/testify/assert"
)

func testConfig(apiURL string) config.Config {
	return config.Config{
		WompiPublicKey:       "pub_test_key",
		WompiPrivateKey:      "prv_test_key",
		WompiIntegritySecret: "test_integrity_secret",
		WompiAPIURL:          apiURL,
		WompiCheckoutURL:     "https://checkout.example.com/p/",
		PaymentRedirectURL:   "https://app.example.com/payment-result",
		Currency:             "COP",
	}
}

func newTestGateway(t *testing.T, apiURL string) *Gateway {
	t.Helper()
	signer, err := NewSigner("test_integrity_secret")
	assert.NoError(t, err)
	return NewGateway(testConfig(apiURL), signer)
}

func TestGateway_NewReference_UniqueAndPrefixed(t *testing.T) {
	g := newTestGateway(t, "http://unused")

	a := g.NewReference()
	b := g.NewReference()

	assert.True(t, strings.HasPrefix(a, "ORD-"))
	assert.NotEqual(t, a, b)
}

// checkout URLに金額・通貨・reference・署名が一致して入ること
func TestGateway_BuildCheckout_URLFields(t *testing.T) {
	g := newTestGateway(t, "http://unused")
	signer, _ := NewSigner("test_integrity_secret")

	co := g.BuildCheckout("ORD-abc", 27000, Customer{
		Email:    "ana@example.com",
		FullName: "Ana Gomez",
		Phone:    "3001234567",
	})

	assert.Equal(t, "ORD-abc", co.Reference)

	u, err := url.Parse(co.RedirectURL)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(co.RedirectURL, "https://checkout.example.com/p/?"))

	q := u.Query()
	assert.Equal(t, "pub_test_key", q.Get("public-key"))
	assert.Equal(t, "COP", q.Get("currency"))
	assert.Equal(t, "27000", q.Get("amount-in-cents"))
	assert.Equal(t, "ORD-abc", q.Get("reference"))
	assert.Equal(t, signer.Sign("ORD-abc", 27000, "COP"), q.Get("signature:integrity"))
	assert.Equal(t, "https://app.example.com/payment-result", q.Get("redirect-url"))
	assert.Equal(t, "ana@example.com", q.Get("customer-data:email"))

	//シークレットそのものはURLに出ない
	assert.NotContains(t, co.RedirectURL, "test_integrity_secret")
}

func TestGateway_QueryStatus_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx-123", r.URL.Path)
		assert.Equal(t, "Bearer prv_test_key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"tx-123","status":"APPROVED","reference":"ORD-abc","amount_in_cents":27000,"payment_method_type":"CARD"}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)

	ts, err := g.QueryStatus(context.Background(), "tx-123")
	assert.NoError(t, err)
	assert.Equal(t, "tx-123", ts.ID)
	assert.Equal(t, "APPROVED", ts.Status)
	assert.Equal(t, "ORD-abc", ts.Reference)
	assert.Equal(t, int64(27000), ts.AmountInCents)
}

func TestGateway_QueryStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)

	_, err := g.QueryStatus(context.Background(), "tx-missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGateway_QueryStatus_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)

	_, err := g.QueryStatus(context.Background(), "tx-123")
	assert.ErrorIs(t, err, ErrUnavailable)
}
