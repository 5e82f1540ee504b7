package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test_sk_abc123"

func TestConfirmForwardsRequestWithBasicAuth(t *testing.T) {
	var got ConfirmRequest

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(testSecretKey+":"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"DONE","orderId":"mars_1"}`))
	}))
	defer provider.Close()

	client := NewClient(provider.URL, testSecretKey)

	result, err := client.Confirm(context.Background(), ConfirmRequest{
		PaymentKey: "pk_1",
		OrderID:    "mars_1",
		Amount:     "50000",
	})
	require.NoError(t, err)

	assert.Equal(t, "pk_1", got.PaymentKey)
	assert.Equal(t, "mars_1", got.OrderID)
	assert.Equal(t, "50000", got.Amount)

	assert.True(t, result.Approved)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.JSONEq(t, `{"status":"DONE","orderId":"mars_1"}`, string(result.Body))
}

func TestConfirmDeclinedPaymentIsNotAnError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"INVALID_CARD","message":"declined"}`))
	}))
	defer provider.Close()

	client := NewClient(provider.URL, testSecretKey)

	result, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "pk", OrderID: "o", Amount: "1000"})
	require.NoError(t, err)

	assert.False(t, result.Approved)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.JSONEq(t, `{"code":"INVALID_CARD","message":"declined"}`, string(result.Body))
}

func TestConfirmUnreachableProvider(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	provider.Close()

	client := NewClient(provider.URL, testSecretKey)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "pk", OrderID: "o", Amount: "1000"})
	assert.Error(t, err)
}

func TestConfirmNonJSONResponse(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer provider.Close()

	client := NewClient(provider.URL, testSecretKey)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "pk", OrderID: "o", Amount: "1000"})
	assert.Error(t, err)
}

func TestCouponValue(t *testing.T) {
	tests := []struct {
		amount  string
		want    int
		wantErr bool
	}{
		{amount: "50000", want: 50},
		{amount: "1000", want: 1},
		{amount: "1999", want: 1},
		{amount: "999", want: 0},
		{amount: " 3000 ", want: 3},
		{amount: "0", wantErr: true},
		{amount: "-1000", wantErr: true},
		{amount: "abc", wantErr: true},
		{amount: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := CouponValue(tt.amount)
		if tt.wantErr {
			assert.Error(t, err, "amount %q", tt.amount)
			continue
		}
		require.NoError(t, err, "amount %q", tt.amount)
		assert.Equal(t, tt.want, got, "amount %q", tt.amount)
	}
}
