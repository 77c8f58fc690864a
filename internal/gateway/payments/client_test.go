package payments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/service/payment"
)

func TestNewClient_EmptyBaseURL(t *testing.T) {
	t.Parallel()

	require.Nil(t, gatewaypay.NewClient("", time.Second))
}

func TestCharge_Approved(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/charges", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			TransactionID string  `json:"transaction_id"`
			Amount        float64 `json:"amount"`
			Currency      string  `json:"currency"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "TXN-1", body.TransactionID)
		require.Equal(t, 182.5, body.Amount)
		require.Equal(t, "INR", body.Currency)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"approved":true,"gateway_ref":"gw-1"}`))
	}))
	defer srv.Close()

	c := gatewaypay.NewClient(srv.URL, time.Second)

	res, err := c.Charge(context.Background(), payment.ChargeRequest{
		TransactionID: "TXN-1",
		Amount:        182.5,
		Currency:      "INR",
	})
	require.NoError(t, err)
	require.True(t, res.Approved)
	require.Equal(t, "gw-1", res.GatewayRef)
}

func TestCharge_DeclineIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"approved":false,"code":"card_declined","message":"insufficient funds"}`))
	}))
	defer srv.Close()

	c := gatewaypay.NewClient(srv.URL, time.Second)

	res, err := c.Charge(context.Background(), payment.ChargeRequest{TransactionID: "TXN-1"})
	require.NoError(t, err)
	require.False(t, res.Approved)
	require.Equal(t, "card_declined", res.Code)
}

func TestCharge_ProviderFault(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := gatewaypay.NewClient(srv.URL, time.Second)

	_, err := c.Charge(context.Background(), payment.ChargeRequest{TransactionID: "TXN-1"})

	var se *gatewaypay.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.StatusCode)
	require.Equal(t, "upstream exploded", se.Body)
}

func TestFetchPayment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/charges/TXN-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"transaction_id":"TXN-1","status":"captured","gateway_ref":"gw-1","amount":182.5,"currency":"INR"}`))
	}))
	defer srv.Close()

	c := gatewaypay.NewClient(srv.URL, time.Second)

	p, err := c.FetchPayment(context.Background(), "TXN-1")
	require.NoError(t, err)
	require.Equal(t, "captured", p.Status)
	require.Equal(t, "gw-1", p.GatewayRef)
	require.Equal(t, 182.5, p.Amount)
}

func TestFetchPayment_UnknownTransaction(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := gatewaypay.NewClient(srv.URL, time.Second)

	p, err := c.FetchPayment(context.Background(), "TXN-missing")
	require.NoError(t, err)
	require.Nil(t, p)
}
