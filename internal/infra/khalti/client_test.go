package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Initiate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/initiate/", r.URL.Path)
		assert.Equal(t, "Key secret", r.Header.Get("Authorization"))

		var req InitiateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(11300000), req.Amount)
		assert.Equal(t, "order-1", req.PurchaseOrderID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pidx":"px1","payment_url":"https://pay.khalti.com/?pidx=px1","expires_in":1800}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	resp, err := c.Initiate(context.Background(), InitiateRequest{
		Amount:          ToPaisa(113000),
		PurchaseOrderID: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "px1", resp.Pidx)
	assert.Equal(t, "https://pay.khalti.com/?pidx=px1", resp.PaymentURL)
}

func TestClient_InitiateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"amount":["Amount should be greater than Rs. 10"]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "secret", time.Second).Initiate(context.Background(), InitiateRequest{Amount: 1})
	assert.ErrorContains(t, err, "status 400")
}

func TestClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/lookup/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "px1", body["pidx"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pidx":"px1","total_amount":11300000,"status":"Completed","transaction_id":"tx9"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "secret", time.Second).Lookup(context.Background(), "px1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, int64(11300000), resp.TotalAmount)
}
