// Package khalti is a small client for the Khalti ePayment API.
package khalti

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
	StatusExpired   = "Expired"
	StatusCanceled  = "User canceled"
	StatusRefunded  = "Refunded"
)

type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type InitiateRequest struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"` // paisa
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo `json:"customer_info"`
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
	ExpiresIn  int    `json:"expires_in"`
}

type LookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Fee           int64  `json:"fee"`
	Refunded      bool   `json:"refunded"`
}

type GatewayInterface interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	Lookup(ctx context.Context, pidx string) (*LookupResponse, error)
}

var _ GatewayInterface = (*Client)(nil)

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Key "+secretKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// ToPaisa converts whole rupees to the unit Khalti expects. Order totals are
// capped at pricing.MaxAmount, so the result fits in an int64.
func ToPaisa(rupees int64) int64 {
	return rupees * 100
}

func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	var out InitiateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/epayment/initiate/")
	if err != nil {
		return nil, fmt.Errorf("khalti initiate: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("khalti initiate failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Pidx == "" || out.PaymentURL == "" {
		return nil, fmt.Errorf("khalti initiate: incomplete response: %s", resp.String())
	}
	return &out, nil
}

func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	var out LookupResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"pidx": pidx}).
		SetResult(&out).
		Post("/epayment/lookup/")
	if err != nil {
		return nil, fmt.Errorf("khalti lookup: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("khalti lookup failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}
