package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type RefundRequest struct {
	OrderID       uint    `json:"orderId"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
}

type RefundResult struct {
	Success       bool    `json:"success"`
	RefundID      string  `json:"refundId"`
	Amount        float64 `json:"amount"`
	Message       string  `json:"message"`
	TransactionID string  `json:"transactionId"`
}

// PaymentGateway is the external payment collaborator used for checkout and
// refunds.
type PaymentGateway interface {
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// RestyGateway talks to the hosted payment provider over its REST API.
type RestyGateway struct {
	client  *resty.Client
	baseURL string
}

func NewRestyGateway() *RestyGateway {
	return &RestyGateway{
		client:  resty.New().SetTimeout(30 * time.Second),
		baseURL: os.Getenv("PAYMENT_GATEWAY_URL"),
	}
}

func (g *RestyGateway) accessToken(ctx context.Context) (string, error) {
	consumerKey := os.Getenv("PAYMENT_CONSUMER_KEY")
	consumerSecret := os.Getenv("PAYMENT_CONSUMER_SECRET")
	if consumerKey == "" || consumerSecret == "" {
		return "", fmt.Errorf("payment consumer credentials are not set")
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{
			"consumer_key":    consumerKey,
			"consumer_secret": consumerSecret,
		}).
		Post(g.baseURL + "/api/Auth/RequestToken")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var response map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	token, ok := response["token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("token not found in response")
	}
	return token, nil
}

func (g *RestyGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"confirmation_code": req.TransactionID,
		"amount":            req.Amount,
		"remarks":           req.Reason,
		"username":          fmt.Sprintf("order-%d", req.OrderID),
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
			"Content-Type":  "application/json",
		}).
		SetBody(body).
		Post(g.baseURL + "/api/Transactions/RefundRequest")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("refund request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var gatewayResp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &gatewayResp); err != nil {
		return nil, fmt.Errorf("invalid refund response: %w", err)
	}
	if gatewayResp.Status != "200" && gatewayResp.Status != "" {
		return nil, fmt.Errorf("gateway rejected refund: %s", gatewayResp.Message)
	}

	return &RefundResult{
		Success:       true,
		RefundID:      uuid.NewString(),
		Amount:        req.Amount,
		Message:       "Refund accepted by gateway",
		TransactionID: req.TransactionID,
	}, nil
}
