package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"khpanel/internal/pkg/httpclient"
)

// ZibalGateway implements the Gateway interface for Zibal.
type ZibalGateway struct {
	merchantID string
	client     *httpclient.Client
}

func NewZibalGateway(merchantID string) *ZibalGateway {
	return &ZibalGateway{
		merchantID: merchantID,
		client:     httpclient.New().WithTimeout(30 * time.Second),
	}
}

func (z *ZibalGateway) Name() string {
	return "zibal"
}

func (z *ZibalGateway) CreatePayment(ctx context.Context, amount int64, orderID, description, callbackURL string) (*PaymentResult, error) {
	body := map[string]interface{}{
		"merchant":    z.merchantID,
		"amount":      amount,
		"orderId":     orderID,
		"description": description,
		"callbackUrl": callbackURL,
	}

	resp, err := z.client.Post("https://gateway.zibal.ir/v1/request", body)
	if err != nil {
		return nil, fmt.Errorf("zibal create payment failed: %w", err)
	}

	var result struct {
		Result  int    `json:"result"`
		TrackID int64  `json:"trackId"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("zibal parse error: %w", err)
	}
	if result.Result != 100 {
		return nil, fmt.Errorf("zibal request rejected: %s (code %d)", result.Message, result.Result)
	}

	trackID := fmt.Sprintf("%d", result.TrackID)
	return &PaymentResult{
		OrderID:    orderID,
		PaymentURL: "https://gateway.zibal.ir/start/" + trackID,
		Authority:  trackID,
	}, nil
}

func (z *ZibalGateway) VerifyPayment(ctx context.Context, authority string, amount int64) (*VerifyResult, error) {
	body := map[string]interface{}{
		"merchant": z.merchantID,
		"trackId":  authority,
	}

	resp, err := z.client.Post("https://gateway.zibal.ir/v1/verify", body)
	if err != nil {
		return nil, fmt.Errorf("zibal verify failed: %w", err)
	}

	var result struct {
		Result    int    `json:"result"`
		RefNumber int64  `json:"refNumber"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("zibal verify parse error: %w", err)
	}

	// 100 = verified, 201 = already verified
	if result.Result == 100 || result.Result == 201 {
		return &VerifyResult{
			Verified: true,
			RefID:    fmt.Sprintf("%d", result.RefNumber),
		}, nil
	}

	return &VerifyResult{
		Verified: false,
		Message:  fmt.Sprintf("verification failed: %s (code %d)", result.Message, result.Result),
	}, nil
}
