// Package gateway talks to the Razorpay payment gateway.
package gateway

import (
	"context"
	"fmt"
	"log"

	"village-sabha/internal/core/domain"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// orderAPI is the part of the Razorpay client used here
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Credentials is one Razorpay key pair
type Credentials struct {
	KeyID     string
	KeySecret string
}

type account struct {
	creds  Credentials
	orders orderAPI
}

// Razorpay routes each payment channel to its own key pair
type Razorpay struct {
	accounts map[domain.Channel]*account
}

// NewRazorpay creates a gateway. The special channel falls back to the
// default key pair when it has no credentials of its own.
func NewRazorpay(def, special Credentials) *Razorpay {
	if special.KeyID == "" || special.KeySecret == "" {
		special = def
	}

	g := &Razorpay{accounts: make(map[domain.Channel]*account)}
	for channel, creds := range map[domain.Channel]Credentials{
		domain.ChannelDefault: def,
		domain.ChannelSpecial: special,
	} {
		if creds.KeyID == "" || creds.KeySecret == "" {
			log.Printf("⚠️ Razorpay %s channel has no credentials, orders will fail", channel)
			continue
		}
		client := razorpay.NewClient(creds.KeyID, creds.KeySecret)
		g.accounts[channel] = &account{creds: creds, orders: client.Order}
	}
	return g
}

func (g *Razorpay) account(channel domain.Channel) (*account, error) {
	acc, ok := g.accounts[channel]
	if !ok {
		return nil, domain.External("payment gateway is not configured", fmt.Errorf("no credentials for %s channel", channel))
	}
	return acc, nil
}

// CreateOrder registers an order of amountMinor with the gateway
func (g *Razorpay) CreateOrder(ctx context.Context, channel domain.Channel, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.Order, error) {
	acc, err := g.account(channel)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := call(ctx, func() (map[string]interface{}, error) {
		return acc.orders.Create(data, nil)
	})
	if err != nil {
		return nil, domain.External("failed to create payment order", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, domain.External("failed to create payment order", fmt.Errorf("gateway response has no order id"))
	}

	return &domain.Order{
		ID:          id,
		AmountMinor: amountMinor,
		Currency:    currency,
		KeyID:       acc.creds.KeyID,
		Receipt:     receipt,
	}, nil
}

// VerifySignature checks the gateway's HMAC over orderID|paymentID
func (g *Razorpay) VerifySignature(channel domain.Channel, orderID, paymentID, signature string) bool {
	acc, ok := g.accounts[channel]
	if !ok || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	attributes := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(attributes, signature, acc.creds.KeySecret)
}

// FetchOrderAmount returns the amount the gateway holds for orderID
func (g *Razorpay) FetchOrderAmount(ctx context.Context, channel domain.Channel, orderID string) (int64, error) {
	acc, err := g.account(channel)
	if err != nil {
		return 0, err
	}

	body, err := call(ctx, func() (map[string]interface{}, error) {
		return acc.orders.Fetch(orderID, nil, nil)
	})
	if err != nil {
		return 0, domain.External("failed to fetch payment order", err)
	}

	switch amount := body["amount"].(type) {
	case float64:
		return int64(amount), nil
	case int64:
		return amount, nil
	case int:
		return int64(amount), nil
	}
	return 0, domain.External("failed to fetch payment order", fmt.Errorf("gateway response has no amount"))
}

// KeyID returns the public key id clients use for channel
func (g *Razorpay) KeyID(channel domain.Channel) string {
	if acc, ok := g.accounts[channel]; ok {
		return acc.creds.KeyID
	}
	return ""
}

// call runs a blocking client request, giving up when ctx is done
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}

	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}
