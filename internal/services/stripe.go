package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CheckoutSession is the slice of a Stripe checkout session the backend
// cares about. TransactionID is the gateway's payment intent reference, the
// idempotency key for the payment ledger.
type CheckoutSession struct {
	ID            string
	URL           string
	TransactionID string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutGateway is the payment gateway as seen by the payment service.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, parcelID string, price float64, email, parcelName string) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// StripeService talks to the Stripe REST API. Stripe expects form-encoded
// request bodies and yields JSON.
type StripeService struct {
	secretKey  string
	baseURL    string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewStripeService(secretKey, baseURL, clientOrigin string) *StripeService {
	origin := strings.TrimSuffix(clientOrigin, "/")
	return &StripeService{
		secretKey: secretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		// Stripe substitutes the placeholder with the real session id on
		// redirect; the frontend hands it back on the confirm call.
		successURL: origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  origin + "/payment-cancelled",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, parcelID string, price float64, email, parcelName string) (*CheckoutSession, error) {
	cents := int64(math.Round(price * 100))

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", email)
	form.Set("success_url", s.successURL)
	form.Set("cancel_url", s.cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(cents, 10))
	form.Set("line_items[0][price_data][product_data][name]", parcelName)
	form.Set("metadata[parcelId]", parcelID)
	form.Set("metadata[parcelName]", parcelName)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.New("stripe error: " + string(body))
	}

	var result sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session response: %w", err)
	}
	if result.URL == "" {
		return nil, errors.New("no checkout URL in stripe response")
	}
	return result.toSession(), nil
}

func (s *StripeService) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.New("stripe error: " + string(body))
	}

	var result sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session response: %w", err)
	}
	return result.toSession(), nil
}

type sessionResponse struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentIntent   string `json:"payment_intent"`
	PaymentStatus   string `json:"payment_status"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

func (r *sessionResponse) toSession() *CheckoutSession {
	email := r.CustomerDetails.Email
	if email == "" {
		email = r.CustomerEmail
	}
	return &CheckoutSession{
		ID:            r.ID,
		URL:           r.URL,
		TransactionID: r.PaymentIntent,
		PaymentStatus: r.PaymentStatus,
		AmountTotal:   r.AmountTotal,
		Currency:      r.Currency,
		CustomerEmail: email,
		Metadata:      r.Metadata,
	}
}
