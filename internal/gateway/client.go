// Package gateway wraps the external card-processing API the platform
// relies on: creating and polling payment intents, parsing webhook
// event envelopes and verifying webhook signatures. Only the contract
// this system depends on is modeled; the processor's internals are out
// of scope.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Intent is the gateway's representation of an in-progress payment
// attempt. The client secret is handed to the browser SDK to collect
// the card; the id keys the local payment row.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// IntentParams describes a payment intent to create. AmountCents is
// in minor units as the processor expects. The idempotency key makes
// retried creates return the original intent instead of charging
// twice.
type IntentParams struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// APIError is a non-2xx response from the processor.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the processor's REST API. Requests are form-encoded
// and authenticated with a bearer secret key, matching the wire
// contract of common card processors.
type Client struct {
	baseURL string
	secret  string
	httpc   *http.Client
}

// NewClient builds a Client. baseURL has no trailing slash; a 15s
// request timeout bounds calls made inside HTTP handlers.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secretKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateIntent opens a payment intent at the processor.
func (c *Client) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.AmountCents, 10))
	form.Set("currency", p.Currency)
	if p.Description != "" {
		form.Set("description", p.Description)
	}
	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", p.IdempotencyKey)
	}
	return c.do(req)
}

// GetIntent fetches the current state of an intent for polling.
func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secret)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("gateway: decode intent: %w", err)
	}
	return &intent, nil
}
