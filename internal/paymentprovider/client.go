// Package paymentprovider реализует клиент платёжного провайдера NOWPayments.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured возвращается, если API-ключ провайдера не задан.
	ErrNotConfigured = errors.New("payment provider api key is not configured")
	// ErrUnexpectedStatus возвращается при ответе провайдера с кодом не 2xx.
	ErrUnexpectedStatus = errors.New("unexpected payment provider status")
	// ErrNoRedirect возвращается, если в ответе нет ссылки на оплату.
	ErrNoRedirect = errors.New("payment provider returned no payment url")
)

// Client обращается к API NOWPayments.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент NOWPayments.
func NewClient(apiKey, apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateInvoice создаёт счёт и возвращает ссылку на страницу оплаты.
func (c *Client) CreateInvoice(ctx context.Context, params CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	const op = "paymentprovider.CreateInvoice"
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/invoice", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s: %w: %s: %s", op, ErrUnexpectedStatus, resp.Status, bytes.TrimSpace(msg))
	}

	var invoice CreateInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if invoice.RedirectURL() == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoRedirect)
	}
	return &invoice, nil
}
