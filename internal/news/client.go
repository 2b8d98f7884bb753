// Package news загружает ленту новостей рынка форекс из NewsAPI и
// кэширует её, чтобы не расходовать лимит запросов.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNotConfigured возвращается, если ключ NewsAPI не задан.
var ErrNotConfigured = errors.New("newsapi key is not configured")

// Article — статья из ленты.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Source описывает издание, опубликовавшее статью.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// Client обращается к NewsAPI.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент NewsAPI.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Everything ищет свежие англоязычные статьи по запросу query.
func (c *Client) Everything(ctx context.Context, query string) ([]Article, error) {
	const op = "news.Everything"
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var body everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("%s: unexpected status %s: %s %s", op, resp.Status, body.Code, body.Message)
	}
	return body.Articles, nil
}
