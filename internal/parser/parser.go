// Package parser turns free-form text like "coffee 4.50" into a structured
// transaction draft by calling the external parsing service.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dompet/internal/cache"
	"dompet/internal/core"
)

// ErrUnparsable is returned when the service cannot extract a transaction
// from the input text.
var ErrUnparsable = errors.New("text could not be parsed into a transaction")

const (
	defaultTimeout = 10 * time.Second
	cacheSize      = 256
	cacheTTL       = 15 * time.Minute
)

// Result is a parsed transaction draft. Category is the matched category
// name, not an ID; callers resolve it against their category set.
type Result struct {
	AmountCents int64
	Name        string
	Category    string
	Type        core.TransactionType
}

type parseRequest struct {
	Text              string   `json:"text"`
	ExpenseCategories []string `json:"expense_categories"`
	IncomeCategories  []string `json:"income_categories"`
}

type parseResponse struct {
	Amount   string `json:"amount"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// Client calls the parsing service over HTTP. Identical requests within the
// cache TTL are served from memory.
type Client struct {
	baseURL string
	http    *http.Client
	results *cache.LRUCache[Result]
}

// NewClient builds a client for the service at baseURL. A zero timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		results: cache.NewLRUCache[Result](cacheSize, cacheTTL),
	}
}

// ResultCache exposes the response cache for cleanup registration.
func (c *Client) ResultCache() *cache.LRUCache[Result] {
	return c.results
}

// Parse sends the text together with the caller's category names and
// validates the service's answer against them. The category match is
// case-insensitive and scoped to the returned type.
func (c *Client) Parse(ctx context.Context, text string, expenseCategories, incomeCategories []string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrUnparsable
	}

	key := cacheKey(text, expenseCategories, incomeCategories)
	if cached, ok := c.results.Get(key); ok {
		slog.DebugContext(ctx, "Parse cache hit", "text", text)
		return cached, nil
	}

	resp, err := c.call(ctx, parseRequest{
		Text:              text,
		ExpenseCategories: expenseCategories,
		IncomeCategories:  incomeCategories,
	})
	if err != nil {
		return Result{}, err
	}

	result, err := c.validate(resp, expenseCategories, incomeCategories)
	if err != nil {
		return Result{}, err
	}

	c.results.Set(key, result)
	return result, nil
}

func (c *Client) call(ctx context.Context, reqBody parseRequest) (*parseResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call parse service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read parse response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrUnparsable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("parse service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed parseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode parse response: %w", err)
	}
	return &parsed, nil
}

// validate rejects answers that do not describe a usable transaction.
func (c *Client) validate(resp *parseResponse, expenseCategories, incomeCategories []string) (Result, error) {
	cents, err := core.ParseAmountToCents(resp.Amount)
	if err != nil || cents <= 0 {
		return Result{}, ErrUnparsable
	}

	name := strings.TrimSpace(resp.Name)
	if name == "" {
		return Result{}, ErrUnparsable
	}

	typ := core.TransactionType(resp.Type)
	if !typ.Valid() {
		return Result{}, ErrUnparsable
	}

	pool := expenseCategories
	if typ == core.Income {
		pool = incomeCategories
	}
	category, ok := matchCategory(resp.Category, pool)
	if !ok {
		return Result{}, ErrUnparsable
	}

	return Result{
		AmountCents: cents,
		Name:        name,
		Category:    category,
		Type:        typ,
	}, nil
}

// matchCategory finds the canonical spelling of name in candidates,
// ignoring case.
func matchCategory(name string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(name), c) {
			return c, true
		}
	}
	return "", false
}

func cacheKey(text string, expense, income []string) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteByte('\x1f')
	b.WriteString(strings.Join(expense, ","))
	b.WriteByte('\x1f')
	b.WriteString(strings.Join(income, ","))
	return b.String()
}
