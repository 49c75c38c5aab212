// internal/clients/lending_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/httpjson"
	"libraryledger/internal/membership"
)

// ErrNotFound is returned for a 404 that carries no lending error code.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response that maps to no known sentinel.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// LendingClient talks to the library HTTP API.
type LendingClient struct {
	baseURL string
	http    *http.Client
}

// NewLendingClient returns a client for the server at baseURL, for example
// http://localhost:8080. A nil httpClient uses a client with a 10s timeout.
func NewLendingClient(baseURL string, httpClient *http.Client) *LendingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LendingClient{baseURL: baseURL, http: httpClient}
}

func (c *LendingClient) ListItems(ctx context.Context, f catalog.Filter) ([]catalog.Item, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Availability != catalog.AvailabilityAny {
		q.Set("availability", string(f.Availability))
	}
	var items []catalog.Item
	err := c.do(ctx, http.MethodGet, "/api/items", q, nil, &items)
	return items, err
}

func (c *LendingClient) GetItem(ctx context.Context, id int) (catalog.ItemView, error) {
	var view catalog.ItemView
	err := c.do(ctx, http.MethodGet, "/api/items/"+strconv.Itoa(id), nil, nil, &view)
	return view, err
}

func (c *LendingClient) GetMember(ctx context.Context, id int) (membership.MemberView, error) {
	var view membership.MemberView
	err := c.do(ctx, http.MethodGet, "/api/members/"+strconv.Itoa(id), nil, nil, &view)
	return view, err
}

func (c *LendingClient) MemberItems(ctx context.Context, id int) ([]catalog.Item, error) {
	var items []catalog.Item
	err := c.do(ctx, http.MethodGet, "/api/members/"+strconv.Itoa(id)+"/items", nil, nil, &items)
	return items, err
}

func (c *LendingClient) Borrow(ctx context.Context, itemID, memberID int, dueDate string) (circulation.Transaction, error) {
	body := map[string]any{"itemId": itemID, "memberId": memberID, "dueDate": dueDate}
	var tx circulation.Transaction
	err := c.do(ctx, http.MethodPost, "/api/borrow", nil, body, &tx)
	return tx, err
}

func (c *LendingClient) Return(ctx context.Context, itemID int) (circulation.Transaction, error) {
	var tx circulation.Transaction
	err := c.do(ctx, http.MethodPost, "/api/return", nil, map[string]any{"itemId": itemID}, &tx)
	return tx, err
}

func (c *LendingClient) Transactions(ctx context.Context, limit int) ([]circulation.Transaction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var txs []circulation.Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions", q, nil, &txs)
	return txs, err
}

func (c *LendingClient) Stats(ctx context.Context) (circulation.Stats, error) {
	var st circulation.Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &st)
	return st, err
}

func (c *LendingClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError turns an error response back into the sentinel the server
// started from, when there is one.
func decodeError(resp *http.Response) error {
	var er httpjson.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&er)

	if sentinel := circulation.ErrorForCode(er.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, er.Error)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, er.Error)
	}
	return &APIError{Status: resp.StatusCode, Code: er.Code, Message: er.Error}
}
