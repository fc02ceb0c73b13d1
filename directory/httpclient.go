package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/feltstack/holdem/poker"
)

const (
	walletRetryAttempts  = 3
	walletRetryBaseDelay = 200 * time.Millisecond
)

// HTTPClient is the MODE=prod Service implementation: every call but
// RecordHandHistory is a JSON request/response round trip to a real
// Directory Service. Wallet calls are the only ones that retry
// (spec.md §7's "External" kind is bounded-retry); hand-history is
// best-effort and never propagates a failure to its caller.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	history *HistorySink // nil disables hand-history recording
}

// NewHTTPClient builds a production directory client against
// baseURL. history may be nil, in which case RecordHandHistory is a
// silent no-op.
func NewHTTPClient(baseURL string, history *HistorySink) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		history: history,
	}
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) (string, string, error) {
	var resp struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}
	req := struct {
		Token string `json:"token"`
	}{Token: token}
	if err := c.postJSON(ctx, "/verify-token", req, &resp); err != nil {
		return "", "", err
	}
	return resp.UserID, resp.DisplayName, nil
}

func (c *HTTPClient) DebitWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (int64, error) {
	return c.adjustWallet(ctx, "/debit-wallet", userID, communityID, amount, memo)
}

func (c *HTTPClient) CreditWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (int64, error) {
	return c.adjustWallet(ctx, "/credit-wallet", userID, communityID, amount, memo)
}

func (c *HTTPClient) adjustWallet(ctx context.Context, path, userID, communityID string, amount int64, memo string) (int64, error) {
	req := walletAdjustRequest{UserID: userID, CommunityID: communityID, Amount: amount, Memo: memo}
	var resp struct {
		NewBalance int64 `json:"newBalance"`
	}
	err := withRetry(ctx, walletRetryAttempts, walletRetryBaseDelay, func() error {
		return c.postJSON(ctx, path, req, &resp)
	})
	if err != nil {
		return 0, fmt.Errorf("directory: %s for %s: %w", path, userID, err)
	}
	return resp.NewBalance, nil
}

type walletAdjustRequest struct {
	UserID      string `json:"userId"`
	CommunityID string `json:"communityId"`
	Amount      int64  `json:"amount"`
	Memo        string `json:"memo"`
}

func (c *HTTPClient) UnseatPlayer(ctx context.Context, tableID, userID string) error {
	req := struct {
		TableID string `json:"tableId"`
		UserID  string `json:"userId"`
	}{tableID, userID}
	return c.postJSON(ctx, "/unseat-player", req, nil)
}

// ReportPayoutIntent is the leave-time payout, modeled as a wallet
// credit with a fixed memo (SPEC_FULL.md's Open Question decision:
// leave is the payout point).
func (c *HTTPClient) ReportPayoutIntent(ctx context.Context, tableID, userID string, amount int64) error {
	_, err := c.CreditWallet(ctx, userID, "", amount, "table leave payout")
	return err
}

func (c *HTTPClient) CheckCleanup(ctx context.Context, tableID string) (bool, error) {
	var resp struct {
		ShouldClose bool `json:"shouldClose"`
	}
	req := struct {
		TableID string `json:"tableId"`
	}{tableID}
	if err := c.postJSON(ctx, "/check-cleanup", req, &resp); err != nil {
		return false, err
	}
	return resp.ShouldClose, nil
}

func (c *HTTPClient) GetTableConfig(ctx context.Context, tableID string) (int, error) {
	var resp struct {
		ActionTimeoutSeconds int `json:"actionTimeoutSeconds"`
	}
	req := struct {
		TableID string `json:"tableId"`
	}{tableID}
	if err := c.postJSON(ctx, "/table-config", req, &resp); err != nil {
		return 0, err
	}
	return resp.ActionTimeoutSeconds, nil
}

// RecordHandHistory writes directly to the local Postgres sink rather
// than calling out over HTTP; a missing sink or a write failure is
// logged and swallowed, matching the best-effort-suppress error kind.
func (c *HTTPClient) RecordHandHistory(ctx context.Context, communityID, tableID string, result *poker.SettlementResult, final poker.View) error {
	if c.history == nil {
		return nil
	}
	if err := c.history.Record(ctx, communityID, tableID, result); err != nil {
		log.Printf("[directory] failed to record hand history for table %s: %v", tableID, err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("directory: encode request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("directory: build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("directory: %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("directory: decode response from %s: %w", path, err)
	}
	return nil
}

func withRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if lastErr == ErrInvalidCredentials {
			return lastErr
		}
	}
	return lastErr
}
