package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flashbots/escrownet/crypto"
)

// HTTPClient implements TokenLedger against a remote ledger service that
// speaks the Handler wire format.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the ledger service at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// BalanceOf returns the amount of token held by the account.
func (c *HTTPClient) BalanceOf(ctx context.Context, token TokenID, holder crypto.AccountID) (uint64, error) {
	url := fmt.Sprintf("%s/token/balance/%s/%s", c.baseURL, token.String(), holder.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(body))
	}

	var balance BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return balance.Amount, nil
}

// Transfer moves amount of token from one account to another.
func (c *HTTPClient) Transfer(ctx context.Context, token TokenID, from, to crypto.AccountID, amount uint64) error {
	body, err := json.Marshal(&TransferRequest{Token: token, From: from, To: to, Amount: amount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token/transfer", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrInsufficientFunds
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(respBody))
	}
}
