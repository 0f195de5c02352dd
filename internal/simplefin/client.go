// Package simplefin reads transactions from a SimpleFIN bridge.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
)

// Config holds SimpleFIN settings. Either AccessURL or Token is needed; a
// claimed token is remembered in StatePath.
type Config struct {
	AccessURL string
	Token     string
	StatePath string
}

// Client fetches accounts and transactions from a SimpleFIN access URL.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	accessURL  string
	retryOpts  common.RetryOptions
}

// SimpleFIN API response types.
type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Posted      int64  `json:"posted"`
	Pending     bool   `json:"pending"`
}

// NewClient resolves the access URL, claiming the token if needed.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	accessURL := cfg.AccessURL
	if accessURL == "" {
		if cfg.StatePath == "" && cfg.Token == "" {
			return nil, fmt.Errorf("%w: simplefin.access_url or simplefin.token is required", common.ErrMissingConfig)
		}
		auth, err := LoadOrClaim(ctx, httpClient, cfg.StatePath, cfg.Token)
		if err != nil {
			return nil, err
		}
		accessURL = auth.AccessURL
	}

	return newClient(httpClient, accessURL), nil
}

func newClient(httpClient *http.Client, accessURL string) *Client {
	return &Client{
		httpClient: httpClient,
		accessURL:  strings.TrimRight(accessURL, "/"),
		logger:     slog.Default().With("component", "simplefin"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// GetTransactions fetches posted transactions between startDate and endDate
// inclusive. Pending transactions are skipped.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	q := url.Values{}
	q.Set("start-date", strconv.FormatInt(startDate.Unix(), 10))
	// end-date is exclusive on the server.
	q.Set("end-date", strconv.FormatInt(endDate.AddDate(0, 0, 1).Unix(), 10))

	c.logger.Debug("Requesting SimpleFIN transactions",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	set, err := c.fetchAccounts(ctx, q)
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for _, acct := range set.Accounts {
		for _, tx := range acct.Transactions {
			if tx.Pending {
				continue
			}

			date := time.Unix(tx.Posted, 0).UTC()
			if date.Before(startDate) || date.After(endDate) {
				continue
			}

			mapped, err := mapTransaction(acct, tx, date)
			if err != nil {
				return nil, err
			}
			txns = append(txns, mapped)
		}
	}

	c.logger.Info("Fetched transactions from SimpleFIN",
		"count", len(txns),
		"accounts", len(set.Accounts))

	return txns, nil
}

// GetAccounts returns account names in server order.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("balances-only", "1")

	set, err := c.fetchAccounts(ctx, q)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(set.Accounts))
	for _, acct := range set.Accounts {
		names = append(names, accountName(acct))
	}
	return names, nil
}

func (c *Client) fetchAccounts(ctx context.Context, q url.Values) (*accountSet, error) {
	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid access URL: %w", common.ErrInvalidConfig, err)
	}
	u.RawQuery = q.Encode()

	var set accountSet
	err = common.WithRetry(ctx, func() error {
		set = accountSet{}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return common.ErrRateLimit
		case resp.StatusCode >= 500:
			body, _ := io.ReadAll(resp.Body)
			return &common.RetryableError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), Retryable: true}
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(resp.Body)
			return &common.RetryableError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), Retryable: false}
		}

		return json.NewDecoder(resp.Body).Decode(&set)
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: simplefin: %w", common.ErrSourceUnavailable, err)
	}

	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN reported a problem", "message", msg)
	}

	return &set, nil
}

func mapTransaction(acct account, tx transaction, date time.Time) (model.Transaction, error) {
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("simplefin: invalid amount %q for transaction %s: %w", tx.Amount, tx.ID, err)
	}

	payee := tx.Payee
	if strings.TrimSpace(payee) == "" {
		payee = tx.Description
	}

	txn := model.Transaction{
		ID:      acct.ID + "_" + tx.ID,
		Date:    date,
		Payee:   cleanMerchantName(payee),
		Amount:  amount.Round(2),
		Account: accountName(acct),
	}
	txn.Hash = txn.GenerateHash()
	return txn, nil
}

func accountName(acct account) string {
	if acct.Name != "" {
		return acct.Name
	}
	return acct.ID
}

// cleanMerchantName trims corporate suffixes and title-cases the payee.
func cleanMerchantName(raw string) string {
	name := strings.TrimSpace(raw)
	for _, suffix := range []string{" LLC", " INC", " CORP", " PTY LTD"} {
		if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			name = strings.TrimSpace(name[:len(name)-len(suffix)])
		}
	}
	return cases.Title(language.English).String(strings.ToLower(name))
}
