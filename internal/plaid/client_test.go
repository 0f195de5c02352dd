package plaid

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		errMsg  string
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "production", mutate: func(c *Config) { c.Environment = "production" }},
		{name: "missing client ID", mutate: func(c *Config) { c.ClientID = "" }, wantErr: common.ErrMissingConfig, errMsg: "plaid client ID is required"},
		{name: "missing secret", mutate: func(c *Config) { c.Secret = "" }, wantErr: common.ErrMissingConfig, errMsg: "plaid secret is required"},
		{name: "missing access token", mutate: func(c *Config) { c.AccessToken = "" }, wantErr: common.ErrMissingConfig, errMsg: "plaid access token is required"},
		{name: "missing environment", mutate: func(c *Config) { c.Environment = "" }, wantErr: common.ErrMissingConfig, errMsg: "plaid environment is required"},
		{name: "invalid environment", mutate: func(c *Config) { c.Environment = "development" }, wantErr: common.ErrInvalidConfig, errMsg: "invalid Plaid environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.client)
	assert.Equal(t, "test-token", client.accessToken)
	assert.Equal(t, 3, client.retryOpts.MaxAttempts)

	client, err = NewClient(Config{ClientID: "test-client-id"})
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_GetTransactions_Validation(t *testing.T) {
	client := &Client{
		accessToken: "test-token",
		logger:      slog.Default().With("component", "plaid-test"),
	}

	//nolint:staticcheck // nil context is the case under test
	_, err := client.GetTransactions(nil, time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cannot be nil")

	_, err = client.GetTransactions(context.Background(), time.Now(), time.Now().AddDate(0, -1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date must be before end date")
}

func TestMapTransaction(t *testing.T) {
	client := &Client{logger: slog.Default()}

	tests := []struct {
		name      string
		raw       rawTransaction
		wantPayee string
		wantAmt   string
		wantDate  string
	}{
		{
			name:      "expense becomes negative",
			raw:       rawTransaction{ID: "p1", AccountID: "acc", Date: "2024-03-15", Name: "STARBUCKS 8842", MerchantName: "Starbucks", Amount: 5.5},
			wantPayee: "Starbucks",
			wantAmt:   "-5.50",
			wantDate:  "2024-03-15",
		},
		{
			name:      "income becomes positive",
			raw:       rawTransaction{ID: "p2", Date: "2024-03-01", Name: "ACME PAYROLL 123456789", Amount: -2500},
			wantPayee: "Acme Payroll",
			wantAmt:   "2500.00",
			wantDate:  "2024-03-01",
		},
		{
			name:      "float noise is rounded",
			raw:       rawTransaction{ID: "p3", Date: "2024-03-02", Name: "uber", Amount: 12.300000000001},
			wantPayee: "Uber",
			wantAmt:   "-12.30",
			wantDate:  "2024-03-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := client.mapTransaction(tt.raw)
			assert.Equal(t, tt.raw.ID, tx.ID)
			assert.Equal(t, tt.raw.AccountID, tx.Account)
			assert.Equal(t, tt.wantPayee, tx.Payee)
			assert.Equal(t, tt.wantAmt, tx.Amount.StringFixed(2))
			assert.Equal(t, tt.wantDate, tx.Date.Format("2006-01-02"))
			assert.NotEmpty(t, tx.Hash)
		})
	}
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "basic name", input: "Starbucks", expected: "Starbucks"},
		{name: "lowercase to title case", input: "starbucks coffee", expected: "Starbucks Coffee"},
		{name: "remove LLC suffix", input: "Amazon LLC", expected: "Amazon"},
		{name: "remove Inc suffix", input: "Apple Inc", expected: "Apple"},
		{name: "remove Pty Ltd suffix", input: "WOOLWORTHS PTY LTD", expected: "Woolworths"},
		{name: "remove transaction ID", input: "PAYPAL 123456789", expected: "Paypal"},
		{name: "preserve short numbers", input: "7-ELEVEN 2345", expected: "7-Eleven 2345"},
		{name: "multiple cleanups", input: "amazon.com llc 987654321", expected: "Amazon.Com"},
		{name: "extra spaces", input: "  Google   Cloud   ", expected: "Google Cloud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123456", true},
		{"12a456", false},
		{"", true},
		{"12.34", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, isAllDigits(tt.input))
		})
	}
}
