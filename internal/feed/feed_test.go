package feed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
	"github.com/Veraticus/the-spice-must-sort/internal/testutil"
)

const sampleFeed = `{
  "transactions": [
    {"id": "t1", "date": "2024-03-15T00:00:00Z", "payee": "WOOLWORTHS 1234 SYDNEY", "amount": -82.40, "account": "Everyday"},
    {"id": "t2", "date": "2024-03-16T00:00:00Z", "payee": "Netflix.com", "amount": "-15.99",
     "category": {"id": "9", "title": "Entertainment"}, "confidence": 85},
    {"date": "2024-03-17T00:00:00Z", "payee": "ACME PAYROLL", "amount": 2500}
  ]
}`

func TestDecodeEnvelope(t *testing.T) {
	txns, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "-82.40", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "Everyday", txns[0].Account)
	assert.False(t, txns[0].HasCategory())

	assert.Equal(t, "Entertainment", txns[1].CategoryTitle())
	conf, ok := txns[1].RecordedConfidence()
	assert.True(t, ok)
	assert.Equal(t, 85, conf)

	assert.Len(t, txns[2].ID, 16)
	assert.True(t, txns[2].IsIncome())
	for _, txn := range txns {
		assert.NotEmpty(t, txn.Hash)
	}
}

func TestDecodeArray(t *testing.T) {
	txns, err := Decode(strings.NewReader(`[{"id":"a","payee":"Cafe Roma","amount":"-4.50"}]`))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Cafe Roma", txns[0].Payee)
}

func TestDecodeTolerance(t *testing.T) {
	txns, err := Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, txns)

	txns, err = Decode(strings.NewReader(`[{"id":"no-payee"}]`))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Empty(t, txns[0].Payee)
	assert.True(t, txns[0].Amount.IsZero())

	_, err = Decode(strings.NewReader(`{"transactions": [`))
	require.Error(t, err)
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	original := []model.Transaction{
		testutil.NewTxn("t1", "UBER *TRIP", "-23.10").WithAccount("Credit").Build(),
		testutil.NewTxn("t2", "Coles 0421", "-54.00").WithCategory("Groceries").WithConfidence(95).Build(),
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, original[0].Hash, decoded[0].Hash)
	assert.Equal(t, "Groceries", decoded[1].CategoryTitle())
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))

	source := NewFileSource(path)
	assert.Equal(t, "json:"+path, source.Name())

	txns, err := source.Transactions(context.Background(), service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 3)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Transactions(context.Background(), service.TransactionFilter{})
	require.ErrorIs(t, err, common.ErrSourceUnavailable)
}
