// Package feed reads transactions from JSON exports.
//
// A feed is either a bare array of transactions or an object with a
// "transactions" array. Amounts are signed, with expenses negative, and may be
// given as numbers or strings.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

type envelope struct {
	Transactions []model.Transaction `json:"transactions"`
}

// Decode reads a feed. Transactions without an id get one derived from their
// content hash.
func Decode(r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var txns []model.Transaction
	if data[0] == '[' {
		err = json.Unmarshal(data, &txns)
	} else {
		var env envelope
		err = json.Unmarshal(data, &env)
		txns = env.Transactions
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	for i := range txns {
		txns[i].Hash = txns[i].GenerateHash()
		if txns[i].ID == "" {
			txns[i].ID = txns[i].Hash[:16]
		}
	}

	return txns, nil
}

// Encode writes transactions in the envelope form.
func Encode(w io.Writer, txns []model.Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Transactions: txns})
}

// FileSource reads one JSON feed file.
type FileSource struct {
	logger *slog.Logger
	path   string
}

var _ service.TransactionSource = (*FileSource)(nil)

// NewFileSource creates a source for the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, logger: slog.Default().With("component", "feed")}
}

// Name identifies the source in run history.
func (s *FileSource) Name() string {
	return "json:" + s.path
}

// Transactions decodes the whole file. Filtering is left to the batch
// processor.
func (s *FileSource) Transactions(ctx context.Context, _ service.TransactionFilter) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	txns, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	s.logger.Info("Loaded transactions", "path", s.path, "count", len(txns))
	return txns, nil
}
