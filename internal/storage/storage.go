// Package storage keeps uploaded claim receipts on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/helpinghands/helpinghands/internal/config"
)

// MaxReceiptSize bounds a single upload.
const MaxReceiptSize = 10 << 20

// ReceiptStore saves and removes receipt files by key.
type ReceiptStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
}

// New picks the store configured by cfg.
func New(ctx context.Context, cfg config.ReceiptConfig) (ReceiptStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown receipt store %q", cfg.Backend)
	}
}

// ReceiptKey builds the object key of a claim's receipt, keeping the
// original file extension.
func ReceiptKey(claimID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 8 {
		ext = ""
	}
	return "receipts/" + claimID + ext
}

func readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxReceiptSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxReceiptSize {
		return nil, fmt.Errorf("receipt exceeds %d bytes", MaxReceiptSize)
	}
	return data, nil
}
