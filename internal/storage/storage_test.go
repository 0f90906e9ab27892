package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/config"
)

func TestReceiptKey(t *testing.T) {
	assert.Equal(t, "receipts/CLM0000AAAA.jpg", ReceiptKey("CLM0000AAAA", "Taxi Receipt.JPG"))
	assert.Equal(t, "receipts/CLM0000AAAA.pdf", ReceiptKey("CLM0000AAAA", `C:\scans\bill.pdf`))
	assert.Equal(t, "receipts/CLM0000AAAA", ReceiptKey("CLM0000AAAA", "noext"))
}

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := New(context.Background(), config.ReceiptConfig{Backend: "local", Dir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "receipts/CLM1.png", "image/png", strings.NewReader("png-bytes")))
	data, err := os.ReadFile(filepath.Join(dir, "receipts", "CLM1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "receipts/CLM1.png"))
	require.NoError(t, store.Delete(ctx, "receipts/CLM1.png"))
	_, err = os.Stat(filepath.Join(dir, "receipts", "CLM1.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	err = store.Save(context.Background(), "../outside.txt", "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.ReceiptConfig{Backend: "ftp"})
	assert.Error(t, err)
}
