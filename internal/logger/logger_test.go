package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "prod").Info("account created", "account_number", "1000000000")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "account created", line["msg"])
	assert.Equal(t, "account-ledger", line["service"])
	assert.Equal(t, "1000000000", line["account_number"])
}

func TestNewWriter_DevLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "dev").Debug("lock acquired")
	assert.Contains(t, buf.String(), "lock acquired")

	buf.Reset()
	NewWriter(&buf, "prod").Debug("lock acquired")
	assert.Empty(t, buf.String())
}
