package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressionThreshold(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: json.RawMessage(`{"number":"ENC001"}`)}
	svc.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload, err := json.Marshal(map[string]string{"notes": strings.Repeat("a", DefaultCompressThreshold+1)})
	require.NoError(t, err)
	large := AuditEntry{Changes: payload}
	svc.compress(&large)

	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, svc.decompress(&large))
	assert.JSONEq(t, string(payload), string(large.Changes))
	assert.Nil(t, large.ChangesCompressed)
}
