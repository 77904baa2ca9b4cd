package vault

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/isnippet/internal/apperr"
	"github.com/starford/isnippet/internal/models"
)

func TestNewResult_Success(t *testing.T) {
	v := &models.Vault{Name: "v", Path: "/x/v", Data: DefaultDocuments(time.UnixMilli(42))}
	r := NewResult(v, nil)
	require.True(t, r.Success)
	assert.Equal(t, "/x/v", r.VaultPath)
	assert.Equal(t, "v", r.VaultName)
	assert.Equal(t, int64(42), r.Data.Workspace.LastOpened)
	assert.Empty(t, r.Code)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.ElementsMatch(t, []string{"success", "data", "vaultPath", "vaultName"}, keys(m))
}

func TestNewResult_Failure(t *testing.T) {
	r := NewResult(nil, apperr.Wrap(apperr.CodeInvalidVault, errors.New("/secret/path missing")))
	assert.False(t, r.Success)
	assert.Equal(t, apperr.CodeInvalidVault, r.Code)
	assert.Equal(t, apperr.CodeInvalidVault.Message(), r.Error)
	assert.NotContains(t, r.Error, "/secret/path")

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.ElementsMatch(t, []string{"success", "code", "error"}, keys(m))
}

func TestNewResult_Unclassified(t *testing.T) {
	r := NewResult(nil, errors.New("boom"))
	assert.Equal(t, apperr.CodeUnknown, r.Code)
	assert.Equal(t, apperr.CodeUnknown.Message(), r.Error)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
