package vault

import (
	"github.com/starford/isnippet/internal/apperr"
	"github.com/starford/isnippet/internal/models"
)

// Result is the wire form of an operation outcome: either success with
// the vault, or failure with a code and its fixed message.
type Result struct {
	Success   bool              `json:"success"`
	Data      *models.VaultData `json:"data,omitempty"`
	VaultPath string            `json:"vaultPath,omitempty"`
	VaultName string            `json:"vaultName,omitempty"`
	Code      apperr.Code       `json:"code,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// NewResult converts a manager return pair into a Result.
func NewResult(v *models.Vault, err error) Result {
	if err != nil {
		code := apperr.CodeOf(err)
		return Result{Code: code, Error: code.Message()}
	}
	if v == nil {
		return Result{Code: apperr.CodeUnknown, Error: apperr.CodeUnknown.Message()}
	}
	data := v.Data
	return Result{
		Success:   true,
		Data:      &data,
		VaultPath: v.Path,
		VaultName: v.Name,
	}
}
