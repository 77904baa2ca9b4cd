package vault

import (
	"errors"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/isnippet/internal/apperr"
)

// CreateRequest carries the user's choices for a new vault.
type CreateRequest struct {
	BasePath  string `json:"basePath"`
	VaultName string `json:"vaultName"`
}

var errPathInName = errors.New("must be a single path segment")

func plainName(value any) error {
	s, _ := value.(string)
	if s == "." || s == ".." || strings.ContainsAny(s, `/\`) || filepath.Base(s) != s {
		return errPathInName
	}
	return nil
}

// Validate checks the name before the location, matching the order the
// form reports them. The returned error is an *apperr.Error.
func (r CreateRequest) Validate() error {
	name := strings.TrimSpace(r.VaultName)
	if err := validation.Validate(name, validation.Required); err != nil {
		return apperr.Wrap(apperr.CodeVaultNameEmpty, err)
	}
	if err := validation.Validate(name, validation.By(plainName)); err != nil {
		return apperr.Wrap(apperr.CodeInvalidVaultName, err)
	}
	if err := validation.Validate(strings.TrimSpace(r.BasePath), validation.Required); err != nil {
		return apperr.Wrap(apperr.CodeNoVaultSelected, err)
	}
	return nil
}
