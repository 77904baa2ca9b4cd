package api

import "github.com/starford/isnippet/internal/vault"

// CreateVaultRequest is the request body for creating a vault.
type CreateVaultRequest = vault.CreateRequest

// ImportVaultRequest is the request body for importing a vault. An empty
// path means the folder picker was cancelled.
type ImportVaultRequest struct {
	VaultPath string `json:"vaultPath" example:"/home/me/snippets"`
}

// VaultResult is the response body of every vault operation.
type VaultResult = vault.Result
