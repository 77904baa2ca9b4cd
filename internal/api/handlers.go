package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/isnippet/internal/checksum"
	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/storage"
	"github.com/starford/isnippet/internal/vault"
)

const maxBodyBytes = 1 << 20

// VaultService is the subset of the vault manager the API needs.
type VaultService interface {
	CreateVault(ctx context.Context, basePath, vaultName string) (*models.Vault, error)
	ImportVault(ctx context.Context, vaultPath string) (*models.Vault, error)
	ReadVault(ctx context.Context, vaultPath string) (*models.Vault, error)
}

// ConfigSource loads the persisted app config. A nil config means first run.
type ConfigSource interface {
	Load() (*models.Config, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc     VaultService
	configs ConfigSource
}

// NewHandler creates a new Handler.
func NewHandler(svc VaultService, configs ConfigSource) *Handler {
	return &Handler{svc: svc, configs: configs}
}

// CreateVault handles POST /api/vaults.
//
//	@Summary		Create a new vault
//	@Tags			vaults
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateVaultRequest	true	"Location and name"
//	@Success		201		{object}	VaultResult
//	@Failure		400		{object}	VaultResult
//	@Failure		409		{object}	VaultResult
//	@Security		BearerAuth
//	@Router			/vaults [post]
func (h *Handler) CreateVault(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, malformedBody())
		return
	}
	v, err := h.svc.CreateVault(r.Context(), req.BasePath, req.VaultName)
	writeResult(w, http.StatusCreated, vault.NewResult(v, err))
}

// ImportVault handles POST /api/vaults/import.
//
//	@Summary		Import an existing vault
//	@Tags			vaults
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportVaultRequest	true	"Vault folder"
//	@Success		200		{object}	VaultResult
//	@Failure		400		{object}	VaultResult
//	@Failure		404		{object}	VaultResult
//	@Failure		422		{object}	VaultResult
//	@Security		BearerAuth
//	@Router			/vaults/import [post]
func (h *Handler) ImportVault(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ImportVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, malformedBody())
		return
	}
	v, err := h.svc.ImportVault(r.Context(), req.VaultPath)
	writeResult(w, http.StatusOK, vault.NewResult(v, err))
}

// ReadVault handles GET /api/vault?path=...
//
// The ETag is the checksum of the vault documents, so an unchanged vault
// answers If-None-Match with 304.
//
//	@Summary		Read the documents of a vault
//	@Tags			vaults
//	@Produce		json
//	@Param			path	query		string	true	"Vault folder"
//	@Success		200		{object}	VaultResult
//	@Success		304		"Not modified"
//	@Failure		422		{object}	VaultResult
//	@Security		BearerAuth
//	@Router			/vault [get]
func (h *Handler) ReadVault(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.ReadVault(r.Context(), r.URL.Query().Get("path"))
	res := vault.NewResult(v, err)
	if res.Success {
		if tag, ok := dataETag(res.Data); ok {
			w.Header().Set("ETag", tag)
			if checksum.Match(r.Header.Get("If-None-Match"), tag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	writeResult(w, http.StatusOK, res)
}

func dataETag(data *models.VaultData) (string, bool) {
	raw, err := storage.Encode(data)
	if err != nil {
		return "", false
	}
	return checksum.ETag(raw), true
}

// GetConfig handles GET /api/config. The body is `null` before the first
// vault has been created or imported.
//
//	@Summary		Active and recent vaults
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	models.Config
//	@Security		BearerAuth
//	@Router			/config [get]
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Load()
	if err != nil {
		slog.Error("load config failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
