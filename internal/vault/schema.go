package vault

import (
	"time"

	"github.com/starford/isnippet/internal/models"
)

// On-disk layout, relative to the vault root.
const (
	SnippetsDir   = "snippets"
	MetaDir       = ".isnippet"
	IndexFile     = MetaDir + "/index.json"
	SettingsFile  = MetaDir + "/settings.json"
	WorkspaceFile = MetaDir + "/workspace.json"
)

// DefaultDocuments returns the metadata written into a new vault.
// now stamps workspace.lastOpened and settings.createdAt.
func DefaultDocuments(now time.Time) models.VaultData {
	ms := now.UnixMilli()
	return models.VaultData{
		Settings: models.VaultSettings{
			AutoOrganize: true,
			AutoTags:     true,
			AutoSummary:  false,
			CreatedAt:    ms,
		},
		Workspace: models.VaultWorkspace{
			LastOpened:  ms,
			SidebarOpen: true,
		},
		Index: models.VaultIndex{
			Snippets: []models.Snippet{},
		},
	}
}
