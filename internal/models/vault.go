// Package models defines the domain types for isnippet.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VaultSettings is the content of .isnippet/settings.json.
type VaultSettings struct {
	AutoOrganize bool `json:"autoOrganize"`
	AutoTags     bool `json:"autoTags"`
	AutoSummary  bool `json:"autoSummary"`
	// CreatedAt is epoch milliseconds. Vaults written by older builds omit it.
	CreatedAt int64 `json:"createdAt,omitempty"`
}

// VaultWorkspace is the content of .isnippet/workspace.json.
type VaultWorkspace struct {
	LastOpened  int64 `json:"lastOpened"` // epoch milliseconds
	SidebarOpen bool  `json:"sidebarOpen"`
}

// Snippet is an opaque index record. The core never interprets its fields.
// Numbers read from disk are json.Number, so they are written back digit
// for digit.
type Snippet map[string]any

// VaultIndex is the content of .isnippet/index.json.
type VaultIndex struct {
	Snippets []Snippet `json:"snippets"`
}

// MarshalJSON writes a nil list as `[]`, the same document a new vault gets.
// Nil and empty Snippets are therefore the same value on disk.
func (i VaultIndex) MarshalJSON() ([]byte, error) {
	type plain VaultIndex
	if i.Snippets == nil {
		i.Snippets = []Snippet{}
	}
	return json.Marshal(plain(i))
}

// UnmarshalJSON accepts the legacy `"snippets": {}` and `null` forms as an
// empty list. A non-empty object is rejected.
func (i *VaultIndex) UnmarshalJSON(data []byte) error {
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return fmt.Errorf("index: document must be an object")
	}
	var raw struct {
		Snippets json.RawMessage `json:"snippets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s := bytes.TrimSpace(raw.Snippets)
	switch {
	case len(s) == 0 || bytes.Equal(s, []byte("null")):
		i.Snippets = []Snippet{}
		return nil
	case s[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(s, &obj); err != nil {
			return err
		}
		if len(obj) > 0 {
			return fmt.Errorf("index: snippets must be an array, got object with %d keys", len(obj))
		}
		i.Snippets = []Snippet{}
		return nil
	}
	var list []Snippet
	dec := json.NewDecoder(bytes.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&list); err != nil {
		return err
	}
	if list == nil {
		list = []Snippet{}
	}
	i.Snippets = list
	return nil
}

// VaultData is the in-memory aggregate of the three metadata documents.
type VaultData struct {
	Settings  VaultSettings  `json:"settings"`
	Workspace VaultWorkspace `json:"workspace"`
	Index     VaultIndex     `json:"index"`
}

// Vault is a loaded vault: its location plus its metadata documents.
type Vault struct {
	Name string    `json:"vaultName"`
	Path string    `json:"vaultPath"`
	Data VaultData `json:"data"`
}

// Config is the process-wide record of the active vault and recent vaults.
// It is not tied to any single vault.
type Config struct {
	ActiveVault  *string  `json:"activeVault"`
	RecentVaults []string `json:"recentVaults"`
}

// Active returns the active vault path, or "" when none is set.
func (c *Config) Active() string {
	if c == nil || c.ActiveVault == nil {
		return ""
	}
	return *c.ActiveVault
}
