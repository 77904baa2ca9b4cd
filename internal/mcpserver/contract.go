package mcpserver

// VaultLayoutContract describes the on-disk layout of a vault so that LLM
// consumers can reason about paths returned by the vault tools.
const VaultLayoutContract = `# isnippet Vault Layout

A vault is a plain directory. It is recognised as a vault only when it
contains a ` + "`" + `.isnippet` + "`" + ` directory.

## Structure

` + "```" + `text
<vault>/
  snippets/              user content, one file per snippet
  .isnippet/
    settings.json        {"autoOrganize", "autoTags", "autoSummary", "createdAt"}
    workspace.json       {"lastOpened", "sidebarOpen"}
    index.json           {"snippets": [...]}
` + "```" + `

## Rules

1. Every metadata document is a single JSON object, UTF-8, two-space indented.
2. ` + "`" + `createdAt` + "`" + ` and ` + "`" + `lastOpened` + "`" + ` are epoch milliseconds.
3. ` + "`" + `index.json` + "`" + ` entries are opaque to the vault tools; they are returned unchanged.
4. Creating a vault never overwrites an existing folder. Pick a new name instead.
5. Reading a vault does not change the active vault. Creating or importing one does.

## Results

Every vault tool returns the same envelope:

` + "```" + `json
{"success": true, "vaultPath": "/home/me/Vaults/work", "vaultName": "work", "data": {...}}
{"success": false, "code": "INVALID_VAULT", "error": "This folder is not a valid isnippet vault. Make sure it contains a .isnippet folder."}
` + "```" + `

Error codes: VAULT_ALREADY_EXISTS, VAULT_PATH_NOT_EXIST, INVALID_VAULT,
CORRUPT_VAULT, VAULT_NAME_EMPTY, INVALID_VAULT_NAME, NO_VAULT_SELECTED,
UNKNOWN_ERROR.
`
