// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes isnippet vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/vault"
)

const layoutURI = "isnippet://vault-layout"

// Vaults is the subset of the vault manager the tools call into.
type Vaults interface {
	CreateVault(ctx context.Context, basePath, vaultName string) (*models.Vault, error)
	ImportVault(ctx context.Context, vaultPath string) (*models.Vault, error)
	ReadVault(ctx context.Context, vaultPath string) (*models.Vault, error)
}

// Configs loads the application config.
type Configs interface {
	Load() (*models.Config, error)
}

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp     *server.MCPServer
	vaults  Vaults
	configs Configs
}

// New creates a new MCP server with all vault tools registered.
func New(vaults Vaults, configs Configs) *Server {
	s := &Server{vaults: vaults, configs: configs}

	s.mcp = server.NewMCPServer(
		"isnippet",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_vault",
		mcp.WithDescription("Create a new vault folder named vaultName under basePath and make it the active vault. "+
			"Fails with VAULT_ALREADY_EXISTS if the folder is already there."),
		mcp.WithString("basePath", mcp.Required(), mcp.Description("Existing or creatable parent directory")),
		mcp.WithString("vaultName", mcp.Required(), mcp.Description("Folder name for the vault (no path separators)")),
	), s.createVault)

	s.mcp.AddTool(mcp.NewTool("import_vault",
		mcp.WithDescription("Open an existing vault folder and make it the active vault. "+
			"The folder must contain a .isnippet directory."),
		mcp.WithString("vaultPath", mcp.Required(), mcp.Description("Absolute path of the vault folder")),
	), s.importVault)

	s.mcp.AddTool(mcp.NewTool("read_vault",
		mcp.WithDescription("Read a vault's settings, workspace and snippet index without changing the active vault."),
		mcp.WithString("vaultPath", mcp.Required(), mcp.Description("Absolute path of the vault folder")),
	), s.readVault)

	s.mcp.AddTool(mcp.NewTool("get_config",
		mcp.WithDescription("Return the active vault and the most recently used vaults. Returns null on first run."),
	), s.getConfig)

	s.mcp.AddTool(mcp.NewTool("get_vault_layout",
		mcp.WithDescription("Returns the on-disk layout of an isnippet vault."),
	), s.getVaultLayout)

	s.mcp.AddResource(
		mcp.NewResource(layoutURI, "Vault Layout",
			mcp.WithResourceDescription("Directory structure and metadata documents of an isnippet vault."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// vaultResult renders the operation outcome as the JSON Result envelope.
// Failures are flagged as tool errors but keep the same body.
func vaultResult(v *models.Vault, err error) *mcp.CallToolResult {
	res := vault.NewResult(v, err)
	out, mErr := json.MarshalIndent(res, "", "  ")
	if mErr != nil {
		return mcp.NewToolResultError(mErr.Error())
	}
	if !res.Success {
		return mcp.NewToolResultError(string(out))
	}
	return mcp.NewToolResultText(string(out))
}

// argString returns "" for a missing argument so the vault manager reports
// the domain error instead of a schema error.
func argString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func (s *Server) createVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return vaultResult(s.vaults.CreateVault(ctx, argString(req, "basePath"), argString(req, "vaultName"))), nil
}

func (s *Server) importVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return vaultResult(s.vaults.ImportVault(ctx, argString(req, "vaultPath"))), nil
}

func (s *Server) readVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return vaultResult(s.vaults.ReadVault(ctx, argString(req, "vaultPath"))), nil
}

func (s *Server) getConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := s.configs.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getVaultLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VaultLayoutContract), nil
}

func (s *Server) readLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutURI,
			MIMEType: "text/markdown",
			Text:     VaultLayoutContract,
		},
	}, nil
}
