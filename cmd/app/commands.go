package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/isnippet/internal"
	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/picker"
	"github.com/starford/isnippet/internal/vault"
)

// services builds the vault manager for one-shot commands. Logs go to
// stderr so stdout only carries the JSON result.
func services(cmd *cli.Command) (*internal.Services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.NewServices(cfg, internal.NewLogger(cfg.App.LogLevel, os.Stderr))
}

func prompt() picker.Picker {
	return picker.Prompt{In: os.Stdin, Out: os.Stderr}
}

// printResult writes the Result envelope and turns a failure into a
// non-zero exit.
func printResult(w io.Writer, v *models.Vault, err error) error {
	res := vault.NewResult(v, err)
	if encErr := printJSON(w, res); encErr != nil {
		return encErr
	}
	if !res.Success {
		return cli.Exit("", 1)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a vault named NAME under BASE_PATH (prompted when omitted)",
		ArgsUsage: "NAME [BASE_PATH]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := services(cmd)
			if err != nil {
				return err
			}
			name := cmd.Args().Get(0)
			base := cmd.Args().Get(1)
			if base == "" && name != "" {
				selected, ok, err := prompt().SelectDirectory(ctx, "Select Vault Location")
				if err != nil {
					return err
				}
				if ok {
					base = selected
				}
			}
			v, err := svcs.Vaults.CreateVault(ctx, base, name)
			return printResult(os.Stdout, v, err)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an existing vault and make it active (prompted when omitted)",
		ArgsUsage: "[VAULT_PATH]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := services(cmd)
			if err != nil {
				return err
			}
			var v *models.Vault
			if path := cmd.Args().First(); path != "" {
				v, err = svcs.Vaults.ImportVault(ctx, path)
			} else {
				v, err = svcs.Vaults.ImportSelected(ctx, prompt())
			}
			return printResult(os.Stdout, v, err)
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Print a vault's metadata without changing the active vault",
		ArgsUsage: "[VAULT_PATH]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svcs, err := services(cmd)
			if err != nil {
				return err
			}
			path := cmd.Args().First()
			if path == "" {
				// Reopen the last active vault.
				cfg, err := svcs.Configs.Load()
				if err != nil {
					return err
				}
				path = cfg.Active()
			}
			v, err := svcs.Vaults.ReadVault(ctx, path)
			return printResult(os.Stdout, v, err)
		},
	}
}

func recentCommand() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Print the active vault and recently used vaults",
		Action: func(_ context.Context, cmd *cli.Command) error {
			svcs, err := services(cmd)
			if err != nil {
				return err
			}
			cfg, err := svcs.Configs.Load()
			if err != nil {
				return err
			}
			if cfg == nil {
				return errors.New("no vault has been created or imported yet")
			}
			return printJSON(os.Stdout, cfg)
		},
	}
}
