package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/djls-dev/djls/internal/config"
	"github.com/djls-dev/djls/internal/lspserver"
	"github.com/djls-dev/djls/internal/workspace"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return errors.Trace(err)
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				// A malformed config must not keep the server from
				// starting; fall back to defaults.
				cfg = &config.Config{}
			}

			ws := workspace.New()
			if _, modules, err := workspace.Discover(cfg.TemplateDirs(cwd)); err == nil {
				ws.SetModules(modules)
			}

			return errors.Trace(lspserver.New(ws, cfg, version).RunStdio())
		},
	}
}
