package main

import (
	"encoding/json"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/djls-dev/djls/internal/extract"
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// extractOutput is the JSON shape `djls extract` prints: one entry per
// recovered symbol, keyed "module::name".
type extractOutput struct {
	TagRules    map[string]tagdb.TagRule     `json:"tag_rules"`
	BlockSpecs  map[string]tagdb.BlockSpec   `json:"block_specs"`
	FilterArity map[string]tagdb.FilterArity `json:"filter_arities"`
}

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <python-files...>",
		Short: "Print the tag/filter facts extracted from tag-library modules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := extractOutput{
				TagRules:    make(map[string]tagdb.TagRule),
				BlockSpecs:  make(map[string]tagdb.BlockSpec),
				FilterArity: make(map[string]tagdb.FilterArity),
			}
			for _, path := range args {
				source, err := os.ReadFile(path)
				if err != nil {
					return errors.Annotatef(err, "reading %s", path)
				}
				tree, err := pyast.Parse(source)
				if err != nil {
					return errors.Annotatef(err, "parsing %s", path)
				}
				res := extract.AnalyzeModule(tree.Root(), path)
				tree.Close()
				for k, v := range res.TagRules {
					out.TagRules[k.Module+"::"+k.Name] = v
				}
				for k, v := range res.BlockSpecs {
					out.BlockSpecs[k.Module+"::"+k.Name] = v
				}
				for k, v := range res.FilterArity {
					out.FilterArity[k.Module+"::"+k.Name] = v
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return errors.Trace(enc.Encode(out))
		},
	}
}
