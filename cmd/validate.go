package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:     "validate [files...]",
	Aliases: []string{"v"},
	Short:   "Validate template files",
	Long: `Validate template files by compiling each one: slot declarations are
checked for duplicates, every slot marker must reference a declared name,
and the style block must be parseable CSS.

With no arguments, validates every template under the configured scan paths.

Examples:
  shadowtpl validate                      # Validate all configured templates
  shadowtpl validate templates/card.yml   # Validate specific files`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	var templates []*loader.Template
	if len(args) > 0 {
		for _, path := range args {
			tpl, err := loader.LoadFile(path)
			if err != nil {
				return err
			}
			templates = append(templates, tpl)
		}
	} else {
		templates, err = loader.Scan(cfg.Templates.ScanPaths, cfg.Templates.ExcludePatterns)
		if err != nil {
			return err
		}
	}

	failures := 0
	for _, tpl := range templates {
		if _, err := compiler.Compile(tpl.Description); err != nil {
			failures++
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s (%s): %v\n", tpl.Name, tpl.Path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d slots)\n", tpl.Name, len(tpl.Description.SlotNames))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d templates failed validation", failures, len(templates))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d templates valid\n", len(templates))
	return nil
}
