package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/loader"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all discovered templates",
	Long: `List all templates found under the configured scan paths with their
declared slots and validation status.

Examples:
  shadowtpl list                  # List templates in table format
  shadowtpl list -f json          # Output as JSON
  shadowtpl list --format yaml    # Output as YAML`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().
		StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

type templateListing struct {
	Name        string   `json:"name" yaml:"name"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Path        string   `json:"path" yaml:"path"`
	Slots       []string `json:"slots" yaml:"slots"`
	Valid       bool     `json:"valid" yaml:"valid"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	templates, err := loader.Scan(cfg.Templates.ScanPaths, cfg.Templates.ExcludePatterns)
	if err != nil {
		return err
	}

	listings := make([]templateListing, 0, len(templates))
	for _, tpl := range templates {
		listing := templateListing{
			Name:        tpl.Name,
			DisplayName: tpl.DisplayName,
			Path:        tpl.Path,
			Slots:       tpl.Description.SlotNames,
			Valid:       true,
		}
		if _, err := compiler.Compile(tpl.Description); err != nil {
			listing.Valid = false
			listing.Error = err.Error()
		}
		listings = append(listings, listing)
	}

	out := cmd.OutOrStdout()

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listings)
	case "yaml":
		return yaml.NewEncoder(out).Encode(listings)
	case "table":
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSLOTS\tVALID\tPATH")
		for _, listing := range listings {
			valid := "yes"
			if !listing.Valid {
				valid = "no"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				listing.Name, strings.Join(listing.Slots, ","), valid, listing.Path)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q (expected table, json or yaml)", listFormat)
	}
}
