package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/loader"
	"github.com/conneroisu/shadowtpl/internal/registry"
	"github.com/conneroisu/shadowtpl/internal/renderer"
	"github.com/conneroisu/shadowtpl/internal/types"
)

var renderCmd = &cobra.Command{
	Use:     "render <name>",
	Aliases: []string{"r"},
	Short:   "Render a template with projected content",
	Long: `Render one template as HTML. Slot content comes from a projection file
(a YAML mapping of slot name to an HTML fragment) or, without one, from the
template's own preview section.

Examples:
  shadowtpl render card                          # Render with preview content
  shadowtpl render card -p projection.yml        # Render with a projection file
  shadowtpl render card -o card.html             # Write output to a file`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderProjectionFile string
	renderOutputFile     string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().
		StringVarP(&renderProjectionFile, "projection", "p", "", "YAML file mapping slot names to HTML fragments")
	renderCmd.Flags().
		StringVarP(&renderOutputFile, "output", "o", "", "Write rendered HTML to a file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	templates, err := loader.Scan(cfg.Templates.ScanPaths, cfg.Templates.ExcludePatterns)
	if err != nil {
		return err
	}

	reg := registry.New()
	rend := renderer.New(reg)

	var target *loader.Template
	for _, tpl := range templates {
		def, err := compiler.Compile(tpl.Description)
		if err != nil {
			return fmt.Errorf("compiling template %s: %w", tpl.Name, err)
		}
		if _, err := reg.Register(tpl.Name, def); err != nil {
			return err
		}
		if tpl.Name == name {
			target = tpl
		}
	}
	if target == nil {
		return fmt.Errorf("template %q not found under %v", name, cfg.Templates.ScanPaths)
	}

	projection, err := renderProjection(target)
	if err != nil {
		return err
	}

	instance, err := rend.Instantiate(name, projection)
	if err != nil {
		return err
	}

	rendered, err := instance.HTML()
	if err != nil {
		return err
	}

	if renderOutputFile != "" {
		return os.WriteFile(renderOutputFile, []byte(rendered+"\n"), 0644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

// renderProjection builds the projection from --projection, falling back to
// the template's preview section. Declared slots with no content anywhere
// get explicit empty content.
func renderProjection(tpl *loader.Template) (types.Projection, error) {
	projection := types.CloneProjection(tpl.Preview)
	if projection == nil {
		projection = make(types.Projection)
	}

	if renderProjectionFile != "" {
		data, err := os.ReadFile(renderProjectionFile)
		if err != nil {
			return nil, err
		}
		var fragments map[string]string
		if err := yaml.Unmarshal(data, &fragments); err != nil {
			return nil, fmt.Errorf("parsing projection file %s: %w", renderProjectionFile, err)
		}
		for slot, fragment := range fragments {
			nodes, err := loader.ParseMarkup(fragment)
			if err != nil {
				return nil, fmt.Errorf("parsing projection content for slot %q: %w", slot, err)
			}
			if nodes == nil {
				nodes = []types.Node{}
			}
			projection[slot] = nodes
		}
	}

	for _, name := range tpl.Description.SlotNames {
		if _, ok := projection[name]; !ok {
			projection[name] = []types.Node{}
		}
	}

	return projection, nil
}
