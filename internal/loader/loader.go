// Package loader reads template files from disk and turns them into
// TemplateDescriptions ready for compilation.
//
// A template file is a YAML document:
//
//	name: card
//	style: |
//	  .card { border: 1px solid #ddd; }
//	slots:
//	  - header
//	  - body
//	markup: |
//	  <div class="card">
//	    <div class="card-header"><slot name="header"></slot></div>
//	    <div class="card-body"><slot name="body"></slot></div>
//	  </div>
//	preview:
//	  header: "<h1>Sample header</h1>"
//	  body: "<p>Sample body</p>"
//
// Markup is an HTML fragment; <slot name="..."> elements become slot
// markers. The preview section supplies sample projections for the preview
// server and is optional.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/shadowtpl/internal/errors"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// Template is a loaded template file: the description to compile, the
// identity to register it under, and optional preview projections.
type Template struct {
	Name        string
	DisplayName string
	Path        string
	Description types.TemplateDescription
	Preview     types.Projection
}

type templateFile struct {
	Name    string            `yaml:"name"`
	Style   string            `yaml:"style"`
	Slots   []string          `yaml:"slots"`
	Markup  string            `yaml:"markup"`
	Preview map[string]string `yaml:"preview"`
}

var titleCaser = cases.Title(language.English)

// LoadFile reads and parses a single template file.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("template_read", fmt.Sprintf("reading template file %s", path), err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewIOError("template_parse", fmt.Sprintf("parsing template file %s", path), err)
	}

	if file.Name == "" {
		return nil, errors.NewConfigError("template_name", fmt.Sprintf("template file %s has no name", path), nil)
	}

	markup, err := ParseMarkup(file.Markup)
	if err != nil {
		return nil, errors.NewIOError("markup_parse", fmt.Sprintf("parsing markup in %s", path), err)
	}

	preview := make(types.Projection, len(file.Preview))
	for slot, fragment := range file.Preview {
		nodes, err := ParseMarkup(fragment)
		if err != nil {
			return nil, errors.NewIOError("markup_parse", fmt.Sprintf("parsing preview content for slot %q in %s", slot, path), err)
		}
		preview[slot] = nodes
	}

	return &Template{
		Name:        file.Name,
		DisplayName: displayName(file.Name),
		Path:        path,
		Description: types.TemplateDescription{
			Style:     file.Style,
			Markup:    markup,
			SlotNames: file.Slots,
		},
		Preview: preview,
	}, nil
}

// Scan walks the given directories and loads every .yml/.yaml template file,
// skipping paths whose base name matches an exclude pattern. Results are
// ordered by path.
func Scan(scanPaths, excludePatterns []string) ([]*Template, error) {
	var templates []*Template

	for _, root := range scanPaths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if excluded(d.Name(), excludePatterns) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isTemplateFile(path) || excluded(d.Name(), excludePatterns) {
				return nil
			}

			tpl, err := LoadFile(path)
			if err != nil {
				return err
			}
			templates = append(templates, tpl)
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	return templates, nil
}

func isTemplateFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func displayName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(cleaned)
}

// ParseMarkup parses an HTML fragment into the node model. <slot name="x">
// elements become slot markers; comments and whitespace-only text are
// dropped.
func ParseMarkup(fragment string) ([]types.Node, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}

	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}

	parsed, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, err
	}

	return convertNodes(parsed), nil
}

func convertNodes(nodes []*html.Node) []types.Node {
	var converted []types.Node

	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				continue
			}
			converted = append(converted, types.TextNode{Text: n.Data})

		case html.ElementNode:
			if n.Data == "slot" {
				if name := attrValue(n, "name"); name != "" {
					converted = append(converted, types.SlotMarker{Name: name})
				}
				continue
			}

			element := types.ElementNode{Tag: n.Data}
			for _, attr := range n.Attr {
				element.Attributes = append(element.Attributes, types.Attribute{Key: attr.Key, Value: attr.Val})
			}
			element.Children = convertNodes(childNodes(n))
			converted = append(converted, element)
		}
	}

	return converted
}

func childNodes(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
