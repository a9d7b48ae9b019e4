package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/shadowtpl/internal/types"
)

const cardTemplate = `name: pricing-card
style: |
  .card { border: 1px solid #ddd; }
slots:
  - header
  - body
markup: |
  <div class="card">
    <div class="card-header"><slot name="header"></slot></div>
    <div class="card-body"><slot name="body"></slot></div>
  </div>
preview:
  header: "<h2>Pro plan</h2>"
  body: "<p>All the features.</p>"
`

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "card.yml", cardTemplate)

	tpl, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "pricing-card", tpl.Name)
	assert.Equal(t, "Pricing Card", tpl.DisplayName)
	assert.Equal(t, path, tpl.Path)
	assert.Equal(t, []string{"header", "body"}, tpl.Description.SlotNames)
	assert.Contains(t, tpl.Description.Style, ".card")

	require.Len(t, tpl.Description.Markup, 1)
	card := tpl.Description.Markup[0].(types.ElementNode)
	assert.Equal(t, "div", card.Tag)
	require.Len(t, card.Children, 2)

	header := card.Children[0].(types.ElementNode)
	require.Len(t, header.Children, 1)
	assert.Equal(t, types.SlotMarker{Name: "header"}, header.Children[0])

	require.Len(t, tpl.Preview, 2)
	headerPreview := tpl.Preview["header"][0].(types.ElementNode)
	assert.Equal(t, "h2", headerPreview.Tag)
}

func TestLoadFile_MissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "anon.yml", "style: \".a {}\"\nmarkup: \"<div></div>\"\n")

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "card.yml", cardTemplate)
	writeTemplate(t, dir, "ignored.txt", "not a template")
	writeTemplate(t, dir, "draft-card.yml", cardTemplate)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeTemplate(t, sub, "banner.yml", `name: banner
slots: [message]
markup: "<div><slot name=\"message\"></slot></div>"
`)

	templates, err := Scan([]string{dir}, []string{"draft-*"})
	require.NoError(t, err)

	names := make([]string, 0, len(templates))
	for _, tpl := range templates {
		names = append(names, tpl.Name)
	}
	assert.ElementsMatch(t, []string{"pricing-card", "banner"}, names)
}

func TestScan_MissingDirIsSkipped(t *testing.T) {
	templates, err := Scan([]string{filepath.Join(t.TempDir(), "nope")}, nil)

	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestParseMarkup_SlotsAndText(t *testing.T) {
	nodes, err := ParseMarkup(`<p>before</p><slot name="content"></slot>after`)
	require.NoError(t, err)

	require.Len(t, nodes, 3)
	assert.Equal(t, "p", nodes[0].(types.ElementNode).Tag)
	assert.Equal(t, types.SlotMarker{Name: "content"}, nodes[1])
	assert.Equal(t, types.TextNode{Text: "after"}, nodes[2])
}

func TestParseMarkup_DropsWhitespaceAndComments(t *testing.T) {
	nodes, err := ParseMarkup("<div>\n  <!-- comment -->\n  <span>x</span>\n</div>")
	require.NoError(t, err)

	require.Len(t, nodes, 1)
	div := nodes[0].(types.ElementNode)
	require.Len(t, div.Children, 1)
	assert.Equal(t, "span", div.Children[0].(types.ElementNode).Tag)
}

func TestParseMarkup_Empty(t *testing.T) {
	nodes, err := ParseMarkup("   \n ")
	require.NoError(t, err)
	assert.Nil(t, nodes)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Pricing Card", displayName("pricing-card"))
	assert.Equal(t, "Nav Bar", displayName("nav_bar"))
	assert.Equal(t, "Hero", displayName("hero"))
}
