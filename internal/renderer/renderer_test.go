package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/shadowtpl/internal/compiler"
	"github.com/conneroisu/shadowtpl/internal/errors"
	"github.com/conneroisu/shadowtpl/internal/registry"
	"github.com/conneroisu/shadowtpl/internal/types"
)

// newPane registers a two-slot definition under "pane" and returns the
// renderer plus the registry it is backed by.
func newPane(t *testing.T) (*Renderer, *registry.DefinitionRegistry) {
	t.Helper()

	def, err := compiler.Compile(types.TemplateDescription{
		Markup:    []types.Node{types.Slot("left"), types.Slot("right")},
		SlotNames: []string{"left", "right"},
	})
	require.NoError(t, err)

	reg := registry.New()
	_, err = reg.Register("pane", def)
	require.NoError(t, err)

	return New(reg), reg
}

func TestInstantiate_ProjectsInOrder(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "AB", rendered)
}

func TestInstantiate_MissingSlotContent(t *testing.T) {
	rend, _ := newPane(t)

	_, err := rend.Instantiate("pane", types.Projection{
		"left": {types.Text("A")},
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeMissingSlotContent))
	assert.Equal(t, "right", errors.SlotName(err))
}

func TestInstantiate_EmptyContentIsNotOmission(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "B", rendered)
}

func TestInstantiate_UnknownSlotName(t *testing.T) {
	rend, _ := newPane(t)

	_, err := rend.Instantiate("pane", types.Projection{
		"left":   {types.Text("A")},
		"right":  {types.Text("B")},
		"middle": {types.Text("C")},
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnknownSlotName))
	assert.Equal(t, "middle", errors.SlotName(err))
}

func TestInstantiate_UnknownIdentity(t *testing.T) {
	rend, _ := newPane(t)

	_, err := rend.Instantiate("ghost", types.Projection{})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnknownIdentity))
	assert.Equal(t, "ghost", errors.Identity(err))
}

func TestInstantiate_AfterRegisterNeverUnknown(t *testing.T) {
	def, err := compiler.Compile(types.TemplateDescription{
		Markup:    []types.Node{types.Slot("body")},
		SlotNames: []string{"body"},
	})
	require.NoError(t, err)

	reg := registry.New()
	rend := New(reg)

	// Register followed immediately by instantiate must always succeed.
	for i := 0; i < 100; i++ {
		_, err := reg.Register("card", def)
		require.NoError(t, err)

		_, err = rend.Instantiate("card", types.Projection{"body": {types.Text("x")}})
		require.NoError(t, err)

		require.NoError(t, reg.Unregister("card"))
	}
}

func TestInstantiate_IndependentInstances(t *testing.T) {
	rend, _ := newPane(t)

	projection := types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	}

	first, err := rend.Instantiate("pane", projection)
	require.NoError(t, err)
	second, err := rend.Instantiate("pane", projection)
	require.NoError(t, err)

	firstHTML, err := first.HTML()
	require.NoError(t, err)
	secondHTML, err := second.HTML()
	require.NoError(t, err)
	assert.Equal(t, firstHTML, secondHTML)

	// Mutating one instance must not affect the other.
	require.NoError(t, first.Update(types.Projection{
		"left":  {types.Text("X")},
		"right": {types.Text("Y")},
	}))

	firstHTML, err = first.HTML()
	require.NoError(t, err)
	secondHTML, err = second.HTML()
	require.NoError(t, err)
	assert.Equal(t, "XY", firstHTML)
	assert.Equal(t, "AB", secondHTML)
}

func TestInstantiate_ProjectionMutationDoesNotLeakIn(t *testing.T) {
	rend, _ := newPane(t)

	projection := types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	}
	instance, err := rend.Instantiate("pane", projection)
	require.NoError(t, err)

	projection["left"][0] = types.Text("mutated")

	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "AB", rendered)
}

func TestInstance_SurvivesUnregistration(t *testing.T) {
	rend, reg := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	require.NoError(t, reg.Unregister("pane"))

	// Existing instances remain valid after unregistration...
	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "AB", rendered)

	// ...but new ones cannot be created via that identity.
	_, err = rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	assert.True(t, errors.HasCode(err, errors.CodeUnknownIdentity))
}

func TestUpdate_Validation(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	err = instance.Update(types.Projection{"left": {types.Text("X")}})
	assert.True(t, errors.HasCode(err, errors.CodeMissingSlotContent))
	assert.Equal(t, "right", errors.SlotName(err))

	err = instance.Update(types.Projection{
		"left":   {types.Text("X")},
		"right":  {types.Text("Y")},
		"middle": {types.Text("Z")},
	})
	assert.True(t, errors.HasCode(err, errors.CodeUnknownSlotName))

	// Failed updates leave the instance unchanged.
	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "AB", rendered)
}

func TestInstance_Lifecycle(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, StateCreated, instance.State())

	require.NoError(t, instance.Attach())
	assert.Equal(t, StateAttached, instance.State())

	// Detaching twice is an invalid transition
	require.NoError(t, instance.Detach())
	err = instance.Detach()
	assert.True(t, errors.HasCode(err, errors.CodeInvalidTransition))

	// Re-attach from detached is allowed
	require.NoError(t, instance.Attach())
	require.NoError(t, instance.Detach())

	require.NoError(t, instance.Destroy())
	assert.Equal(t, StateDestroyed, instance.State())

	// Everything fails once destroyed
	assert.True(t, errors.HasCode(instance.Attach(), errors.CodeInstanceDestroyed))
	assert.True(t, errors.HasCode(instance.Destroy(), errors.CodeInstanceDestroyed))
	assert.True(t, errors.HasCode(instance.Update(types.Projection{}), errors.CodeInstanceDestroyed))
	_, err = instance.HTML()
	assert.True(t, errors.HasCode(err, errors.CodeInstanceDestroyed))
}

func TestInstance_ContentSurvivesDetach(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	require.NoError(t, instance.Attach())
	require.NoError(t, instance.Detach())

	rendered, err := instance.HTML()
	require.NoError(t, err)
	assert.Equal(t, "AB", rendered)
}

func TestInstance_RenderHonoursContext(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("A")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sb strings.Builder
	assert.Error(t, instance.Render(ctx, &sb))
}

func TestInstance_RendersElementsAndAttributes(t *testing.T) {
	def, err := compiler.Compile(types.TemplateDescription{
		Markup: []types.Node{
			types.ElementAttr("section", []types.Attribute{{Key: "class", Value: "hero"}},
				types.Element("h1", types.Slot("title")),
			),
		},
		SlotNames: []string{"title"},
	})
	require.NoError(t, err)

	reg := registry.New()
	_, err = reg.Register("hero", def)
	require.NoError(t, err)

	instance, err := New(reg).Instantiate("hero", types.Projection{
		"title": {types.Text("Welcome")},
	})
	require.NoError(t, err)

	rendered, err := instance.HTML()
	require.NoError(t, err)

	assert.Contains(t, rendered, `<section class="hero"`)
	assert.Contains(t, rendered, `data-shadow="`+def.ScopeID()+`"`)
	assert.Contains(t, rendered, "<h1")
	assert.Contains(t, rendered, "Welcome")
}

func TestInstance_NestedInstanceProjection(t *testing.T) {
	reg := registry.New()
	rend := New(reg)

	inner, err := compiler.Compile(types.TemplateDescription{
		Markup:    []types.Node{types.Element("em", types.Slot("word"))},
		SlotNames: []string{"word"},
	})
	require.NoError(t, err)
	outer, err := compiler.Compile(types.TemplateDescription{
		Markup:    []types.Node{types.Element("p", types.Slot("body"))},
		SlotNames: []string{"body"},
	})
	require.NoError(t, err)

	_, err = reg.Register("inner", inner)
	require.NoError(t, err)
	_, err = reg.Register("outer", outer)
	require.NoError(t, err)

	innerInstance, err := rend.Instantiate("inner", types.Projection{
		"word": {types.Text("nested")},
	})
	require.NoError(t, err)

	outerInstance, err := rend.Instantiate("outer", types.Projection{
		"body": {types.InstanceNode{Instance: innerInstance}},
	})
	require.NoError(t, err)

	rendered, err := outerInstance.HTML()
	require.NoError(t, err)

	assert.Contains(t, rendered, "<p")
	assert.Contains(t, rendered, "<em")
	assert.Contains(t, rendered, "nested")
	// The nested instance keeps its own boundary, distinct from the outer one
	assert.Contains(t, rendered, inner.ScopeID())
	assert.NotEqual(t, inner.ScopeID(), outer.ScopeID())
}

func TestInstance_TextIsEscaped(t *testing.T) {
	rend, _ := newPane(t)

	instance, err := rend.Instantiate("pane", types.Projection{
		"left":  {types.Text("<script>alert(1)</script>")},
		"right": {types.Text("B")},
	})
	require.NoError(t, err)

	rendered, err := instance.HTML()
	require.NoError(t, err)

	assert.NotContains(t, rendered, "<script>")
	assert.Contains(t, rendered, "&lt;script&gt;")
}
