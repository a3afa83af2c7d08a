package bead

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLibrary builds a pre-loaded library without touching disk.
func newTestLibrary(beads ...*Bead) *Library {
	l := NewLibrary()
	l.beads = make(map[string]*Bead, len(beads))
	for _, b := range beads {
		l.beads[b.ID] = b
	}
	l.generation = 1
	l.dirty = false
	return l
}

func testBead(id string, category Category, priority int, override OverrideRule, body string) *Bead {
	return &Bead{
		ID:       id,
		Name:     strings.ToUpper(id[:1]) + id[1:],
		Category: category,
		Priority: priority,
		Override: override,
		Body:     body,
	}
}

func TestComposePriorityOrdering(t *testing.T) {
	lib := newTestLibrary(
		testBead("helpful", CategoryBase, 0, OverrideAppend, "Be helpful."),
		testBead("concise", CategoryModifier, 100, OverrideAppend, "Be brief."),
	)
	composer := NewComposer(lib)

	t.Run("priority reorders despite input order", func(t *testing.T) {
		got := composer.Compose([]string{"concise", "helpful"})
		assert.Equal(t, "Be helpful.\n\nBe brief.", got)
	})

	t.Run("same result for natural order", func(t *testing.T) {
		got := composer.Compose([]string{"helpful", "concise"})
		assert.Equal(t, "Be helpful.\n\nBe brief.", got)
	})

	t.Run("same-priority ties preserve input order", func(t *testing.T) {
		lib := newTestLibrary(
			testBead("alpha", CategoryBase, 0, OverrideAppend, "Alpha text."),
			testBead("beta", CategoryBase, 0, OverrideAppend, "Beta text."),
		)
		composer := NewComposer(lib)

		assert.Equal(t, "Beta text.\n\nAlpha text.", composer.Compose([]string{"beta", "alpha"}))
		assert.Equal(t, "Alpha text.\n\nBeta text.", composer.Compose([]string{"alpha", "beta"}))
	})
}

func TestComposeOverrideRules(t *testing.T) {
	t.Run("replace discards everything accumulated so far", func(t *testing.T) {
		lib := newTestLibrary(
			testBead("a", CategoryBase, 0, OverrideAppend, "Text A."),
			testBead("b", CategoryBase, 10, OverrideReplace, "Text B."),
			testBead("c", CategoryBase, 20, OverrideAppend, "Text C."),
		)
		composer := NewComposer(lib)

		assert.Equal(t, "Text B.\n\nText C.", composer.Compose([]string{"a", "b", "c"}))
	})

	t.Run("prepend puts body before accumulator", func(t *testing.T) {
		lib := newTestLibrary(
			testBead("a", CategoryBase, 0, OverrideAppend, "Text A."),
			testBead("b", CategoryBase, 10, OverridePrepend, "Text B."),
		)
		composer := NewComposer(lib)

		assert.Equal(t, "Text B.\n\nText A.", composer.Compose([]string{"a", "b"}))
	})

	t.Run("prepend onto empty accumulator", func(t *testing.T) {
		lib := newTestLibrary(
			testBead("b", CategoryBase, 0, OverridePrepend, "Text B."),
		)
		composer := NewComposer(lib)

		assert.Equal(t, "Text B.", composer.Compose([]string{"b"}))
	})
}

func TestComposeEmptyAndMissing(t *testing.T) {
	lib := newTestLibrary(
		testBead("real-id", CategoryBase, 0, OverrideAppend, "Real body."),
	)
	composer := NewComposer(lib)

	t.Run("empty list composes to empty string", func(t *testing.T) {
		assert.Equal(t, "", composer.Compose(nil))
		assert.Equal(t, "", composer.Compose([]string{}))
	})

	t.Run("unresolvable ids are dropped, never fatal", func(t *testing.T) {
		withMissing := composer.Compose([]string{"real-id", "nonexistent-id"})
		assert.Equal(t, composer.Compose([]string{"real-id"}), withMissing)
	})

	t.Run("missing ids are reported", func(t *testing.T) {
		result := composer.ComposeDetailed([]string{"real-id", "nonexistent-id"})
		assert.Equal(t, []string{"nonexistent-id"}, result.Missing)
		assert.Equal(t, "Real body.", result.Prompt)
	})

	t.Run("all ids missing composes to empty string", func(t *testing.T) {
		result := composer.ComposeDetailed([]string{"nope", "also-nope"})
		assert.Equal(t, "", result.Prompt)
		assert.Len(t, result.Missing, 2)
	})
}

func TestComposeIdempotence(t *testing.T) {
	lib := newTestLibrary(
		testBead("helpful", CategoryBase, 0, OverrideAppend, "Be helpful."),
		testBead("concise", CategoryModifier, 100, OverrideAppend, "Be brief."),
	)
	composer := NewComposer(lib)

	ids := []string{"concise", "helpful"}
	first := composer.Compose(ids)
	second := composer.Compose(ids)
	assert.Equal(t, first, second)
}

func TestComposeCacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	writeBeadFile(t, dir, "greeting", `
id: greeting
name: Greeting
category: base
body: >-
  Always open responses with a short friendly greeting before answering.
`)

	lib := NewLibrary(dir)
	composer := NewComposer(lib)

	first := composer.Compose([]string{"greeting"})
	require.Contains(t, first, "friendly greeting")

	// Rewrite the definition and reload; the composer must not serve the
	// stale generation's result.
	writeBeadFile(t, dir, "greeting", `
id: greeting
name: Greeting
category: base
body: >-
  Never greet; answer immediately and keep all responses strictly factual.
`)
	lib.Reload()

	second := composer.Compose([]string{"greeting"})
	assert.Contains(t, second, "Never greet")
	assert.NotEqual(t, first, second)
}
