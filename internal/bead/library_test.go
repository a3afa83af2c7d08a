package bead

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBeadFile writes a bead definition YAML into dir under <name>.yaml.
func writeBeadFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
}

const validBody = `body: >-
  You are an analytical assistant who reasons step by step and cites
  assumptions explicitly before presenting any conclusion.`

func TestLibraryLoad(t *testing.T) {
	t.Run("loads valid beads", func(t *testing.T) {
		dir := t.TempDir()
		writeBeadFile(t, dir, "analytical", `
id: analytical
name: Analytical
category: base
tags: [reasoning, logic]
`+validBody)

		lib := NewLibrary(dir)
		b, ok := lib.Get("analytical")
		require.True(t, ok)
		assert.Equal(t, "Analytical", b.Name)
		assert.Equal(t, CategoryBase, b.Category)
		assert.Equal(t, 0, b.Priority, "category default priority")
		assert.Equal(t, OverrideAppend, b.Override, "append is the default rule")
	})

	t.Run("explicit priority wins over category default", func(t *testing.T) {
		dir := t.TempDir()
		writeBeadFile(t, dir, "analytical", `
id: analytical
name: Analytical
category: base
priority: 42
`+validBody)

		lib := NewLibrary(dir)
		b, ok := lib.Get("analytical")
		require.True(t, ok)
		assert.Equal(t, 42, b.Priority)
	})

	t.Run("malformed definitions are skipped with a warning", func(t *testing.T) {
		dir := t.TempDir()
		writeBeadFile(t, dir, "bad-id", `
id: Not-Valid-ID
name: Bad
category: base
`+validBody)
		writeBeadFile(t, dir, "short-body", `
id: short-body
name: Short
category: base
body: too short
`)
		writeBeadFile(t, dir, "subtract", `
id: subtract
name: Subtract
category: modifier
override: subtract
`+validBody)
		writeBeadFile(t, dir, "good", `
id: good
name: Good
category: base
`+validBody)

		lib := NewLibrary(dir)
		assert.Equal(t, 1, lib.Count())
		_, ok := lib.Get("good")
		assert.True(t, ok)
		assert.Len(t, lib.Warnings(), 3)
	})

	t.Run("missing search path is not an error", func(t *testing.T) {
		lib := NewLibrary(filepath.Join(t.TempDir(), "does-not-exist"))
		assert.Equal(t, 0, lib.Count())
		assert.Empty(t, lib.Warnings())
	})
}

func TestLibraryLayering(t *testing.T) {
	system := t.TempDir()
	user := t.TempDir()

	writeBeadFile(t, system, "tone", `
id: tone
name: System Tone
category: communication
body: >-
  Keep a neutral, formal register at all times and avoid contractions
  or colloquial phrasing in every response you produce.
`)
	writeBeadFile(t, user, "tone", `
id: tone
name: User Tone
category: communication
body: >-
  Keep a relaxed, conversational register and feel free to use
  contractions and light humor where it fits the question.
`)

	lib := NewLibrary(system, user)
	b, ok := lib.Get("tone")
	require.True(t, ok)
	assert.Equal(t, "User Tone", b.Name, "later layer overrides earlier on id collision")
}

func TestLibraryList(t *testing.T) {
	dir := t.TempDir()
	writeBeadFile(t, dir, "zeta", `
id: zeta
name: Zeta
category: domain
`+validBody)
	writeBeadFile(t, dir, "alpha", `
id: alpha
name: Alpha
category: base
`+validBody)
	writeBeadFile(t, dir, "mid", `
id: mid
name: Mid
category: domain
`+validBody)

	lib := NewLibrary(dir)

	t.Run("sorted by id", func(t *testing.T) {
		all := lib.List("")
		require.Len(t, all, 3)
		assert.Equal(t, "alpha", all[0].ID)
		assert.Equal(t, "mid", all[1].ID)
		assert.Equal(t, "zeta", all[2].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		domain := lib.List(CategoryDomain)
		require.Len(t, domain, 2)
		assert.Equal(t, "mid", domain[0].ID)
		assert.Equal(t, "zeta", domain[1].ID)
	})
}

func TestLibrarySearch(t *testing.T) {
	dir := t.TempDir()
	writeBeadFile(t, dir, "python-expert", `
id: python-expert
name: Python Expert
category: domain
tags: [python, coding]
`+validBody)
	writeBeadFile(t, dir, "data-scientist", `
id: data-scientist
name: Data Scientist
category: domain
tags: [python, statistics]
`+validBody)
	writeBeadFile(t, dir, "pythonic", `
id: pythonic
name: Speaks Python Proverbs
category: communication
`+validBody)

	lib := NewLibrary(dir)

	t.Run("exact id match ranks first", func(t *testing.T) {
		results := lib.Search("python-expert")
		require.NotEmpty(t, results)
		assert.Equal(t, "python-expert", results[0].ID)
	})

	t.Run("tag match ranks before name match, ties by id", func(t *testing.T) {
		results := lib.Search("python")
		require.Len(t, results, 3)
		// data-scientist and python-expert both match on tag; pythonic only
		// on name.
		assert.Equal(t, "data-scientist", results[0].ID)
		assert.Equal(t, "python-expert", results[1].ID)
		assert.Equal(t, "pythonic", results[2].ID)
	})

	t.Run("case insensitive", func(t *testing.T) {
		results := lib.Search("PYTHON")
		assert.Len(t, results, 3)
	})

	t.Run("category match", func(t *testing.T) {
		results := lib.Search("communication")
		require.Len(t, results, 1)
		assert.Equal(t, "pythonic", results[0].ID)
	})

	t.Run("empty query returns nothing", func(t *testing.T) {
		assert.Empty(t, lib.Search("  "))
	})
}

func TestLibrarySaveAndLazyReload(t *testing.T) {
	system := t.TempDir()
	user := t.TempDir()
	lib := NewLibrary(system, user)

	generationBefore := lib.Generation()

	b, err := Build(Fields{
		ID:       "night-owl",
		Name:     "Night Owl",
		Category: "behavior",
		Body:     "Assume the user is working late; keep answers compact and skip pleasantries unless asked.",
	})
	require.NoError(t, err)
	require.NoError(t, lib.Save(b))

	// Save marks the library dirty; the next lookup reloads.
	loaded, ok := lib.Get("night-owl")
	require.True(t, ok)
	assert.Equal(t, "Night Owl", loaded.Name)
	assert.Greater(t, lib.Generation(), generationBefore)

	// The file landed in the user layer.
	_, err = os.Stat(filepath.Join(user, "night-owl.yaml"))
	assert.NoError(t, err)
}

func TestLibraryGetReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeBeadFile(t, dir, "alpha", `
id: alpha
name: Alpha
category: base
tags: [one]
`+validBody)

	lib := NewLibrary(dir)
	first, ok := lib.Get("alpha")
	require.True(t, ok)
	first.Name = "mutated"
	first.Tags[0] = "mutated"

	second, ok := lib.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "Alpha", second.Name)
	assert.Equal(t, []string{"one"}, second.Tags)
}
