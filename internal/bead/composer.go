package bead

import (
	"sort"
	"strings"
	"sync"

	"beadchat/internal/logging"
)

// Composer folds an ordered list of bead ids into a single system prompt.
//
// Composition is a pure function of (input id sequence, library state), so
// results are memoized per exact id sequence and library generation. A
// library reload invalidates the cache via the generation key.
type Composer struct {
	library *Library

	mu    sync.Mutex
	cache map[compositionKey]string
}

type compositionKey struct {
	ids        string
	generation uint64
}

// NewComposer creates a composer backed by the given library.
func NewComposer(library *Library) *Composer {
	return &Composer{
		library: library,
		cache:   make(map[compositionKey]string),
	}
}

// Result carries a composed prompt plus the ids that failed to resolve.
type Result struct {
	Prompt  string
	Missing []string
}

// Compose resolves, sorts, and folds the given bead ids into one system
// prompt. Unresolvable ids are dropped with a warning; composition never
// fails for one bad id. An empty id list composes to the empty string.
func (c *Composer) Compose(ids []string) string {
	return c.ComposeDetailed(ids).Prompt
}

// ComposeDetailed is Compose with the unresolved ids reported, for callers
// that surface inline warnings to the user.
func (c *Composer) ComposeDetailed(ids []string) Result {
	if len(ids) == 0 {
		return Result{}
	}

	generation := c.library.Generation()
	key := compositionKey{ids: strings.Join(ids, "\x00"), generation: generation}

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()

	var missing []string
	beads := make([]*Bead, 0, len(ids))
	for _, id := range ids {
		b, found := c.library.Get(id)
		if !found {
			missing = append(missing, id)
			logging.Get(logging.CategoryBeads).Warn("Bead %q not found, dropped from composition", id)
			continue
		}
		beads = append(beads, b)
	}

	if ok {
		return Result{Prompt: cached, Missing: missing}
	}

	prompt := fold(beads)

	c.mu.Lock()
	c.cache[key] = prompt
	// Drop stale generations so the cache does not grow without bound.
	for k := range c.cache {
		if k.generation != generation {
			delete(c.cache, k)
		}
	}
	c.mu.Unlock()

	return Result{Prompt: prompt, Missing: missing}
}

// fold sorts beads by priority (stable, so same-priority beads keep the
// caller's input order) and applies each override rule left to right.
func fold(beads []*Bead) string {
	sorted := make([]*Bead, len(beads))
	copy(sorted, beads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	var acc string
	for _, b := range sorted {
		body := strings.TrimSpace(b.Body)
		switch b.Override {
		case OverridePrepend:
			if acc == "" {
				acc = body
			} else {
				acc = body + "\n\n" + acc
			}
		case OverrideReplace:
			acc = body
		default: // OverrideAppend
			if acc == "" {
				acc = body
			} else {
				acc = acc + "\n\n" + body
			}
		}
	}

	return strings.TrimSpace(acc)
}
