// Package bead implements the personality bead system for beadchat.
// Beads are small, reusable fragments of system-prompt text. A composed
// personality is built by resolving an ordered list of bead ids, sorting
// them by priority, and folding each bead's body into a single prompt
// according to its override rule.
package bead

import (
	"fmt"
	"regexp"
	"time"
)

// Category classifies a bead and controls its default composition priority.
type Category string

const (
	// CategoryBase holds core personality traits. Applied first.
	CategoryBase Category = "base"

	// CategoryCommunication holds communication-style traits.
	CategoryCommunication Category = "communication"

	// CategoryDomain holds domain-expertise traits.
	CategoryDomain Category = "domain"

	// CategoryBehavior holds behavioral-pattern traits.
	CategoryBehavior Category = "behavior"

	// CategoryModifier holds trait adjustments ("be concise"). Applied last
	// so they get the final word over tone set by earlier beads.
	CategoryModifier Category = "modifier"
)

// AllCategories returns all defined bead categories in priority order.
func AllCategories() []Category {
	return []Category{
		CategoryBase,
		CategoryCommunication,
		CategoryDomain,
		CategoryBehavior,
		CategoryModifier,
	}
}

// DefaultPriority returns the default composition priority for a category.
// Lower priorities apply earlier in the fold.
func DefaultPriority(c Category) int {
	switch c {
	case CategoryBase:
		return 0
	case CategoryCommunication:
		return 10
	case CategoryDomain:
		return 20
	case CategoryBehavior:
		return 50
	case CategoryModifier:
		return 100
	default:
		return 50
	}
}

// OverrideRule controls how a bead's body combines with previously folded text.
type OverrideRule string

const (
	// OverrideAppend adds the body after the accumulated prompt.
	OverrideAppend OverrideRule = "append"

	// OverridePrepend adds the body before the accumulated prompt.
	OverridePrepend OverrideRule = "prepend"

	// OverrideReplace discards everything accumulated so far.
	OverrideReplace OverrideRule = "replace"
)

// A fourth rule ("subtract") appears in the original design notes but was
// never given precise semantics. Definitions using it are skipped at load.

const (
	// MinBodyLength is the minimum accepted bead body length.
	MinBodyLength = 50

	// MaxBodyLength is the maximum accepted bead body length.
	MaxBodyLength = 2000
)

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Bead is a single immutable personality trait definition.
type Bead struct {
	// Unique identifier, lowercase hyphen-separated (e.g. "python-expert").
	ID string `yaml:"id"`

	// Human-readable display name.
	Name string `yaml:"name"`

	// Category controls the default composition priority band.
	Category Category `yaml:"category"`

	// Priority orders the composition fold; lower applies earlier.
	Priority int `yaml:"priority"`

	// Override controls how the body combines with previously folded text.
	Override OverrideRule `yaml:"override"`

	// Body is the fragment contributed to the composed system prompt.
	Body string `yaml:"body"`

	// Tags for free-text search.
	Tags []string `yaml:"tags,omitempty"`

	// Description is the user-facing summary of what this bead does.
	Description string `yaml:"description,omitempty"`

	Author  string `yaml:"author,omitempty"`
	Version string `yaml:"version,omitempty"`

	// SourceFile records where the definition was loaded from.
	SourceFile string `yaml:"-"`

	CreatedAt time.Time `yaml:"-"`
}

// Validate checks the bead for definition errors.
func (b *Bead) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bead id is required")
	}
	if !idPattern.MatchString(b.ID) {
		return fmt.Errorf("bead id %q must match %s", b.ID, idPattern.String())
	}
	if b.Name == "" {
		return fmt.Errorf("bead %q missing name", b.ID)
	}

	validCategory := false
	for _, c := range AllCategories() {
		if c == b.Category {
			validCategory = true
			break
		}
	}
	if !validCategory {
		return fmt.Errorf("unknown category %q for bead %q", b.Category, b.ID)
	}

	switch b.Override {
	case OverrideAppend, OverridePrepend, OverrideReplace:
	default:
		return fmt.Errorf("unknown override rule %q for bead %q", b.Override, b.ID)
	}

	if len(b.Body) < MinBodyLength || len(b.Body) > MaxBodyLength {
		return fmt.Errorf("bead %q body length %d outside [%d, %d]",
			b.ID, len(b.Body), MinBodyLength, MaxBodyLength)
	}

	return nil
}

// Clone creates a deep copy of the bead.
func (b *Bead) Clone() *Bead {
	clone := *b
	if b.Tags != nil {
		clone.Tags = make([]string, len(b.Tags))
		copy(clone.Tags, b.Tags)
	}
	return &clone
}

// String returns the display form used in listings.
func (b *Bead) String() string {
	return fmt.Sprintf("%s (%s)", b.Name, b.ID)
}
