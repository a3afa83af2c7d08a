package bead

import (
	"strings"
	"time"
)

// ValidationError reports a single rejected field from Build. It implements
// error so callers can surface it directly.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Fields holds the raw inputs for constructing a new bead, decoupled from
// whatever UI collected them.
type Fields struct {
	ID          string
	Name        string
	Category    string
	Priority    *int // nil means "use the category default"
	Override    string
	Body        string
	Tags        []string
	Description string
	Author      string
}

// Build constructs a validated Bead from raw fields. The first invalid field
// is reported as a ValidationError.
func Build(f Fields) (*Bead, error) {
	id := strings.TrimSpace(f.ID)
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "required"}
	}
	if !idPattern.MatchString(id) {
		return nil, &ValidationError{Field: "id", Reason: "must be lowercase letters, digits and hyphens, starting with a letter"}
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}

	category := Category(strings.ToLower(strings.TrimSpace(f.Category)))
	known := false
	for _, c := range AllCategories() {
		if c == category {
			known = true
			break
		}
	}
	if !known {
		return nil, &ValidationError{Field: "category", Reason: "must be one of base, communication, domain, behavior, modifier"}
	}

	override := OverrideRule(strings.ToLower(strings.TrimSpace(f.Override)))
	if f.Override == "" {
		override = OverrideAppend
	}
	switch override {
	case OverrideAppend, OverridePrepend, OverrideReplace:
	default:
		return nil, &ValidationError{Field: "override", Reason: "must be one of append, prepend, replace"}
	}

	body := strings.TrimSpace(f.Body)
	if len(body) < MinBodyLength {
		return nil, &ValidationError{Field: "body", Reason: "too short"}
	}
	if len(body) > MaxBodyLength {
		return nil, &ValidationError{Field: "body", Reason: "too long"}
	}

	priority := DefaultPriority(category)
	if f.Priority != nil {
		priority = *f.Priority
	}

	return &Bead{
		ID:          id,
		Name:        name,
		Category:    category,
		Priority:    priority,
		Override:    override,
		Body:        body,
		Tags:        f.Tags,
		Description: strings.TrimSpace(f.Description),
		Author:      strings.TrimSpace(f.Author),
		Version:     "1.0.0",
		CreatedAt:   time.Now(),
	}, nil
}
