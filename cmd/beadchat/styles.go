package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beadchat/internal/bead"
)

// Pill colors per bead category.
var categoryColors = map[bead.Category]lipgloss.Color{
	bead.CategoryBase:          lipgloss.Color("#a6e3a1"),
	bead.CategoryCommunication: lipgloss.Color("#89b4fa"),
	bead.CategoryDomain:        lipgloss.Color("#cba6f7"),
	bead.CategoryModifier:      lipgloss.Color("#f9e2af"),
	bead.CategoryBehavior:      lipgloss.Color("#89dceb"),
}

var (
	pillBase = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1e1e2e")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#cba6f7"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6c7086"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f38ba8"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#a6e3a1"))
)

// beadPill renders a bead id as a colored pill keyed by category.
func beadPill(b *bead.Bead) string {
	color, ok := categoryColors[b.Category]
	if !ok {
		color = lipgloss.Color("#cdd6f4")
	}
	return pillBase.Background(color).Render(b.ID)
}

// beadPills renders the active bead selection as a single line. Unresolvable
// ids render dimmed so the user can see what is being skipped.
func beadPills(lib *bead.Library, ids []string) string {
	if len(ids) == 0 {
		return dimStyle.Render("(no beads active)")
	}
	pills := make([]string, 0, len(ids))
	for _, id := range ids {
		b, ok := lib.Get(id)
		if !ok {
			pills = append(pills, dimStyle.Render(fmt.Sprintf("[%s?]", id)))
			continue
		}
		pills = append(pills, beadPill(b))
	}
	return strings.Join(pills, " ")
}
