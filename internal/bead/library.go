package bead

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"beadchat/internal/logging"
)

// Library loads bead definitions from an ordered list of search paths and
// serves lookups. Later paths override earlier ones on id collision, which
// lets user-authored beads shadow the bundled defaults. Within one layer the
// walk order is lexicographic, so last-loaded-wins is deterministic.
//
// Loading is lazy: the first lookup after construction or after a write
// triggers a (re)load. Each reload bumps the generation counter; the
// composer keys its cache on it.
type Library struct {
	mu sync.Mutex

	searchPaths []string
	beads       map[string]*Bead
	warnings    []string
	generation  uint64
	dirty       bool

	watcher *fsnotify.Watcher
}

// NewLibrary creates a library over the given search paths. Paths are
// scanned in order; none of them need to exist yet.
func NewLibrary(searchPaths ...string) *Library {
	return &Library{
		searchPaths: searchPaths,
		beads:       make(map[string]*Bead),
		dirty:       true,
	}
}

// UserPath returns the last (highest-precedence) search path, where
// user-authored beads are written.
func (l *Library) UserPath() string {
	if len(l.searchPaths) == 0 {
		return ""
	}
	return l.searchPaths[len(l.searchPaths)-1]
}

// Generation returns the current library generation. It changes whenever the
// library reloads.
func (l *Library) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()
	return l.generation
}

// Get returns the bead with the given id.
func (l *Library) Get(id string) (*Bead, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()
	b, ok := l.beads[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// List returns all beads, optionally filtered by category, sorted by id for
// deterministic output.
func (l *Library) List(category Category) []*Bead {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()

	result := make([]*Bead, 0, len(l.beads))
	for _, b := range l.beads {
		if category != "" && b.Category != category {
			continue
		}
		result = append(result, b.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of loaded beads.
func (l *Library) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()
	return len(l.beads)
}

// Warnings returns the warnings recorded during the last load.
func (l *Library) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()
	out := make([]string, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Search returns beads matching the query on id, display name, tags, or
// category, case-insensitive. Results are ranked: exact id match first, then
// tag matches, then name matches, then category matches; ties break by id
// ascending.
func (l *Library) Search(query string) []*Bead {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	type ranked struct {
		bead *Bead
		rank int
	}
	var matches []ranked

	for _, b := range l.beads {
		rank := -1
		switch {
		case strings.ToLower(b.ID) == q:
			rank = 0
		case tagMatch(b.Tags, q):
			rank = 1
		case strings.Contains(strings.ToLower(b.Name), q):
			rank = 2
		case strings.Contains(strings.ToLower(string(b.Category)), q):
			rank = 3
		}
		if rank >= 0 {
			matches = append(matches, ranked{bead: b.Clone(), rank: rank})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].bead.ID < matches[j].bead.ID
	})

	result := make([]*Bead, len(matches))
	for i, m := range matches {
		result[i] = m.bead
	}
	return result
}

func tagMatch(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Save writes a bead to the user layer and marks the library dirty so the
// next lookup picks it up. The bead is validated first.
func (l *Library) Save(b *Bead) error {
	if err := b.Validate(); err != nil {
		return err
	}

	userPath := l.UserPath()
	if userPath == "" {
		return fmt.Errorf("library has no user path configured")
	}
	if err := os.MkdirAll(userPath, 0755); err != nil {
		return fmt.Errorf("failed to create user bead directory: %w", err)
	}

	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bead %q: %w", b.ID, err)
	}

	path := filepath.Join(userPath, b.ID+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write bead file: %w", err)
	}

	logging.Get(logging.CategoryBeads).Info("Saved bead %s to %s", b.ID, path)

	l.mu.Lock()
	l.dirty = true
	l.mu.Unlock()
	return nil
}

// Reload forces a reload on the next lookup.
func (l *Library) Reload() {
	l.mu.Lock()
	l.dirty = true
	l.mu.Unlock()
}

// ensureLoaded reloads the library if dirty. Callers must hold l.mu.
func (l *Library) ensureLoaded() {
	if !l.dirty {
		return
	}

	timer := logging.StartTimer(logging.CategoryBeads, "Library.load")
	defer timer.Stop()

	l.beads = make(map[string]*Bead)
	l.warnings = nil

	for _, root := range l.searchPaths {
		l.loadLayer(root)
	}

	l.generation++
	l.dirty = false

	logging.Get(logging.CategoryBeads).Info("Loaded %d beads (generation %d, %d warnings)",
		len(l.beads), l.generation, len(l.warnings))
}

// loadLayer scans one search path recursively. filepath.Walk visits entries
// in lexical order, which makes same-layer collisions deterministic.
func (l *Library) loadLayer(root string) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			l.warn("failed to scan %s: %v", path, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		b, err := loadBeadFile(path)
		if err != nil {
			l.warn("skipping %s: %v", path, err)
			return nil
		}
		// Later layers and later files in the same layer override.
		l.beads[b.ID] = b
		return nil
	})
	if err != nil {
		l.warn("failed to walk %s: %v", root, err)
	}
}

func (l *Library) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.warnings = append(l.warnings, msg)
	logging.Get(logging.CategoryBeads).Warn("%s", msg)
}

// yamlBeadDefinition matches the on-disk bead file structure. Priority is a
// pointer so an omitted value falls back to the category default.
type yamlBeadDefinition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Priority    *int     `yaml:"priority"`
	Override    string   `yaml:"override"`
	Body        string   `yaml:"body"`
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	Version     string   `yaml:"version"`
}

// loadBeadFile parses and validates a single bead definition file.
func loadBeadFile(path string) (*Bead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var raw yamlBeadDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	category := Category(strings.ToLower(strings.TrimSpace(raw.Category)))

	override := OverrideRule(strings.ToLower(strings.TrimSpace(raw.Override)))
	if raw.Override == "" {
		override = OverrideAppend
	}

	priority := DefaultPriority(category)
	if raw.Priority != nil {
		priority = *raw.Priority
	}

	version := raw.Version
	if version == "" {
		version = "1.0.0"
	}

	b := &Bead{
		ID:          raw.ID,
		Name:        raw.Name,
		Category:    category,
		Priority:    priority,
		Override:    override,
		Body:        strings.TrimSpace(raw.Body),
		Tags:        raw.Tags,
		Description: raw.Description,
		Author:      raw.Author,
		Version:     version,
		SourceFile:  path,
		CreatedAt:   time.Now(),
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Watch starts an fsnotify watcher on the user layer; any write there marks
// the library dirty so interactive sessions see edits without restarting.
// Stop the watcher with CloseWatcher.
func (l *Library) Watch() error {
	userPath := l.UserPath()
	if userPath == "" {
		return fmt.Errorf("library has no user path configured")
	}
	if err := os.MkdirAll(userPath, 0755); err != nil {
		return fmt.Errorf("failed to create user bead directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(userPath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", userPath, err)
	}

	l.mu.Lock()
	l.watcher = watcher
	l.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					logging.Get(logging.CategoryBeads).Debug("Bead file changed: %s", event.Name)
					l.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Get(logging.CategoryBeads).Warn("Watcher error: %v", err)
			}
		}
	}()

	return nil
}

// CloseWatcher stops the user-layer watcher if one is running.
func (l *Library) CloseWatcher() {
	l.mu.Lock()
	watcher := l.watcher
	l.watcher = nil
	l.mu.Unlock()
	if watcher != nil {
		watcher.Close()
	}
}
