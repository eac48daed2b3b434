package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"thermite-server/internal/game"
)

//go:embed maps/*.json
var builtinMaps embed.FS

// MapLibrary caches parsed templates by id (the file name without .json)
type MapLibrary struct {
	mu        sync.RWMutex
	templates map[string]*game.MapTemplate
}

// LoadMapLibrary loads the built-in maps and then every template in dir.
// Templates in dir replace built-ins with the same id.
func LoadMapLibrary(dir string) (*MapLibrary, error) {
	lib := &MapLibrary{templates: make(map[string]*game.MapTemplate)}
	sub, err := fs.Sub(builtinMaps, "maps")
	if err != nil {
		return nil, err
	}
	if err := lib.loadFS(sub); err != nil {
		return nil, fmt.Errorf("built-in maps: %w", err)
	}
	if dir != "" {
		if err := lib.loadFS(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("maps in %s: %w", dir, err)
		}
	}
	return lib, nil
}

func (l *MapLibrary) loadFS(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		t, err := game.ParseTemplate(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		l.Put(strings.TrimSuffix(path.Base(name), ".json"), t)
	}
	return nil
}

// Put adds or replaces a template
func (l *MapLibrary) Put(id string, t *game.MapTemplate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[id] = t
}

// Get returns the template for id
func (l *MapLibrary) Get(id string) (*game.MapTemplate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[id]
	return t, ok
}

// IDs lists the loaded template ids
func (l *MapLibrary) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	return ids
}

// Generate builds a fresh grid for one match from template id
func (l *MapLibrary) Generate(id string, seed *uint64) (*game.MapTemplate, *game.Grid, error) {
	t, ok := l.Get(id)
	if !ok {
		return nil, nil, fmt.Errorf("map %q not found", id)
	}
	g, err := t.GenerateGrid(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("map %q: %w", id, err)
	}
	return t, g, nil
}
