// Package materials holds the named ply material table used by every tool
// that accepts a preset name. The table starts from built-in carbon, aramid
// and glass systems and can be extended at run time; additions are written
// through to a repo.MaterialRepository when one is attached.
package materials

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"Layup/internal/calc/lamina"
	"Layup/internal/repo"
)

// Entry is a named material as listed by the table.
type Entry struct {
	Name     string          `json:"name"`
	Material lamina.Material `json:"material"`
	Builtin  bool            `json:"builtin"`
}

// Defaults are the built-in presets, GPa.
var Defaults = []Entry{
	{Name: "AS4/3501-6", Material: lamina.Material{E1: 142, E2: 10.3, G12: 7.2, Nu12: 0.27}, Builtin: true},
	{Name: "AS/3501", Material: lamina.Material{E1: 181, E2: 10.3, G12: 7.17, Nu12: 0.28}, Builtin: true},
	{Name: "Kevlar/Epoxy", Material: lamina.Material{E1: 76, E2: 5.5, G12: 2.3, Nu12: 0.34}, Builtin: true},
	{Name: "E-Glass/Epoxy", Material: lamina.Material{E1: 38.6, E2: 8.27, G12: 4.14, Nu12: 0.26}, Builtin: true},
	{Name: "Custom", Material: lamina.Material{E1: 150, E2: 10, G12: 7, Nu12: 0.28}, Builtin: true},
}

// Table is safe for concurrent use. Lookups are case-insensitive.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
	store   repo.MaterialRepository
}

// New returns a table seeded with Defaults. store may be nil.
func New(store repo.MaterialRepository) *Table {
	t := &Table{entries: make(map[string]Entry, len(Defaults)), store: store}
	for _, e := range Defaults {
		t.entries[key(e.Name)] = e
	}
	return t
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Load merges the stored materials into the table. Stored rows that fail
// validation are skipped and reported in the returned count of rejects.
func (t *Table) Load(ctx context.Context) (loaded, rejected int, err error) {
	if t.store == nil {
		return 0, 0, nil
	}
	rows, err := t.store.ListMaterials(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("materials: load: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		m := lamina.Material{E1: r.E1, E2: r.E2, G12: r.G12, Nu12: r.Nu12}
		if m.Validate() != nil {
			rejected++
			continue
		}
		t.entries[key(r.Name)] = Entry{Name: r.Name, Material: m}
		loaded++
	}
	return loaded, rejected, nil
}

// Lookup implements lamina.Presets.
func (t *Table) Lookup(name string) (lamina.Material, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key(name)]
	if !ok {
		return lamina.Material{}, fmt.Errorf("%w: %q", lamina.ErrUnknownPreset, name)
	}
	return e.Material, nil
}

// List returns all entries sorted by name.
func (t *Table) List() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Put validates and stores a material, replacing any entry of the same
// name. The store is written first so a failed write leaves the table as
// it was.
func (t *Table) Put(ctx context.Context, name string, m lamina.Material, ownerID int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty preset name", lamina.ErrInvalidMaterial)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if t.store != nil {
		row := repo.Material{Name: name, E1: m.E1, E2: m.E2, G12: m.G12, Nu12: m.Nu12, OwnerID: ownerID}
		if err := t.store.UpsertMaterial(ctx, row); err != nil {
			return fmt.Errorf("materials: store: %w", err)
		}
	}
	t.mu.Lock()
	t.entries[key(name)] = Entry{Name: name, Material: m}
	t.mu.Unlock()
	return nil
}
