// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import "github.com/emw8105/professor-ratings-lambda/pkg/types"

// Entry carries one source record through the tiers: the name as the source
// wrote it, its normalized key, and its fields.
type Entry struct {
	SourceName string             `json:"source_name" yaml:"source_name"`
	Key        string             `json:"key" yaml:"key"`
	Fields     types.RecordFields `json:"-" yaml:"-"`
}

// Pool is the insertion-ordered set of not-yet-matched entries for one
// source, keyed by normalized key. Removal is permanent.
type Pool struct {
	entries []Entry
	removed []bool
	index   map[string]int
	live    int
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Add inserts e. If an entry with the same key is already present it is
// replaced in place, keeping its position, and the displaced entry is
// returned.
func (p *Pool) Add(e Entry) (displaced Entry, replaced bool) {
	if i, ok := p.index[e.Key]; ok {
		displaced = p.entries[i]
		p.entries[i] = e
		if p.removed[i] {
			p.removed[i] = false
			p.live++
			return Entry{}, false
		}
		return displaced, true
	}
	p.index[e.Key] = len(p.entries)
	p.entries = append(p.entries, e)
	p.removed = append(p.removed, false)
	p.live++
	return Entry{}, false
}

// Has reports whether key is still in the pool.
func (p *Pool) Has(key string) bool {
	i, ok := p.index[key]
	return ok && !p.removed[i]
}

// Get returns the live entry for key.
func (p *Pool) Get(key string) (Entry, bool) {
	i, ok := p.index[key]
	if !ok || p.removed[i] {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Remove takes key out of the pool and returns its entry.
func (p *Pool) Remove(key string) (Entry, bool) {
	i, ok := p.index[key]
	if !ok || p.removed[i] {
		return Entry{}, false
	}
	p.removed[i] = true
	p.live--
	return p.entries[i], true
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	return p.live
}

// Keys returns the live keys in insertion order.
func (p *Pool) Keys() []string {
	keys := make([]string, 0, p.live)
	for i, e := range p.entries {
		if !p.removed[i] {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Entries returns the live entries in insertion order.
func (p *Pool) Entries() []Entry {
	out := make([]Entry, 0, p.live)
	for i, e := range p.entries {
		if !p.removed[i] {
			out = append(out, e)
		}
	}
	return out
}

// each calls fn for every live entry in insertion order until fn returns false.
// fn must not add to or remove from the pool.
func (p *Pool) each(fn func(Entry) bool) {
	for i := range p.entries {
		if p.removed[i] {
			continue
		}
		if !fn(p.entries[i]) {
			return
		}
	}
}
