// Package entities implements the compiler's pass 1 (entity table,
// spec §4.2) and pass 2 (entity index, spec §4.3): interning strings,
// types, attributes, kernel names and functions in first-encounter
// order, then — once the byte emitters have run — mapping each interned
// entity to the byte offset (or index) a reader will need to find it.
package entities

// StringPool interns byte strings by content, remembering
// first-encounter order for iteration but leaving final placement
// (sorted, NUL-terminated) to Index.
type StringPool struct {
	order []string
	seen  map[string]bool
}

func NewStringPool() *StringPool {
	return &StringPool{seen: make(map[string]bool)}
}

// Add interns s if not already present. It is idempotent: adding the
// same string twice does not change iteration order or count.
func (p *StringPool) Add(s string) {
	if p.seen[s] {
		return
	}
	p.seen[s] = true
	p.order = append(p.order, s)
}

func (p *StringPool) Contains(s string) bool { return p.seen[s] }

// All returns the interned strings in first-encounter order.
func (p *StringPool) All() []string { return p.order }

// TypePool interns types by name, first-insertion wins, and preserves
// insertion order for the emitted type section (spec §3 "A type added
// more than once receives one index").
type TypePool struct {
	order []string
	index map[string]int
}

func NewTypePool() *TypePool {
	return &TypePool{index: make(map[string]int)}
}

// Add interns the type name and returns its stable index.
func (p *TypePool) Add(name string) int {
	if idx, ok := p.index[name]; ok {
		return idx
	}
	idx := len(p.order)
	p.index[name] = idx
	p.order = append(p.order, name)
	return idx
}

func (p *TypePool) IndexOf(name string) (int, bool) {
	idx, ok := p.index[name]
	return idx, ok
}

func (p *TypePool) All() []string { return p.order }

// KernelPool interns kernel opcode names; the index of an opcode name
// in this pool is the executor's opcode number (spec §3 "opcodes are
// their indices").
type KernelPool struct {
	order []string
	index map[string]int
}

func NewKernelPool() *KernelPool {
	return &KernelPool{index: make(map[string]int)}
}

func (p *KernelPool) Add(name string) int {
	if idx, ok := p.index[name]; ok {
		return idx
	}
	idx := len(p.order)
	p.index[name] = idx
	p.order = append(p.order, name)
	return idx
}

func (p *KernelPool) IndexOf(name string) (int, bool) {
	idx, ok := p.index[name]
	return idx, ok
}

func (p *KernelPool) All() []string { return p.order }

// AttrPool interns attributes by their structural key, preserving
// insertion order (spec §3 "duplicates collapse to one offset").
type AttrPool struct {
	order []attrEntry
	index map[string]int
}

type attrEntry struct {
	key string
}

func NewAttrPool() *AttrPool {
	return &AttrPool{index: make(map[string]int)}
}

// Add interns an attribute by key and returns its stable pool index.
// The caller keeps its own parallel slice of the actual Attribute
// values in insertion order (index-aligned with this pool) since
// AttrPool only needs to dedupe by key.
func (p *AttrPool) Add(key string) (idx int, isNew bool) {
	if idx, ok := p.index[key]; ok {
		return idx, false
	}
	idx = len(p.order)
	p.index[key] = idx
	p.order = append(p.order, attrEntry{key: key})
	return idx, true
}

func (p *AttrPool) Len() int { return len(p.order) }

// Keys returns the interned attribute keys in pool (insertion) order,
// index-aligned with Table.AttrValues.
func (p *AttrPool) Keys() []string {
	keys := make([]string, len(p.order))
	for i, e := range p.order {
		keys[i] = e.key
	}
	return keys
}
