package entities

import "sort"

// Index is pass 2 (spec §4.3): a map from interned entity to its byte
// offset (or, for filenames, its section index) in the emitted string
// sections. Reads are infallible — a miss means pass 1 failed to intern
// something pass 2 needs, which is a programmer error.
type Index struct {
	stringOffset map[string]int
	sortedStrings []string

	filenameIndex map[string]int
	filenames     []string
}

// BuildIndex sorts the string pool lexicographically and assigns each
// unique string its cumulative NUL-terminated byte offset (spec §4.3,
// §6 "Strings: concatenated NUL-terminated sorted byte strings").
// Filenames get a small unsorted pool addressed by index, not offset,
// matching the location table's "filename-index" field.
func BuildIndex(t *Table) *Index {
	idx := &Index{
		stringOffset:  make(map[string]int),
		filenameIndex: make(map[string]int),
	}

	strs := append([]string(nil), t.Strings.All()...)
	sort.Strings(strs)
	offset := 0
	for _, s := range strs {
		idx.stringOffset[s] = offset
		offset += len(s) + 1 // NUL terminator
	}
	idx.sortedStrings = strs

	for i, f := range t.Filenames.All() {
		idx.filenameIndex[f] = i
		idx.filenames = append(idx.filenames, f)
	}

	return idx
}

// StringOffset returns the byte offset of s within the emitted Strings
// section. Panics if s was never interned — a programmer error.
func (idx *Index) StringOffset(s string) int {
	off, ok := idx.stringOffset[s]
	if !ok {
		panic("entities: string not interned: " + s)
	}
	return off
}

// SortedStrings returns the Strings-section content order.
func (idx *Index) SortedStrings() []string { return idx.sortedStrings }

// FilenameIndex returns the index of a filename in the location table's
// filename pool.
func (idx *Index) FilenameIndex(f string) int {
	i, ok := idx.filenameIndex[f]
	if !ok {
		panic("entities: filename not interned: " + f)
	}
	return i
}

// Filenames returns the filename pool in section order.
func (idx *Index) Filenames() []string { return idx.filenames }
