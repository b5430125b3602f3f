package notes

import "slices"

// Index is the ordered, duplicate-free list of titles an identity has saved.
// The zero value is an empty index. Index values are never mutated in place.
type Index struct {
	titles []string
}

// NewIndex builds an index from titles, keeping the first occurrence of each.
func NewIndex(titles ...string) Index {
	var idx Index
	for _, t := range titles {
		idx = idx.Append(t)
	}
	return idx
}

// Append returns an index with title added at the end. If title is already
// present the receiver is returned unchanged.
func (i Index) Append(title string) Index {
	if i.Contains(title) {
		return i
	}
	titles := make([]string, len(i.titles), len(i.titles)+1)
	copy(titles, i.titles)
	return Index{titles: append(titles, title)}
}

// Contains reports whether title is in the index. Comparison is case-sensitive.
func (i Index) Contains(title string) bool {
	return slices.Contains(i.titles, title)
}

// Titles returns a copy of the titles in insertion order. It is never nil.
func (i Index) Titles() []string {
	out := make([]string, len(i.titles))
	copy(out, i.titles)
	return out
}

// Len returns the number of titles.
func (i Index) Len() int {
	return len(i.titles)
}

// Empty reports whether the index has no titles.
func (i Index) Empty() bool {
	return len(i.titles) == 0
}

// Equal reports whether both indexes hold the same titles in the same order.
func (i Index) Equal(other Index) bool {
	return slices.Equal(i.titles, other.titles)
}
