// Package idset implements sorted sets of pair ids, used for the per-node
// intersect sets of the mark tree.
package idset

import "slices"

// Set is a sorted, duplicate free slice of ids. The zero value is empty.
type Set []uint64

// Add inserts id, reporting whether it was absent.
func (s *Set) Add(id uint64) bool {
	i, ok := slices.BinarySearch(*s, id)
	if ok {
		return false
	}
	*s = slices.Insert(*s, i, id)
	return true
}

// Remove deletes id, reporting whether it was present.
func (s *Set) Remove(id uint64) bool {
	i, ok := slices.BinarySearch(*s, id)
	if !ok {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// AddAll inserts every id of o.
func (s *Set) AddAll(o Set) {
	if len(o) == 0 {
		return
	}
	*s = Union(*s, o)
}

// RemoveAll deletes every id of o.
func (s *Set) RemoveAll(o Set) {
	if len(o) == 0 || len(*s) == 0 {
		return
	}
	*s = Difference(*s, o)
}

// Clone returns a copy that shares no memory with s.
func (s Set) Clone() Set {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

// Equal reports whether both sets hold the same ids.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s, o)
}

// Union returns a ∪ b.
func Union(a, b Set) Set {
	common, onlyA, onlyB := Split(a, b)
	out := make(Set, 0, len(common)+len(onlyA)+len(onlyB))
	out = append(out, common...)
	out = append(out, onlyA...)
	out = append(out, onlyB...)
	slices.Sort(out)
	return out
}

// Intersection returns a ∩ b.
func Intersection(a, b Set) Set {
	common, _, _ := Split(a, b)
	return common
}

// Difference returns a ∖ b.
func Difference(a, b Set) Set {
	_, onlyA, _ := Split(a, b)
	return onlyA
}

// Split partitions two sets into the ids they share and the ids unique to
// each side. All three results are sorted and freshly allocated.
func Split(a, b Set) (common, onlyA, onlyB Set) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			common = append(common, a[i])
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return common, onlyA, onlyB
}
