package base

// MetaKind indexes the decoration counters kept per child.
type MetaKind int

const (
	MetaInline MetaKind = iota
	MetaLines
	MetaSignHL
	MetaSignText
	MetaConcealLines
	MetaCount
)

var metaFlags = [MetaCount]Flags{
	MetaInline:       FlagDecorInline,
	MetaLines:        FlagDecorLines,
	MetaSignHL:       FlagDecorSignHL,
	MetaSignText:     FlagDecorSignText,
	MetaConcealLines: FlagDecorConcealLines,
}

// MetaFilter is a bit set over MetaKind.
type MetaFilter uint8

// FilterOf returns the filter selecting the given kinds.
func FilterOf(kinds ...MetaKind) MetaFilter {
	var f MetaFilter
	for _, k := range kinds {
		f |= 1 << k
	}
	return f
}

// Meta counts decorated keys in a subtree.
type Meta [MetaCount]uint32

// DescribeKey returns the contribution of a single key. End keys never count
// so that a pair is counted once.
func DescribeKey(k Key) Meta {
	var m Meta
	if k.End() {
		return m
	}
	for i, f := range metaFlags {
		if k.Flags&f != 0 {
			m[i] = 1
		}
	}
	return m
}

func (m *Meta) Add(o Meta) {
	for i := range m {
		m[i] += o[i]
	}
}

func (m *Meta) Sub(o Meta) {
	for i := range m {
		m[i] -= o[i]
	}
}

func (m Meta) IsZero() bool {
	return m == Meta{}
}

// Has reports whether any kind selected by f has a nonzero count.
func (m Meta) Has(f MetaFilter) bool {
	for i := range m {
		if f&(1<<i) != 0 && m[i] > 0 {
			return true
		}
	}
	return false
}

// Matches reports whether the key itself carries a kind selected by f.
func (f MetaFilter) Matches(k Key) bool {
	return DescribeKey(k).Has(f)
}
