package marktree

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/alexhholmes/marktree/internal/base"
)

// Inspect returns a bracketed dump of the tree shape. Each node is printed
// as [child key child ... key child] with absolute key positions; keys are
// tagged with their namespace and id, '<' for a start, '>' for an end and
// '+' for right gravity.
func (t *MarkTree) Inspect() string {
	r := t.rootNode()
	if r == nil {
		return "[]"
	}
	var b strings.Builder
	t.inspect(&b, r, Pos{})
	return b.String()
}

func (t *MarkTree) inspect(b *strings.Builder, x *base.Node, pos Pos) {
	b.WriteByte('[')
	for i := 0; i <= len(x.Keys); i++ {
		if x.Level > 0 {
			cbase := pos
			if i > 0 {
				cbase = base.Unrelative(pos, x.Keys[i-1].Pos)
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			t.inspect(b, t.child(x, i), cbase)
		}
		if i == len(x.Keys) {
			break
		}
		if x.Level > 0 || i > 0 {
			b.WriteByte(' ')
		}
		k := x.Keys[i]
		fmt.Fprintf(b, "%v%d:%d", base.Unrelative(pos, k.Pos), k.NS, k.ID)
		switch {
		case k.Start():
			b.WriteByte('<')
		case k.End():
			b.WriteByte('>')
		}
		if k.RightGravity() {
			b.WriteByte('+')
		}
	}
	b.WriteByte(']')
}

// idString formats a lookup id as ns:id, with '>' for an end.
func idString(id uint64) string {
	ns, mark, end := base.SplitLookupID(id)
	if end {
		return fmt.Sprintf("%d:%d>", ns, mark)
	}
	return fmt.Sprintf("%d:%d", ns, mark)
}

// Fingerprint hashes the in order stream of absolute positions, ids and
// flags. Two trees holding the same marks in the same places have the same
// fingerprint regardless of their shape.
func (t *MarkTree) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 26)
	it := t.NewIter()
	for ok := it.First(); ok; ok = it.Next() {
		k := it.Key()
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(k.Pos.Row))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(k.Pos.Col))
		buf = binary.LittleEndian.AppendUint64(buf, k.LookupID())
		buf = binary.LittleEndian.AppendUint16(buf, uint16(k.Flags))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}
