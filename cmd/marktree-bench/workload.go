package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/alexhholmes/marktree"
	"github.com/alexhholmes/marktree/cmd/marktree-bench/config"
)

type opKind int

const (
	opPut opKind = iota
	opDel
	opSplice
	opMove
	opOverlap
	opCount
)

var opNames = [opCount]string{"put", "del", "splice", "move", "overlap"}

// report summarizes a workload run.
type report struct {
	ops         [opCount]int
	elapsed     time.Duration
	tree        marktree.Stats
	overlaps    int
	checks      int
	fingerprint uint64
}

func (r report) String() string {
	total := 0
	for _, n := range r.ops {
		total += n
	}
	s := fmt.Sprintf("ops: %d in %v (%.0f ops/sec)\n", total, r.elapsed.Round(time.Millisecond),
		float64(total)/max(r.elapsed.Seconds(), 1e-9))
	for k, n := range r.ops {
		s += fmt.Sprintf("  %-8s %d\n", opNames[k], n)
	}
	st := r.tree
	s += fmt.Sprintf("keys: %d, nodes: %d, height: %d\n", st.Keys, st.Nodes, st.Height)
	s += fmt.Sprintf("arena: %d nodes in %d slots\n", st.ArenaNodes, st.ArenaSlots)
	if lookups := st.CacheHits + st.CacheMisses; lookups > 0 {
		s += fmt.Sprintf("lookup cache: %d hits, %d misses (%.1f%% hit rate), %d entries\n",
			st.CacheHits, st.CacheMisses, 100*float64(st.CacheHits)/float64(lookups), st.CacheEntries)
	}
	s += fmt.Sprintf("overlap hits: %d, checks: %d\n", r.overlaps, r.checks)
	s += fmt.Sprintf("fingerprint: %016x", r.fingerprint)
	return s
}

// workload drives random operations against a tree and tracks which lookup
// ids are live.
type workload struct {
	cfg  *config.Config
	rng  *rand.Rand
	tree *marktree.MarkTree
	ids  []uint64
	next uint32
}

func newWorkload(cfg *config.Config, tree *marktree.MarkTree) *workload {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &workload{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		tree: tree,
	}
}

func (w *workload) randPos() marktree.Pos {
	return marktree.Pos{Row: w.rng.Intn(w.cfg.Rows), Col: w.rng.Intn(w.cfg.Cols)}
}

func (w *workload) put() {
	w.next++
	k := marktree.Key{Pos: w.randPos(), NS: 1, ID: w.next}
	if w.rng.Intn(2) == 0 {
		k.Flags |= marktree.FlagRightGravity
	}
	if w.rng.Intn(4) == 0 {
		k.Flags |= marktree.FlagDecorInline
	}
	if w.rng.Float64() < w.cfg.PairRatio {
		end := w.randPos()
		if end.Less(k.Pos) {
			k.Pos, end = end, k.Pos
		}
		w.tree.PutPair(k, end, w.rng.Intn(2) == 0)
		w.ids = append(w.ids, k.LookupID(), marktree.LookupID(k.NS, k.ID, true))
		return
	}
	w.tree.Put(k)
	w.ids = append(w.ids, k.LookupID())
}

// pick removes nothing; it returns a random live id and its index.
func (w *workload) pick() (uint64, int, bool) {
	if len(w.ids) == 0 {
		return 0, 0, false
	}
	i := w.rng.Intn(len(w.ids))
	return w.ids[i], i, true
}

// lookup positions an iterator on a live id.
func (w *workload) lookup(id uint64) (marktree.Iter, error) {
	it := w.tree.NewIter()
	if _, ok := w.tree.Lookup(id, &it); !ok {
		return it, fmt.Errorf("%w: live id %#x", marktree.ErrKeyMissing, id)
	}
	return it, nil
}

func (w *workload) del() error {
	id, i, ok := w.pick()
	if !ok {
		return nil
	}
	it, err := w.lookup(id)
	if err != nil {
		return err
	}
	w.tree.Del(&it)
	w.ids[i] = w.ids[len(w.ids)-1]
	w.ids = w.ids[:len(w.ids)-1]
	return nil
}

func (w *workload) splice() {
	start := w.randPos()
	var oldExtent, newExtent marktree.Pos
	if w.rng.Intn(3) == 0 {
		oldExtent = marktree.Pos{Row: w.rng.Intn(3), Col: w.rng.Intn(w.cfg.Cols)}
		newExtent = marktree.Pos{Row: w.rng.Intn(3), Col: w.rng.Intn(w.cfg.Cols)}
	} else {
		oldExtent.Col = w.rng.Intn(10)
		newExtent.Col = w.rng.Intn(10)
	}
	w.tree.Splice(start, oldExtent, newExtent)
}

func (w *workload) move() error {
	id, _, ok := w.pick()
	if !ok {
		return nil
	}
	it, err := w.lookup(id)
	if err != nil {
		return err
	}
	w.tree.Move(&it, w.randPos())
	return nil
}

func (w *workload) overlap() int {
	it := w.tree.NewIter()
	n := 0
	if !w.tree.GetOverlap(w.randPos(), &it) {
		return 0
	}
	for {
		if _, ok := w.tree.StepOverlap(&it); !ok {
			return n
		}
		n++
	}
}

func (w *workload) choose() opKind {
	m := w.cfg.Mix
	weights := [opCount]int{m.Put, m.Del, m.Splice, m.Move, m.Overlap}
	r := w.rng.Intn(m.Total())
	for k, wt := range weights {
		if r < wt {
			return opKind(k)
		}
		r -= wt
	}
	return opPut
}

// run fills the tree, then performs cfg.Ops random operations. progress is
// called about once a second.
func (w *workload) run(progress func(done int, elapsed time.Duration)) (report, error) {
	var r report
	for range w.cfg.Marks {
		w.put()
	}

	start := time.Now()
	lastPrint := start
	for i := range w.cfg.Ops {
		k := w.choose()
		var err error
		switch k {
		case opPut:
			w.put()
		case opDel:
			err = w.del()
		case opSplice:
			w.splice()
		case opMove:
			err = w.move()
		case opOverlap:
			r.overlaps += w.overlap()
		}
		if err != nil {
			return r, fmt.Errorf("op %d (%s): %w", i+1, opNames[k], err)
		}
		r.ops[k]++

		if w.cfg.CheckEvery > 0 && (i+1)%w.cfg.CheckEvery == 0 {
			r.checks++
			if err := w.tree.Check(); err != nil {
				return r, fmt.Errorf("after op %d (%s): %w", i+1, opNames[k], err)
			}
		}
		if progress != nil && time.Since(lastPrint) >= time.Second {
			progress(i+1, time.Since(start))
			lastPrint = time.Now()
		}
	}
	r.elapsed = time.Since(start)

	r.checks++
	if err := w.tree.Check(); err != nil {
		return r, fmt.Errorf("final check: %w", err)
	}
	r.tree = w.tree.Stats()
	r.fingerprint = w.tree.Fingerprint()
	return r, nil
}
