package search

import (
	"sync/atomic"
	"unsafe"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/eval"
)

// Bound indicates what relation a stored score has to the position's true value, since
// alpha-beta cutoffs produce bounds rather than exact values (spec 4.8).
type Bound uint8

const (
	ExactBound Bound = iota
	LowerBound       // score is a lower bound (failed high / beta cutoff)
	UpperBound       // score is an upper bound (failed low / alpha cutoff)
)

func (b Bound) String() string {
	switch b {
	case ExactBound:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	default:
		return "unknown"
	}
}

const (
	// ttSize is the number of buckets in the table. Power of 2, so index = hash & (ttSize-1).
	ttSize = 8 * 1024
	// ttSubSize is the number of entries per bucket (spec 4.8: 8 entries/bucket replacement).
	ttSubSize = 8
)

// metadata is the per-entry payload, packed densely since a bucket holds ttSubSize of them.
type metadata struct {
	bound     Bound
	depth     int8
	age       uint8
	side      board.Color // evaluating side the score is relative to (spec 4.8, TT negation)
	from, to  board.Square
	promotion board.PieceType
}

// entry is one transposition table slot.
type entry struct {
	hash  board.ZobristHash
	score eval.Score
	md    metadata
}

// bucket holds ttSubSize entries sharing a hash index. Lookups and inserts scan the whole
// bucket; there is no attempt at associativity beyond linear scan, since ttSubSize is small.
type bucket struct {
	slots [ttSubSize]entry
}

// TranspositionTable caches search results keyed by position hash, so transpositions
// (different move orders reaching the same position) are not re-searched (spec 4.8).
// Entries are looked up and stored per evaluating side; a lookup for the opposite side
// negates the stored score rather than missing (spec 8, testable property 6).
type TranspositionTable interface {
	// Read returns the entry for hash, if present, relative to the given evaluating side.
	Read(hash board.ZobristHash, side board.Color) (Result, bool)
	// Write stores a result for hash, relative to result.Side, subject to the table's
	// replacement policy.
	Write(hash board.ZobristHash, result Result)
	// Size returns the total capacity in entries.
	Size() int
	// Used returns the approximate number of occupied entries.
	Used() int
	// NewGeneration advances the table's age, so the next round of writes may reclaim
	// slots from the previous search (spec 4.8, "age" replacement field).
	NewGeneration()
}

// Result is a transposition table entry's logical content, independent of storage.
type Result struct {
	Score eval.Score
	Bound Bound
	Depth int
	Side  board.Color // the evaluating side Score is relative to
	Best  board.Move  // best/refutation move found at Depth, or the null move
}

// table is the lock-free, bucketed implementation: each bucket is swapped in whole via
// atomic.CompareAndSwapPointer, following the teacher's single-entry lockless pattern
// generalized to ttSubSize entries per bucket (spec 4.8's bucketed replacement policy).
type table struct {
	buckets []unsafe.Pointer // *bucket
	mask    uint64
	age     uint32
	used    int64
}

// NewTranspositionTable returns a table sized to hold ttSize buckets of ttSubSize entries
// each (spec 4.8: "tt_size=8*1024 buckets, tt_sub_size=8 entries per bucket").
func NewTranspositionTable() TranspositionTable {
	return &table{
		buckets: make([]unsafe.Pointer, ttSize),
		mask:    ttSize - 1,
	}
}

func (t *table) Size() int {
	return ttSize * ttSubSize
}

func (t *table) Used() int {
	return int(atomic.LoadInt64(&t.used))
}

func (t *table) NewGeneration() {
	atomic.AddUint32(&t.age, 1)
}

func (t *table) index(hash board.ZobristHash) uint64 {
	return uint64(hash) & t.mask
}

func (t *table) Read(hash board.ZobristHash, side board.Color) (Result, bool) {
	idx := t.index(hash)
	ptr := atomic.LoadPointer(&t.buckets[idx])
	if ptr == nil {
		return Result{}, false
	}
	b := (*bucket)(ptr)
	for i := range b.slots {
		e := &b.slots[i]
		if e.hash != hash || e.hash == 0 {
			continue
		}
		return resultOf(e, side), true
	}
	return Result{}, false
}

// resultOf converts a stored entry to a Result relative to side, negating the score (and
// swapping Lower/Upper bounds, since a bound flips direction under negation) if the entry
// was stored relative to the opponent (spec 8, testable property 6: TT negation).
func resultOf(e *entry, side board.Color) Result {
	score := e.score
	bound := e.md.bound
	if e.md.side != side {
		score = -score
		switch bound {
		case LowerBound:
			bound = UpperBound
		case UpperBound:
			bound = LowerBound
		}
	}
	best := board.Move{From: e.md.from, To: e.md.to, Promotion: e.md.promotion}
	return Result{Score: score, Bound: bound, Depth: int(e.md.depth), Side: side, Best: best}
}

// Write stores result for hash, subject to the replacement policy (spec 4.8): within the
// hashed bucket, skip (keep existing) if an existing same-hash entry has a strictly greater
// depth; skip if the new result is only a bound at the same depth as the existing entry (an
// exact result is more valuable than a bound at equal depth); otherwise pick a slot to overwrite -- preferring an
// empty slot or one from a stale generation, falling back to the minimum-depth slot.
func (t *table) Write(hash board.ZobristHash, result Result) {
	idx := t.index(hash)
	age := uint8(atomic.LoadUint32(&t.age))

	for {
		old := atomic.LoadPointer(&t.buckets[idx])
		var oldBucket *bucket
		if old != nil {
			oldBucket = (*bucket)(old)
		}

		nb := &bucket{}
		if oldBucket != nil {
			*nb = *oldBucket
		}

		slot, grew := t.selectSlot(nb, hash, result.Depth, result.Bound, age)
		if slot < 0 {
			return // existing entry wins; nothing to store.
		}
		nb.slots[slot] = entry{
			hash:  hash,
			score: result.Score,
			md: metadata{
				bound:     result.Bound,
				depth:     int8(result.Depth),
				age:       age,
				side:      result.Side,
				from:      result.Best.From,
				to:        result.Best.To,
				promotion: result.Best.Promotion,
			},
		}

		if atomic.CompareAndSwapPointer(&t.buckets[idx], old, unsafe.Pointer(nb)) {
			if grew {
				atomic.AddInt64(&t.used, 1)
			}
			return
		}
		// Lost the race to a concurrent writer; retry against the new bucket contents.
	}
}

// selectSlot returns the slot index to overwrite in b for a write of the given hash/depth/
// bound/age, or -1 if the existing matching entry should be kept as-is (spec 4.8
// replacement policy). grew reports whether the chosen slot was previously empty.
func (t *table) selectSlot(b *bucket, hash board.ZobristHash, depth int, bound Bound, age uint8) (slot int, grew bool) {
	for i := range b.slots {
		e := &b.slots[i]
		if e.hash != hash || e.hash == 0 {
			continue
		}
		if int(e.md.depth) > depth {
			return -1, false // existing entry searched deeper; keep it.
		}
		if bound != ExactBound && int(e.md.depth) == depth {
			return -1, false // a bound does not replace an entry of equal depth.
		}
		return i, false
	}

	for i := range b.slots {
		if b.slots[i].hash == 0 {
			return i, true
		}
	}
	for i := range b.slots {
		if b.slots[i].md.age != age {
			return i, false
		}
	}
	min := 0
	for i := 1; i < ttSubSize; i++ {
		if b.slots[i].md.depth < b.slots[min].md.depth {
			min = i
		}
	}
	return min, false
}

// NoTranspositionTable is a stub that never hits and never stores, used to disable the
// table entirely (e.g. for perft or a hash size of 0).
type NoTranspositionTable struct{}

func (NoTranspositionTable) Read(board.ZobristHash, board.Color) (Result, bool) { return Result{}, false }
func (NoTranspositionTable) Write(board.ZobristHash, Result)                    {}
func (NoTranspositionTable) Size() int                                         { return 0 }
func (NoTranspositionTable) Used() int                                         { return 0 }
func (NoTranspositionTable) NewGeneration()                                    {}
