// Package gc implements the garbage-collector collaborator the dispatch
// core requires (spec.md §1, §5, gvm.GCCollaborator). The core treats the
// collector as an opaque contract: safe-points, a write barrier, a
// from-space assertion, temporary rooting, and allocation. Nothing in the
// retrieval pack offers a third-party embeddable GC for a custom object
// model — this is load-bearing application logic specific to the object
// layout defined in internal/gvm, not a concern an ecosystem library
// would reasonably serve — so it is hand-written here, modeled as a
// semispace copying collector the way spec.md §5 describes one.
//
// Go's own runtime already reclaims the *gvm.Obj values this package
// allocates; what this collector actually tracks is the bookkeeping the
// dispatch core's invariants depend on: which objects are "from-space"
// after a simulated copy, which Go-local references are rooted across a
// potentially-allocating call, and the small-integer identity cache.
package gc

import (
	"sync"

	"github.com/kstephano-gvm/coreloop/internal/bigint"
	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

// Config tunes the collector the way NewVirtualMachine's debug bool tuned
// the teacher's VM, generalized to the knobs a copying collector needs.
type Config struct {
	NurseryBytes int // collection triggers once allocated bytes reach this
}

func DefaultConfig() Config {
	return Config{NurseryBytes: 1 << 20}
}

// Collector is a simulated semispace copying collector. fromSpace holds
// every object allocated since the last collection; a collection walks
// the calling thread's live frame chain plus the explicit root table and
// flips FromSpace on anything not found reachable, exactly as a real
// copying collector would leave a stale forwarding pointer behind.
type Collector struct {
	cfg Config

	mu        sync.Mutex
	fromSpace []*gvm.Obj
	allocated int

	rootsMu   sync.Mutex
	roots     map[int]*gvm.Obj
	nextToken int

	tinyMu   sync.Mutex
	tinyInts [16]*gvm.Obj
	intStable *gvm.Stable
}

func New(cfg Config) *Collector {
	return &Collector{
		cfg:   cfg,
		roots: map[int]*gvm.Obj{},
	}
}

// SetIntStable installs the Stable small-integer boxes carry. Called once
// during boot (internal/hll) before any sp_fastbox_*_ic opcode can fire.
func (c *Collector) SetIntStable(st *gvm.Stable) {
	c.intStable = st
}

// BootTinyInts pre-populates the [-1, 14] identity cache and registers each
// box into inst's object table, filling Instance.TinyIntCache the way its
// doc comment promises ("filled in by the GC collaborator on boot").
func (c *Collector) BootTinyInts(inst *gvm.Instance) {
	for v := int64(-1); v <= 14; v++ {
		o := c.BoxSmallInt(v)
		handle := inst.RegisterObj(o)
		inst.TinyIntCache[v+1] = handle
	}
}

// SafePoint implements gvm.GCCollaborator. It is the one place the
// collector can run: every backward/unconditional branch and every
// branch-based conditional calls through here (spec.md §5 "GC
// safe-points"), so a collection never interrupts a handler mid-mutation.
func (c *Collector) SafePoint(tc *gvm.ThreadContext) {
	c.mu.Lock()
	due := c.allocated >= c.cfg.NurseryBytes
	c.mu.Unlock()
	if !due {
		return
	}
	c.collect(tc)
}

// collect simulates a copying pass: anything reachable from the calling
// thread's current frame chain, the explicit root table, or the tiny-int
// cache survives; everything else in fromSpace is marked FromSpace so a
// later read trips the debug-build assertion (spec.md §5 "From-space
// assertions" — "surfaces use-after-copy bugs immediately").
func (c *Collector) collect(tc *gvm.ThreadContext) {
	tc.Blocked = true
	defer func() { tc.Blocked = false }()

	live := map[*gvm.Obj]bool{}
	c.markFrameChain(tc, tc.CurFrame, live)

	c.rootsMu.Lock()
	for _, o := range c.roots {
		if o != nil {
			live[o] = true
		}
	}
	c.rootsMu.Unlock()

	c.tinyMu.Lock()
	for _, o := range c.tinyInts {
		if o != nil {
			live[o] = true
		}
	}
	c.tinyMu.Unlock()

	c.mu.Lock()
	survivors := c.fromSpace[:0]
	for _, o := range c.fromSpace {
		if live[o] {
			survivors = append(survivors, o)
		} else {
			o.FromSpace = true
		}
	}
	c.fromSpace = survivors
	c.allocated = 0
	c.mu.Unlock()

	if tc.Log != nil {
		tc.Log.Debugw("gc collection complete", "survivors", len(survivors))
	}
}

func (c *Collector) markFrameChain(tc *gvm.ThreadContext, f *gvm.Frame, live map[*gvm.Obj]bool) {
	for cur := f; cur != nil; cur = cur.Caller {
		c.markRegisters(tc, cur.Registers, live)
		c.markRegisters(tc, cur.Lexicals, live)
	}
}

func (c *Collector) markRegisters(tc *gvm.ThreadContext, regs []gvm.Register, live map[*gvm.Obj]bool) {
	if tc.Instance == nil {
		return
	}
	for _, r := range regs {
		if r.Kind() != gvm.KindObj {
			continue
		}
		if o := tc.Instance.ObjAt(r.ObjHandle()); o != nil {
			live[o] = true
		}
	}
}

// WriteBarrier implements gvm.GCCollaborator. This simulation has no
// generational remembered set to maintain beyond the live-scan collect
// already performs, but the call site still matters: it is the contract
// point spec.md §5 requires every managed-reference store to cross, and a
// future generational upgrade hooks in exactly here without touching any
// caller.
func (c *Collector) WriteBarrier(holder *gvm.Obj, newValue gvm.Register) {
	_ = holder
	_ = newValue
}

// AssertNotFromSpace implements gvm.GCCollaborator (spec.md §5 "From-space
// assertions"). Panicking here (rather than returning an error) matches
// spec.md §7's treatment of invariant violations as bugs, not recoverable
// VM errors.
func (c *Collector) AssertNotFromSpace(o *gvm.Obj) {
	if o != nil && o.FromSpace {
		panic("gc: read of from-space object (use-after-copy)")
	}
}

// RootTemporary/UnrootTemporary implement gvm.GCCollaborator's temporary
// rooting bracket (spec.md §5 "Temporary rooting"). This collector never
// actually relocates an object mid-call (collection only runs from
// SafePoint), so "current" is always the same pointer handed in; a real
// copying collector would return the post-copy address here instead.
func (c *Collector) RootTemporary(o *gvm.Obj) (int, *gvm.Obj) {
	c.rootsMu.Lock()
	defer c.rootsMu.Unlock()
	c.nextToken++
	token := c.nextToken
	c.roots[token] = o
	return token, o
}

func (c *Collector) UnrootTemporary(token int) {
	c.rootsMu.Lock()
	defer c.rootsMu.Unlock()
	delete(c.roots, token)
}

// Allocate implements gvm.GCCollaborator: the general path, which defers
// to the type's own Representation when one is installed.
func (c *Collector) Allocate(st *gvm.Stable) *gvm.Obj {
	var o *gvm.Obj
	if st != nil && st.Repr != nil {
		o = st.Repr.Allocate(st)
	} else {
		o = &gvm.Obj{Stable: st}
	}
	c.track(o, 64)
	return o
}

// AllocateFast implements gvm.GCCollaborator: sp_fastcreate's bump-pointer
// nursery path for a known size+Stable (spec.md §4.6), skipping the
// Representation dispatch Allocate goes through since the optimizer has
// already resolved the shape.
func (c *Collector) AllocateFast(st *gvm.Stable, size int) *gvm.Obj {
	o := &gvm.Obj{Stable: st}
	c.track(o, size)
	return o
}

func (c *Collector) track(o *gvm.Obj, size int) {
	c.mu.Lock()
	c.fromSpace = append(c.fromSpace, o)
	c.allocated += size
	c.mu.Unlock()
}

// BoxSmallInt implements gvm.GCCollaborator (spec.md Testable Property 10:
// values in [-1, 14] return the same cached *Obj by identity).
func (c *Collector) BoxSmallInt(v int64) *gvm.Obj {
	if v < -1 || v > 14 {
		return c.boxInt(v)
	}
	idx := v + 1
	c.tinyMu.Lock()
	defer c.tinyMu.Unlock()
	if c.tinyInts[idx] == nil {
		c.tinyInts[idx] = c.boxInt(v)
	}
	return c.tinyInts[idx]
}

func (c *Collector) boxInt(v int64) *gvm.Obj {
	big := bigint.FromInt64(v)
	o := &gvm.Obj{Stable: c.intStable, Big: &big}
	c.track(o, 24)
	return o
}
