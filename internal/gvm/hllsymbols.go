package gvm

import (
	"sync"

	"github.com/dolthub/swiss"
)

// SymbolTable backs Instance.HLLSymbols and the current-HLL symbol
// family (bindcurhllsym/getcurhllsym and friends in spec.md §4.3 "HLL
// support"). swiss.Map isn't safe for concurrent access on its own, so a
// single mutex guards both the per-HLL map-of-maps and every map's
// contents — a coarser lock than a real VM would want on this hot a path,
// but consistent with DESIGN.md "(b) settypecache"'s decision not to
// introduce RCU for this exercise.
type SymbolTable struct {
	mu   sync.RWMutex
	hlls map[string]*swiss.Map[string, Register]
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{hlls: map[string]*swiss.Map[string, Register]{}}
}

// Get implements getcurhllsym's lookup: returns the zero Register and
// false if hll has no symbol table yet or name is unbound in it.
func (st *SymbolTable) Get(hll, name string) (Register, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	m, ok := st.hlls[hll]
	if !ok {
		return Register{}, false
	}
	return m.Get(name)
}

// Bind implements bindcurhllsym. Per spec.md §5 "Temporary rooting", the
// first bind for a given HLL allocates its hash — callers that may cross
// a safe-point doing so should have already rooted anything they hold.
func (st *SymbolTable) Bind(hll, name string, v Register) {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.hlls[hll]
	if !ok {
		m = swiss.NewMap[string, Register](8)
		st.hlls[hll] = m
	}
	m.Put(name, v)
}
