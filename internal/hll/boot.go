package hll

import (
	"github.com/kstephano-gvm/coreloop/internal/gc"
	"github.com/kstephano-gvm/coreloop/internal/gvm"
)

// Config mirrors the teacher's NewVirtualMachine(debug bool) constructor,
// generalized to the knobs a full Instance boot needs.
type Config struct {
	HLLName        string
	GC             gc.Config
	EventQueueSize int
}

func DefaultConfig(hllName string) Config {
	return Config{
		HLLName:        hllName,
		GC:             gc.DefaultConfig(),
		EventQueueSize: 64,
	}
}

// bootType is one boot-time type: name, its attribute slots, and the
// Stable every instance shares.
type bootType struct {
	name      string
	attrNames []string
}

var defaultBootTypes = []bootType{
	{name: "Int", attrNames: []string{"$box"}},
	{name: "Num", attrNames: []string{"$box"}},
	{name: "Str", attrNames: []string{"$box"}},
	{name: "Bool", attrNames: []string{"$box"}},
	{name: "Array", attrNames: nil},
	{name: "Hash", attrNames: nil},
	{name: "Exception", attrNames: []string{"$payload", "$category", "$message"}},
	{name: "Scalar", attrNames: []string{"$value"}}, // container protocol, handlers_container.go
}

// Boot assembles a process-global Instance the way main.go's
// NewVirtualMachine assembled a *VM: boot types with their Stables and
// representations, the GC collaborator, the HLL symbol table, and the
// small-int identity cache. Returns the concrete *gc.Collector alongside
// the Instance since BootTinyInts and future collection tuning need the
// concrete type, not just the gvm.GCCollaborator interface view.
func Boot(cfg Config) (*gvm.Instance, *gc.Collector) {
	collector := gc.New(cfg.GC)

	inst := &gvm.Instance{
		BootTypes:  map[string]*gvm.TypeObject{},
		HLLSymbols: gvm.NewSymbolTable(),
		Compilers:  map[string]*gvm.CompilationUnit{},
		GC:         collector,
		EventQueue: make(chan gvm.Event, cfg.EventQueueSize),
	}

	for _, bt := range defaultBootTypes {
		st := &gvm.Stable{
			Name:     bt.name,
			HLLOwner: cfg.HLLName,
			Repr:     &SlotRepresentation{TypeName: bt.name, AttrNames: bt.attrNames},
		}
		inst.BootTypes[bt.name] = &gvm.TypeObject{Name: bt.name, Stable: st}
		if bt.name == "Int" {
			collector.SetIntStable(st)
		}
	}

	nullStable := inst.BootTypes["Int"].Stable
	inst.NullSentinel = &gvm.Obj{Stable: nullStable}
	inst.RegisterObj(inst.NullSentinel) // handle 0

	collector.BootTinyInts(inst)

	return inst, collector
}

// RegisterCompiler installs a loaded compilation unit under name (spec.md
// §3 "Instance": "Compilers: map[String]CompilationUnit — one per loaded
// HLL/compunit").
func RegisterCompiler(inst *gvm.Instance, name string, cu *gvm.CompilationUnit) {
	if inst.Compilers == nil {
		inst.Compilers = map[string]*gvm.CompilationUnit{}
	}
	inst.Compilers[name] = cu
}

// NewThread builds a fresh ThreadContext anchored to inst, the way
// hThreadRun (handlers_concurrency.go) spins up a sibling thread for
// threadrun — and the same constructor a CLI entry point uses for its
// single main thread.
func NewThread(inst *gvm.Instance, id uint64) *gvm.ThreadContext {
	tracing := false
	return &gvm.ThreadContext{
		ID:             id,
		Instance:       inst,
		TracingEnabled: &tracing,
	}
}
