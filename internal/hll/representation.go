// Package hll assembles the process-global Instance singleton (spec.md
// §3 "Instance"): boot types, the HLL symbol table, and the compiler
// registry. The object/metaobject subsystem itself — representations,
// attribute accessors — is explicitly a collaborator the core only
// consumes (spec.md §1), so this package supplies one concrete,
// deliberately simple Representation (a flat name-indexed slot layout,
// the P6opaque-style object layout every Rakudo-shaped VM uses) rather
// than reimplementing a full metaobject protocol.
package hll

import "github.com/kstephano-gvm/coreloop/internal/gvm"

// SlotRepresentation is a flat attribute-slot object layout: attributes
// addressed by name (Obj.Attrs) double as the by-index storage, with
// AttrNames giving sp_p6oget_o/sp_p6obind_o their
// known-offset view over the same storage.
type SlotRepresentation struct {
	TypeName  string
	AttrNames []string
}

func (r *SlotRepresentation) Name() string { return r.TypeName }

func (r *SlotRepresentation) Allocate(st *gvm.Stable) *gvm.Obj {
	return &gvm.Obj{Stable: st, Attrs: map[string]gvm.Register{}}
}

func (r *SlotRepresentation) CloneInto(dst, src *gvm.Obj) {
	dst.Attrs = cloneRegMap(src.Attrs)
	dst.Assoc = cloneRegMap(src.Assoc)
	dst.Pos = append([]gvm.Register(nil), src.Pos...)
	dst.Who = src.Who
}

func (r *SlotRepresentation) GetAttrByIdx(o *gvm.Obj, idx int) gvm.Register {
	if idx < 0 || idx >= len(r.AttrNames) {
		return gvm.Register{}
	}
	return o.Attrs[r.AttrNames[idx]]
}

func (r *SlotRepresentation) BindAttrByIdx(o *gvm.Obj, idx int, v gvm.Register) {
	if idx < 0 || idx >= len(r.AttrNames) {
		return
	}
	if o.Attrs == nil {
		o.Attrs = map[string]gvm.Register{}
	}
	o.Attrs[r.AttrNames[idx]] = v
}

func (r *SlotRepresentation) GetAttrByName(o *gvm.Obj, name string) (gvm.Register, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

func (r *SlotRepresentation) BindAttrByName(o *gvm.Obj, name string, v gvm.Register) {
	if o.Attrs == nil {
		o.Attrs = map[string]gvm.Register{}
	}
	o.Attrs[name] = v
}

func (r *SlotRepresentation) PosGet(o *gvm.Obj, i int64) (gvm.Register, bool) {
	if i < 0 || int(i) >= len(o.Pos) {
		return gvm.Register{}, false
	}
	return o.Pos[i], true
}

func (r *SlotRepresentation) PosBind(o *gvm.Obj, i int64, v gvm.Register) {
	if i < 0 {
		return
	}
	for int64(len(o.Pos)) <= i {
		o.Pos = append(o.Pos, gvm.Register{})
	}
	o.Pos[i] = v
}

func (r *SlotRepresentation) AssocGet(o *gvm.Obj, key string) (gvm.Register, bool) {
	if o.Assoc == nil {
		return gvm.Register{}, false
	}
	v, ok := o.Assoc[key]
	return v, ok
}

func (r *SlotRepresentation) AssocBind(o *gvm.Obj, key string, v gvm.Register) {
	if o.Assoc == nil {
		o.Assoc = map[string]gvm.Register{}
	}
	o.Assoc[key] = v
}

func cloneRegMap(m map[string]gvm.Register) map[string]gvm.Register {
	if m == nil {
		return nil
	}
	out := make(map[string]gvm.Register, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
