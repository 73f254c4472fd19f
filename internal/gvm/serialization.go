package gvm

import "github.com/google/uuid"

// SerializationContext is a named group of objects with stable indices
// used for cross-compilation-unit references and persistence (spec.md
// GLOSSARY "Serialization context", §4.3 "Serialization-context
// operations"). The UUID gives cross-process blob provenance a stable
// identifier independent of the in-process numeric index, which is only
// meaningful within one loaded set of compilation units.
type SerializationContext struct {
	ID      uuid.UUID
	Name    string
	Objects []*Obj
	owner   map[*Obj]int32
}

func NewSerializationContext(name string) *SerializationContext {
	return &SerializationContext{ID: uuid.New(), Name: name, owner: map[*Obj]int32{}}
}

// Create reserves the next free index and stores obj there.
func (sc *SerializationContext) Create(obj *Obj) int32 {
	idx := int32(len(sc.Objects))
	sc.Objects = append(sc.Objects, obj)
	sc.owner[obj] = idx
	return idx
}

func (sc *SerializationContext) Get(idx int32) (*Obj, bool) {
	if idx < 0 || int(idx) >= len(sc.Objects) {
		return nil, false
	}
	return sc.Objects[idx], true
}

func (sc *SerializationContext) Set(idx int32, obj *Obj) {
	for int32(len(sc.Objects)) <= idx {
		sc.Objects = append(sc.Objects, nil)
	}
	sc.Objects[idx] = obj
	sc.owner[obj] = idx
}

// MarkOwner records that obj belongs to this SC, used by `setsc`-style
// handlers before a serialize pass.
func (sc *SerializationContext) MarkOwner(obj *Obj) {
	if _, ok := sc.owner[obj]; !ok {
		sc.Create(obj)
	}
}

func (sc *SerializationContext) OwnerIndex(obj *Obj) (int32, bool) {
	idx, ok := sc.owner[obj]
	return idx, ok
}

// Serialize produces an opaque blob for this SC. The real wire format is
// a collaborator concern (spec.md §1 "serialization" is out of scope); this
// writes only a 20-byte header: the 16-byte SC id followed by the object
// count as a little-endian uint32. Object contents are not encoded.
func (sc *SerializationContext) Serialize() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, sc.ID[:]...)
	n := len(sc.Objects)
	buf = appendUint32(buf, uint32(n))
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// DeserializeHeader reads back the SC id and object count written by
// Serialize. The blob carries no object contents, so Objects cannot be
// repopulated from it.
func DeserializeHeader(blob []byte) (uuid.UUID, uint32, bool) {
	if len(blob) < 20 {
		return uuid.UUID{}, 0, false
	}
	var id uuid.UUID
	copy(id[:], blob[:16])
	n := uint32(blob[16]) | uint32(blob[17])<<8 | uint32(blob[18])<<16 | uint32(blob[19])<<24
	return id, n, true
}
