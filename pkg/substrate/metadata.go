// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/luxfi/dotcli/pkg/models"
)

// nesting deeper than this is treated as malformed
const maxTypeDepth = 64

var ErrUnsupportedMetadata = errors.New("unsupported runtime metadata")

// Metadata is a decoded V14 runtime metadata with the call and event
// decoders built from it.
type Metadata struct {
	meta   *types.Metadata
	calls  registry.CallRegistry
	events registry.EventRegistry

	// lookup ids of the UncheckedExtrinsic type parameters
	address, signature, extra int64
}

// DecodeMetadata decodes the hex string returned by state_getMetadata.
func DecodeMetadata(hexMeta string) (*Metadata, error) {
	var meta types.Metadata
	if err := codec.DecodeFromHex(hexMeta, &meta); err != nil {
		return nil, wrapDecode("metadata", err)
	}
	return newMetadata(&meta)
}

func newMetadata(meta *types.Metadata) (*Metadata, error) {
	if meta.Version != 14 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedMetadata, meta.Version)
	}
	factory := registry.NewFactory()
	calls, err := factory.CreateCallRegistry(meta)
	if err != nil {
		return nil, fmt.Errorf("call registry: %w", err)
	}
	events, err := factory.CreateEventRegistry(meta)
	if err != nil {
		return nil, fmt.Errorf("event registry: %w", err)
	}
	m := &Metadata{meta: meta, calls: calls, events: events, address: -1, signature: -1, extra: -1}

	ext := meta.AsMetadataV14.Extrinsic
	if typ, ok := meta.AsMetadataV14.EfficientLookup[ext.Type.Int64()]; ok {
		for _, p := range typ.Params {
			if !p.HasType {
				continue
			}
			switch string(p.Name) {
			case "Address":
				m.address = p.Type.Int64()
			case "Signature":
				m.signature = p.Type.Int64()
			case "Extra":
				m.extra = p.Type.Int64()
			}
		}
	}
	return m, nil
}

// CallName resolves a call index to its pallet and call names.
func (m *Metadata) CallName(idx models.CallIndex) (pallet, call string, ok bool) {
	dec, ok := m.calls[types.CallIndex{SectionIndex: idx[0], MethodIndex: idx[1]}]
	if !ok {
		return "", "", false
	}
	pallet, call = splitName(dec.Name)
	return pallet, call, true
}

func splitName(name string) (string, string) {
	pallet, item, found := strings.Cut(name, ".")
	if !found {
		return "", name
	}
	return pallet, item
}

// ExtrinsicCall returns the call index of an encoded extrinsic. Signed
// extrinsics are walked past their address, signature and extensions
// using the runtime's type registry.
func (m *Metadata) ExtrinsicCall(x Extrinsic) (models.CallIndex, error) {
	var idx models.CallIndex
	d := scale.NewDecoder(bytes.NewReader(x))
	if _, err := decodeCompactInt(d); err != nil {
		return idx, wrapDecode("extrinsic length", err)
	}
	v, err := d.ReadOneByte()
	if err != nil {
		return idx, wrapDecode("extrinsic version", err)
	}
	if v&signedBit != 0 {
		if m.address < 0 || m.signature < 0 || m.extra < 0 {
			return idx, fmt.Errorf("%w: extrinsic type has no signature parameters", ErrUnsupportedMetadata)
		}
		for _, t := range []int64{m.address, m.signature, m.extra} {
			if err := m.skipType(d, t, 0); err != nil {
				return idx, err
			}
		}
	}
	if err := d.Read(idx[:]); err != nil {
		return idx, wrapDecode("call index", err)
	}
	return idx, nil
}

// skipType reads past one value of the registry type id.
func (m *Metadata) skipType(d *scale.Decoder, id int64, depth int) error {
	if depth > maxTypeDepth {
		return fmt.Errorf("%w: type %d nested too deep", ErrDecode, id)
	}
	typ, ok := m.meta.AsMetadataV14.EfficientLookup[id]
	if !ok {
		return fmt.Errorf("%w: type %d not in registry", ErrDecode, id)
	}
	def := typ.Def
	switch {
	case def.IsComposite:
		return m.skipFields(d, def.Composite.Fields, depth)
	case def.IsVariant:
		b, err := d.ReadOneByte()
		if err != nil {
			return wrapDecode("variant", err)
		}
		for _, v := range def.Variant.Variants {
			if byte(v.Index) == b {
				return m.skipFields(d, v.Fields, depth)
			}
		}
		return fmt.Errorf("%w: type %d has no variant %d", ErrDecode, id, b)
	case def.IsSequence:
		n, err := decodeCompactInt(d)
		if err != nil {
			return wrapDecode("sequence length", err)
		}
		return m.skipRepeated(d, def.Sequence.Type.Int64(), n, depth)
	case def.IsArray:
		return m.skipRepeated(d, def.Array.Type.Int64(), int(def.Array.Len), depth)
	case def.IsTuple:
		for _, t := range def.Tuple {
			if err := m.skipType(d, t.Int64(), depth+1); err != nil {
				return err
			}
		}
		return nil
	case def.IsPrimitive:
		return skipPrimitive(d, def.Primitive.Si0TypeDefPrimitive)
	case def.IsCompact:
		_, err := d.DecodeUintCompact()
		return wrapDecode("compact", err)
	case def.IsBitSequence:
		bits, err := decodeCompactInt(d)
		if err != nil {
			return wrapDecode("bit sequence", err)
		}
		store := 1
		if st, ok := m.meta.AsMetadataV14.EfficientLookup[def.BitSequence.BitStoreType.Int64()]; ok && st.Def.IsPrimitive {
			store = primitiveSize(st.Def.Primitive.Si0TypeDefPrimitive)
		}
		words := (bits + 8*store - 1) / (8 * store)
		return wrapDecode("bit sequence", skip(d, words*store))
	}
	return fmt.Errorf("%w: type %d has an unsupported definition", ErrDecode, id)
}

func (m *Metadata) skipFields(d *scale.Decoder, fields []types.Si1Field, depth int) error {
	for _, f := range fields {
		if err := m.skipType(d, f.Type.Int64(), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metadata) skipRepeated(d *scale.Decoder, elem int64, n, depth int) error {
	if typ, ok := m.meta.AsMetadataV14.EfficientLookup[elem]; ok && typ.Def.IsPrimitive {
		if size := primitiveSize(typ.Def.Primitive.Si0TypeDefPrimitive); size > 0 {
			return wrapDecode("sequence", skip(d, n*size))
		}
	}
	for range n {
		if err := m.skipType(d, elem, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// primitiveSize is the fixed width of p, or 0 for str.
func primitiveSize(p types.Si0TypeDefPrimitive) int {
	switch p {
	case types.IsBool, types.IsU8, types.IsI8:
		return 1
	case types.IsU16, types.IsI16:
		return 2
	case types.IsChar, types.IsU32, types.IsI32:
		return 4
	case types.IsU64, types.IsI64:
		return 8
	case types.IsU128, types.IsI128:
		return 16
	case types.IsU256, types.IsI256:
		return 32
	}
	return 0
}

func skipPrimitive(d *scale.Decoder, p types.Si0TypeDefPrimitive) error {
	if p == types.IsStr {
		n, err := decodeCompactInt(d)
		if err != nil {
			return wrapDecode("str", err)
		}
		return wrapDecode("str", skip(d, n))
	}
	size := primitiveSize(p)
	if size == 0 {
		return fmt.Errorf("%w: unknown primitive %d", ErrDecode, p)
	}
	return wrapDecode("primitive", skip(d, size))
}

// SystemEventsKey is the storage key of the current block's events.
func SystemEventsKey() StorageKey {
	return NewStorageKey("System", "Events")
}

// EventField is one decoded event argument.
type EventField struct {
	Name  string
	Value any
}

func (f EventField) String() string {
	return f.Name + ": " + formatValue(f.Value)
}

// formatValue renders a decoded value. Byte arrays print as hex and single
// field wrappers such as AccountId32 print as their inner value.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "()"
	case registry.DecodedFields:
		if len(v) == 1 {
			return formatValue(v[0].Value)
		}
		parts := make([]string, 0, len(v))
		for _, f := range v {
			parts = append(parts, EventField{Name: shortFieldName(f.Name), Value: f.Value}.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		raw := make([]byte, 0, len(v))
		for _, item := range v {
			b, ok := item.(types.U8)
			if !ok {
				raw = nil
				break
			}
			raw = append(raw, byte(b))
		}
		if raw != nil {
			return "0x" + hex.EncodeToString(raw)
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// EventRecord is one entry of System.Events.
type EventRecord struct {
	Pallet string
	Name   string
	// Extrinsic is the index of the extrinsic that emitted the event, nil
	// for events of block initialization or finalization.
	Extrinsic *uint32
	Fields    []EventField
}

// Values renders the event arguments as "name: value" pairs.
func (r EventRecord) Values() string {
	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ", ")
}

// DecodeEvents decodes the raw value of System.Events.
func (m *Metadata) DecodeEvents(raw []byte) ([]EventRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	sd := types.StorageDataRaw(raw)
	parsed, err := parser.NewEventParser().ParseEvents(m.events, &sd)
	if err != nil {
		return nil, fmt.Errorf("%w: events: %v", ErrDecode, err)
	}
	out := make([]EventRecord, 0, len(parsed))
	for _, ev := range parsed {
		rec := EventRecord{}
		rec.Pallet, rec.Name = splitName(ev.Name)
		if ev.Phase != nil && ev.Phase.IsApplyExtrinsic {
			i := ev.Phase.AsApplyExtrinsic
			rec.Extrinsic = &i
		}
		for _, f := range ev.Fields {
			rec.Fields = append(rec.Fields, EventField{Name: shortFieldName(f.Name), Value: f.Value})
		}
		out = append(out, rec)
	}
	return out, nil
}

// shortFieldName drops the type path the registry prefixes field names with.
func shortFieldName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
