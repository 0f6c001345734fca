// Package vconf provides ordered hierarchical configuration values.
//
// A Value is a tree node of one of three kinds: scalar, sequence, or
// mapping. Mappings preserve declaration order, which callers depend on
// (positional shorthand labels are derived from it), and support
// consume-on-read lookups via Take so that option keys can be peeled off
// a mapping before the remaining entries are iterated as data.
//
// Values are parsed from YAML. Scalars are kept as their raw string form
// and coerced on demand; a key that looks numeric and one that looks
// boolean are both just strings until a caller asks otherwise.
package vconf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "unknown"
}

// Pair is one mapping entry.
type Pair struct {
	Key   string
	Value *Value
}

// Value is one node of a configuration tree.
//
// Mapping entries remember whether they have been consumed by Take;
// consumed entries are invisible to Len, Key, and Pairs but remain
// reachable through Get, which inheritance helpers rely on.
type Value struct {
	kind     Kind
	scalar   string
	seq      []*Value
	keys     []string
	children map[string]*Value
	consumed map[string]bool
}

// NewScalar returns a scalar Value holding the given text.
func NewScalar(s string) *Value {
	return &Value{kind: KindScalar, scalar: s}
}

// NewSequence returns a sequence Value over the given elements.
func NewSequence(elems ...*Value) *Value {
	return &Value{kind: KindSequence, seq: elems}
}

// NewMapping returns an empty mapping Value.
func NewMapping() *Value {
	return &Value{
		kind:     KindMapping,
		children: map[string]*Value{},
		consumed: map[string]bool{},
	}
}

// Kind returns the node's kind.
func (v *Value) Kind() Kind { return v.kind }

// IsScalar reports whether the node is a scalar.
func (v *Value) IsScalar() bool { return v.kind == KindScalar }

// IsSequence reports whether the node is a sequence.
func (v *Value) IsSequence() bool { return v.kind == KindSequence }

// IsMapping reports whether the node is a mapping.
func (v *Value) IsMapping() bool { return v.kind == KindMapping }

// Len returns the number of visible entries: mapping entries not yet
// consumed, sequence elements, or 1 for a scalar (a scalar is usable
// wherever a one-element sequence is).
func (v *Value) Len() int {
	switch v.kind {
	case KindMapping:
		n := 0
		for _, k := range v.keys {
			if !v.consumed[k] {
				n++
			}
		}
		return n
	case KindSequence:
		return len(v.seq)
	}
	return 1
}

// At returns the i'th sequence element. A scalar acts as a one-element
// sequence of itself. Out-of-range indices return nil.
func (v *Value) At(i int) *Value {
	if v.kind == KindScalar {
		if i == 0 {
			return v
		}
		return nil
	}
	if v.kind != KindSequence || i < 0 || i >= len(v.seq) {
		return nil
	}
	return v.seq[i]
}

// Set adds a mapping entry. Duplicate keys are an error.
func (v *Value) Set(key string, val *Value) error {
	if v.kind != KindMapping {
		return fmt.Errorf("vconf: cannot set key %q on a %s", key, v.kind)
	}
	if _, dup := v.children[key]; dup {
		return fmt.Errorf("vconf: duplicate key %q", key)
	}
	v.keys = append(v.keys, key)
	v.children[key] = val
	return nil
}

// Get returns the value for key, consumed or not.
func (v *Value) Get(key string) (*Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	c, ok := v.children[key]
	return c, ok
}

// Take returns the value for key and marks the entry consumed so that
// it no longer appears in Len, Key, or Pairs. Taking an already-consumed
// key succeeds again; the mark is idempotent.
func (v *Value) Take(key string) (*Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	c, ok := v.children[key]
	if ok {
		v.consumed[key] = true
	}
	return c, ok
}

// Key returns the i'th visible mapping key in declaration order.
func (v *Value) Key(i int) (string, bool) {
	if v.kind != KindMapping {
		return "", false
	}
	n := 0
	for _, k := range v.keys {
		if v.consumed[k] {
			continue
		}
		if n == i {
			return k, true
		}
		n++
	}
	return "", false
}

// Pairs returns the visible mapping entries in declaration order.
func (v *Value) Pairs() []Pair {
	if v.kind != KindMapping {
		return nil
	}
	out := make([]Pair, 0, len(v.keys))
	for _, k := range v.keys {
		if v.consumed[k] {
			continue
		}
		out = append(out, Pair{Key: k, Value: v.children[k]})
	}
	return out
}

// Scalar returns the raw text of a scalar node.
func (v *Value) Scalar() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	return v.scalar, true
}

// Float64 coerces a scalar node to a float.
func (v *Value) Float64() (float64, error) {
	s, ok := v.Scalar()
	if !ok {
		return 0, fmt.Errorf("vconf: %s is not a number", v.kind)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("vconf: %q is not a number", s)
	}
	return f, nil
}

// Bool coerces a scalar node to a boolean. Accepted spellings are the
// usual YAML ones: true/false, yes/no, on/off, 1/0, case-insensitive.
func (v *Value) Bool() (bool, error) {
	s, ok := v.Scalar()
	if !ok {
		return false, fmt.Errorf("vconf: %s is not a boolean", v.kind)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("vconf: %q is not a boolean", s)
}

// Clone returns a deep copy. Consumed marks are not copied; the clone
// starts with every entry visible.
func (v *Value) Clone() *Value {
	switch v.kind {
	case KindScalar:
		return NewScalar(v.scalar)
	case KindSequence:
		elems := make([]*Value, len(v.seq))
		for i, e := range v.seq {
			elems[i] = e.Clone()
		}
		return NewSequence(elems...)
	}
	m := NewMapping()
	for _, k := range v.keys {
		_ = m.Set(k, v.children[k].Clone())
	}
	return m
}

// Inherit copies parent's entry for key into child when child does not
// already have one of its own. Consumed entries at the parent still
// inherit; consumption only hides a key from iteration.
func Inherit(child, parent *Value, key string) {
	if child == nil || parent == nil || !child.IsMapping() {
		return
	}
	if _, has := child.Get(key); has {
		return
	}
	if pv, ok := parent.Get(key); ok {
		_ = child.Set(key, pv.Clone())
	}
}

// BequeathAll consumes m's entry for key and copies it into every
// visible mapping child that lacks its own. Non-mapping children are
// skipped; they inherit later, when and if they are normalized into
// mappings. Reports whether m had the key at all.
func BequeathAll(m *Value, key string) bool {
	if m == nil || !m.IsMapping() {
		return false
	}
	pv, ok := m.Take(key)
	if !ok {
		return false
	}
	for _, p := range m.Pairs() {
		if !p.Value.IsMapping() {
			continue
		}
		if _, has := p.Value.Get(key); !has {
			_ = p.Value.Set(key, pv.Clone())
		}
	}
	return true
}

// Parse decodes YAML into a Value tree.
func Parse(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("vconf: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, errors.New("vconf: empty document")
	}
	return FromNode(doc.Content[0])
}

// FromNode converts a decoded yaml.Node into a Value tree. The node's
// document order is preserved for mappings.
func FromNode(n *yaml.Node) (*Value, error) {
	if n == nil {
		return nil, errors.New("vconf: nil node")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, errors.New("vconf: empty document")
		}
		return FromNode(n.Content[0])
	case yaml.ScalarNode:
		return NewScalar(n.Value), nil
	case yaml.SequenceNode:
		elems := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			e, err := FromNode(c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return NewSequence(elems...), nil
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn, vn := n.Content[i], n.Content[i+1]
			if kn.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("vconf: line %d: mapping keys must be scalars", kn.Line)
			}
			val, err := FromNode(vn)
			if err != nil {
				return nil, err
			}
			if err := m.Set(kn.Value, val); err != nil {
				return nil, fmt.Errorf("%w (line %d)", err, kn.Line)
			}
		}
		return m, nil
	case yaml.AliasNode:
		return nil, fmt.Errorf("vconf: line %d: aliases are not supported", n.Line)
	}
	return nil, fmt.Errorf("vconf: unsupported node kind %d", n.Kind)
}
