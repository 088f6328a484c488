// Package paramtree implements the self-describing parameter tree: a
// recursive string-keyed mapping whose values are scalars, nested
// mappings, or homogeneous sequences, with unit suffixes resolved
// against an attached UnitContext. It is the concrete, YAML-backed
// realization of the tree spec.md describes abstractly.
package paramtree

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarat-asymmetrica/chemkit/internal/rateerr"
)

// Kind tags which alternative a Node currently holds.
type Kind int

const (
	Null Kind = iota
	Scalar
	Mapping
	Sequence
)

// Node is a recursive parameter-tree value. The zero Node is Null.
type Node struct {
	kind    Kind
	scalar  any // float64, string, or bool
	mapping map[string]*Node
	keys    []string // insertion order, mirrored into mapping
	seq     []*Node
}

// NewScalar wraps a float64, string, or bool as a scalar Node.
func NewScalar(v any) *Node {
	switch v.(type) {
	case float64, string, bool:
		return &Node{kind: Scalar, scalar: v}
	case int:
		return &Node{kind: Scalar, scalar: float64(v.(int))}
	default:
		return &Node{kind: Null}
	}
}

// NewMapping returns an empty mapping Node.
func NewMapping() *Node {
	return &Node{kind: Mapping, mapping: map[string]*Node{}}
}

// NewSequence returns an empty sequence Node.
func NewSequence() *Node {
	return &Node{kind: Sequence}
}

func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

func (n *Node) IsNull() bool { return n.Kind() == Null }

// Get looks up a mapping key. Returns (nil, false) if n isn't a mapping
// or the key is absent.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != Mapping {
		return nil, false
	}
	v, ok := n.mapping[key]
	return v, ok
}

// Set inserts or replaces a mapping key, preserving first-seen order.
func (n *Node) Set(key string, v *Node) {
	if n.mapping == nil {
		n.kind = Mapping
		n.mapping = map[string]*Node{}
	}
	if _, exists := n.mapping[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.mapping[key] = v
}

// Keys returns mapping keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != Mapping {
		return nil
	}
	return n.keys
}

// Append adds an element to a sequence Node, converting Null to Sequence.
func (n *Node) Append(v *Node) {
	n.kind = Sequence
	n.seq = append(n.seq, v)
}

// Len returns the sequence length, or 0 for non-sequences.
func (n *Node) Len() int {
	if n == nil || n.kind != Sequence {
		return 0
	}
	return len(n.seq)
}

// At returns the i'th sequence element, or nil if out of range.
func (n *Node) At(i int) *Node {
	if n == nil || n.kind != Sequence || i < 0 || i >= len(n.seq) {
		return nil
	}
	return n.seq[i]
}

// Float returns the scalar as a float64, parsing numeric text if needed.
func (n *Node) Float() (float64, bool) {
	if n == nil || n.kind != Scalar {
		return 0, false
	}
	switch v := n.scalar.(type) {
	case float64:
		return v, true
	case string:
		numeric, _ := splitQuantity(v)
		f, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String returns the scalar as a string; numeric scalars format with
// enough precision to round-trip (strconv's shortest round-trip mode).
func (n *Node) String() (string, bool) {
	if n == nil || n.kind != Scalar {
		return "", false
	}
	switch v := n.scalar.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

// Bool returns the scalar as a bool.
func (n *Node) Bool() (bool, bool) {
	if n == nil || n.kind != Scalar {
		return false, false
	}
	v, ok := n.scalar.(bool)
	return v, ok
}

// splitQuantity separates a scalar like "0.01 atm" or "6260 cal/mol" into
// its numeric literal and trailing unit string (unit is "" if absent).
func splitQuantity(s string) (numeric, unit string) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E' {
			i++
			continue
		}
		break
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i:])
}

// Equal reports whether n and other are semantically equal: mappings
// compare key sets and values regardless of order, sequences compare
// elementwise, numeric scalars compare within rtol relative error, and
// string/bool scalars compare exactly.
func (n *Node) Equal(other *Node, rtol float64) bool {
	if n.Kind() != other.Kind() {
		return false
	}
	switch n.Kind() {
	case Null:
		return true
	case Scalar:
		nf, nok := n.scalar.(float64)
		of, ook := other.scalar.(float64)
		if nok && ook {
			return closeTo(nf, of, rtol)
		}
		ns, _ := n.String()
		os, _ := other.String()
		return ns == os
	case Mapping:
		if len(n.keys) != len(other.keys) {
			return false
		}
		for _, k := range n.keys {
			ov, ok := other.Get(k)
			if !ok {
				return false
			}
			nv, _ := n.Get(k)
			if !nv.Equal(ov, rtol) {
				return false
			}
		}
		return true
	case Sequence:
		if n.Len() != other.Len() {
			return false
		}
		for i := 0; i < n.Len(); i++ {
			if !n.At(i).Equal(other.At(i), rtol) {
				return false
			}
		}
		return true
	}
	return false
}

func closeTo(a, b, rtol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return math.Abs(a-b)/scale <= rtol
}

// Decode reads a YAML document into a Node tree.
func Decode(r io.Reader) (*Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "paramtree: reading document")
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, rateerr.WithEquation(rateerr.ErrInvalidParameter, "", "decoding parameter document: %v", err)
	}
	return FromAny(v), nil
}

// Encode writes n back out as a YAML document.
func (n *Node) Encode(w io.Writer) error {
	raw, err := yaml.Marshal(n.ToAny())
	if err != nil {
		return errors.Wrap(err, "paramtree: encoding document")
	}
	_, err = w.Write(raw)
	return err
}

// FromAny builds a Node tree from generic Go values produced by
// yaml.Unmarshal (or constructed programmatically).
func FromAny(v any) *Node {
	switch t := v.(type) {
	case nil:
		return &Node{kind: Null}
	case map[string]any:
		n := NewMapping()
		for k, vv := range t {
			n.Set(k, FromAny(vv))
		}
		return n
	case map[any]any:
		n := NewMapping()
		for k, vv := range t {
			n.Set(fmt.Sprintf("%v", k), FromAny(vv))
		}
		return n
	case []any:
		n := NewSequence()
		for _, vv := range t {
			n.Append(FromAny(vv))
		}
		return n
	case float64:
		return NewScalar(t)
	case int:
		return NewScalar(float64(t))
	case string:
		return NewScalar(t)
	case bool:
		return NewScalar(t)
	default:
		return NewScalar(fmt.Sprintf("%v", t))
	}
}

// ToAny converts a Node tree back to generic Go values suitable for
// yaml.Marshal or json.Marshal.
func (n *Node) ToAny() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case Null:
		return nil
	case Scalar:
		return n.scalar
	case Mapping:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.mapping[k].ToAny()
		}
		return out
	case Sequence:
		out := make([]any, len(n.seq))
		for i, v := range n.seq {
			out[i] = v.ToAny()
		}
		return out
	}
	return nil
}
