// Package resp implements the RESP wire format used by MistKV.
//
// A Value is a recursive tree: nil, integer, bulk string, or array.
// Arrays carry a declared element count, so a value can exist in a
// partially assembled state while its elements are still arriving on
// the wire. DecodeMessage relies on this to rebuild a client request
// from a flat sequence of self-describing units.
package resp

import (
	"bytes"
	"fmt"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInteger
	KindBulkString
	KindArray
)

// String returns the kind name for logs and errors.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one node of a RESP value tree.
//
// The zero Value is Nil.
type Value struct {
	kind     Kind
	integer  int64
	bulk     []byte
	declared int
	elems    []Value
}

// Nil returns the nil value.
func Nil() Value {
	return Value{kind: KindNil}
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{kind: KindInteger, integer: n}
}

// BulkString returns a binary-safe string value.
func BulkString(b []byte) Value {
	return Value{kind: KindBulkString, bulk: b}
}

// String returns a bulk string value from a Go string.
func String(s string) Value {
	return Value{kind: KindBulkString, bulk: []byte(s)}
}

// Array returns an empty array declaring the given element count.
// The array is incomplete until declared elements have been appended.
func Array(declared int) Value {
	return Value{kind: KindArray, declared: declared, elems: make([]Value, 0, declared)}
}

// ArrayOf returns a complete array holding the given elements.
func ArrayOf(elems ...Value) Value {
	return Value{kind: KindArray, declared: len(elems), elems: elems}
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Int64 returns the integer payload. Only meaningful for KindInteger.
func (v Value) Int64() int64 {
	return v.integer
}

// Bytes returns the bulk string payload. Only meaningful for KindBulkString.
func (v Value) Bytes() []byte {
	return v.bulk
}

// Text returns the bulk string payload as a string.
func (v Value) Text() string {
	return string(v.bulk)
}

// Declared returns the declared element count of an array.
func (v Value) Declared() int {
	return v.declared
}

// Len returns the number of collected array elements.
func (v Value) Len() int {
	return len(v.elems)
}

// Elem returns the i-th collected array element.
func (v Value) Elem(i int) Value {
	return v.elems[i]
}

// IsComplete reports whether the value is fully assembled.
//
// An array is complete iff it holds exactly its declared number of
// elements and each element is itself complete. Every other kind is
// always complete.
func (v Value) IsComplete() bool {
	if v.kind != KindArray {
		return true
	}
	if len(v.elems) != v.declared {
		return false
	}
	for i := range v.elems {
		if !v.elems[i].IsComplete() {
			return false
		}
	}
	return true
}

// Append attaches a newly decoded value to the first incomplete array
// found depth-first from v. If an already collected child is itself
// incomplete, the value descends into that child before this array
// collects more elements of its own.
//
// Calling Append on a complete value, or on a non-array, is a
// programming error: it means the decoder was driven incorrectly, and
// it panics rather than silently corrupting the tree.
func (v *Value) Append(val Value) {
	if v.IsComplete() {
		panic("resp: Append on complete value")
	}
	if v.kind != KindArray {
		panic("resp: Append on non-array value")
	}

	for i := range v.elems {
		if !v.elems[i].IsComplete() {
			v.elems[i].Append(val)
			return
		}
	}

	if len(v.elems) >= v.declared {
		// Unreachable: IsComplete was false and no child is incomplete.
		panic("resp: array over-filled")
	}
	v.elems = append(v.elems, val)
}

// Clone returns a deep copy of the value. The store hands out clones so
// a caller mutating its copy cannot corrupt the stored one.
func (v Value) Clone() Value {
	out := v
	if v.bulk != nil {
		out.bulk = bytes.Clone(v.bulk)
	}
	if v.elems != nil {
		out.elems = make([]Value, len(v.elems))
		for i := range v.elems {
			out.elems[i] = v.elems[i].Clone()
		}
	}
	return out
}

// Equal reports deep equality, declared sizes included.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindInteger:
		return v.integer == o.integer
	case KindBulkString:
		return bytes.Equal(v.bulk, o.bulk)
	case KindArray:
		if v.declared != o.declared || len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
