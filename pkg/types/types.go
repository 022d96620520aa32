// Package types defines the MiniDecaf type system
package types

import "fmt"

// WordSize is the size in bytes of int and pointer values (RV64)
const WordSize = 8

// Type is the interface for all MiniDecaf types
type Type interface {
	implType()
	String() string
}

// Tint is the machine-word integer type
type Tint struct{}

// Tpointer represents pointer types
type Tpointer struct {
	Elem Type
}

// Tarray represents array types
type Tarray struct {
	Elem Type
	Len  int64
}

// Tvoid is the type of functions returning nothing
type Tvoid struct{}

// Tzero is the type of the literal 0. It unifies with int and with every
// pointer type, so 0 works as a null pointer constant.
type Tzero struct{}

// Marker methods for Type interface
func (Tint) implType()     {}
func (Tpointer) implType() {}
func (Tarray) implType()   {}
func (Tvoid) implType()    {}
func (Tzero) implType()    {}

func (Tint) String() string  { return "int" }
func (Tvoid) String() string { return "void" }
func (Tzero) String() string { return "int(0)" }

func (t Tpointer) String() string {
	return t.Elem.String() + "*"
}

func (t Tarray) String() string {
	// int[2][3] reads outermost first
	dims := ""
	var elem Type = t
	for {
		a, ok := elem.(Tarray)
		if !ok {
			break
		}
		dims += fmt.Sprintf("[%d]", a.Len)
		elem = a.Elem
	}
	return elem.String() + dims
}

// Constructors for common types

func Int() Type  { return Tint{} }
func Void() Type { return Tvoid{} }
func Zero() Type { return Tzero{} }

func Pointer(elem Type) Type {
	return Tpointer{Elem: elem}
}

func Array(elem Type, n int64) Type {
	return Tarray{Elem: elem, Len: n}
}

// Equal reports whether two types are equal. Structural, except that Tzero
// equals int and any pointer.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if _, ok := a.(Tzero); ok {
		return isZeroCompatible(b)
	}
	if _, ok := b.(Tzero); ok {
		return isZeroCompatible(a)
	}
	switch ta := a.(type) {
	case Tint:
		_, ok := b.(Tint)
		return ok
	case Tvoid:
		_, ok := b.(Tvoid)
		return ok
	case Tpointer:
		tb, ok := b.(Tpointer)
		return ok && Equal(ta.Elem, tb.Elem)
	case Tarray:
		tb, ok := b.(Tarray)
		return ok && ta.Len == tb.Len && Equal(ta.Elem, tb.Elem)
	}
	return false
}

func isZeroCompatible(t Type) bool {
	switch t.(type) {
	case Tzero, Tint, Tpointer:
		return true
	}
	return false
}

// EqualAll compares two type lists element-wise
func EqualAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Sizeof returns the storage size of t in bytes. void and the zero literal
// have no storage; asking for their size is a compiler bug.
func Sizeof(t Type) int64 {
	switch tt := t.(type) {
	case Tint, Tpointer:
		return WordSize
	case Tarray:
		return tt.Len * Sizeof(tt.Elem)
	}
	panic(fmt.Sprintf("sizeof: unsized type %v", t))
}

// Slots returns the number of stack words needed to hold a value of type t
func Slots(t Type) int64 {
	return (Sizeof(t) + WordSize - 1) / WordSize
}

// IsInt reports whether t is int, including the zero literal
func IsInt(t Type) bool {
	switch t.(type) {
	case Tint, Tzero:
		return true
	}
	return false
}

// IsPointer reports whether t is a pointer type. The zero literal is not.
func IsPointer(t Type) bool {
	_, ok := t.(Tpointer)
	return ok
}

// IsArray reports whether t is an array type
func IsArray(t Type) bool {
	_, ok := t.(Tarray)
	return ok
}

// Elem returns the element type of a pointer or array, or nil
func Elem(t Type) Type {
	switch tt := t.(type) {
	case Tpointer:
		return tt.Elem
	case Tarray:
		return tt.Elem
	}
	return nil
}

// Decay drops a zero literal to plain int. Other types are unchanged.
func Decay(t Type) Type {
	if _, ok := t.(Tzero); ok {
		return Int()
	}
	return t
}
