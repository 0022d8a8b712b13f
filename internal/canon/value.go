// Package canon implements the canonical JSON encoding used for
// content-addressed identities of compiled programs.
//
// The encoding follows RFC 8785: object keys sorted by UTF-16 code units,
// NFC-normalized strings (except Verbatim ones), no HTML escaping and no
// insignificant whitespace.
// Floats and nulls are not representable.
package canon

import (
	"slices"
	"unicode/utf16"
)

// Value is a canonical JSON value.
//
// This is a sealed interface - only String, Verbatim, Int, Bool, Array and
// Object implement it.
type Value interface {
	canonValue()
}

// String is a JSON string. It is NFC-normalized when encoded.
type String string

// Verbatim is a JSON string encoded byte for byte, for strings whose exact
// form is their identity. Unmarshal returns it as String.
type Verbatim string

// Int is a JSON integer.
type Int int64

// Bool is a JSON boolean.
type Bool bool

// Array is a JSON array.
type Array []Value

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (String) canonValue()   {}
func (Verbatim) canonValue() {}
func (Int) canonValue()      {}
func (Bool) canonValue()     {}
func (Array) canonValue()    {}
func (Object) canonValue()   {}

// SortedKeys returns the keys of obj in UTF-16 code unit order.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. Byte order differs for
// characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Strings converts a string slice into an Array.
func Strings(ss []string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

// Verbatims converts a string slice into an Array of Verbatim strings.
func Verbatims(ss []string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = Verbatim(s)
	}
	return arr
}

// Ints converts an integer slice into an Array.
func Ints[T ~int | ~int32 | ~int64](ns []T) Array {
	arr := make(Array, len(ns))
	for i, n := range ns {
		arr[i] = Int(n)
	}
	return arr
}
