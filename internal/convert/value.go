package convert

import (
	"bytes"
	"encoding/json"
)

// Kind tells which variant a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindText
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Field is one named entry of an object, kept in insertion order.
type Field struct {
	Name  string
	Value Value
}

// Value is a converted record node: a non-blank Text, an ordered Object, or
// a List of two or more values produced by a repeated child name.
// The zero Value is invalid and stands for "absent".
type Value struct {
	kind   Kind
	text   string
	fields []Field
	items  []Value
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Object returns an object value holding fields in the given order.
func Object(fields ...Field) Value {
	return Value{kind: KindObject, fields: fields}
}

// List returns a list value.
func List(items ...Value) Value {
	return Value{kind: KindList, items: items}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Str returns the text of a text value and "" otherwise.
func (v Value) Str() string { return v.text }

// Fields returns the object's fields in insertion order.
func (v Value) Fields() []Field { return v.fields }

// Items returns the list's elements.
func (v Value) Items() []Value { return v.items }

// Get looks up an object field by name.
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// All returns the field as a slice regardless of its shape: a list yields
// its items, any other present value yields itself, an absent field nil.
func (v Value) All(name string) []Value {
	f, ok := v.Get(name)
	if !ok {
		return nil
	}
	if f.kind == KindList {
		return f.items
	}
	return []Value{f}
}

// MarshalJSON writes objects with their fields in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindText:
		b, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
	return nil
}

// String renders the value as compact JSON.
func (v Value) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}
