package protocol

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int64", int64(-3), -3, true},
		{"uint8", uint8(7), 7, true},
		{"json number", json.Number("2.25"), 2.25, true},
		{"bad json number", json.Number("x"), 0, false},
		{"string", "3", 0, false},
		{"nil", nil, 0, false},
		{"NaN", math.NaN(), 0, false},
		{"Inf", math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestFieldsReaders(t *testing.T) {
	f := Fields{
		"level":  3.0,
		"frac":   2.5,
		"name":   "p1",
		"flag":   true,
		"null":   nil,
		"huge":   1e12,
		"string": "",
	}

	if n, ok := f.Int("level"); !ok || n != 3 {
		t.Errorf("Expected level 3, got %v %v", n, ok)
	}
	if _, ok := f.Int("frac"); ok {
		t.Error("Fractional values are not ints")
	}
	if _, ok := f.Int("huge"); ok {
		t.Error("Out of range values are not ints")
	}
	if s, ok := f.String("name"); !ok || s != "p1" {
		t.Errorf("Expected name p1, got %v %v", s, ok)
	}
	if _, ok := f.String("level"); ok {
		t.Error("A number is not a string")
	}
	if b, ok := f.Bool("flag"); !ok || !b {
		t.Error("Expected flag true")
	}
	if !f.Has("null") || f.Has("missing") {
		t.Error("Has should report present keys, including nulls")
	}
}

func TestFieldsTruthy(t *testing.T) {
	f := Fields{
		"t": true, "f": false, "one": 1.0, "zero": 0.0,
		"s": "x", "empty": "", "null": nil, "obj": map[string]any{},
	}
	tests := map[string]bool{
		"t": true, "f": false, "one": true, "zero": false,
		"s": true, "empty": false, "null": false, "obj": true, "missing": false,
	}
	for key, want := range tests {
		if got := f.Truthy(key); got != want {
			t.Errorf("Truthy(%s): expected %v, got %v", key, want, got)
		}
	}
}

func TestPairs(t *testing.T) {
	in := []any{
		[]any{1.0, 2.0},
		[]any{int64(3), uint8(4)},
		[]any{1.5, 2.0},   // not integral
		[]any{1.0},        // wrong arity
		"junk",            // not a pair
		[]any{"a", "b"},   // not numbers
		[]any{-1.0, -2.0}, // negative is still a pair
	}
	got, ok := Pairs(in)
	if !ok {
		t.Fatal("Expected a list")
	}
	want := [][2]int{{1, 2}, {3, 4}, {-1, -2}}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v at %d, got %v", want[i], i, got[i])
		}
	}

	if _, ok := Pairs("nope"); ok {
		t.Error("A string is not a list")
	}
	if AsFields([]any{}) != nil {
		t.Error("A list is not an object")
	}
}
