package models

import (
	"math"
	"testing"
)

func TestFieldTextNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "zero", in: 0, want: "0"},
		{name: "negative zero", in: math.Copysign(0, -1), want: "0"},
		{name: "integer", in: 42, want: "42"},
		{name: "fraction", in: 123.5, want: "123.5"},
		{name: "below exponent bound", in: 1e20, want: "100000000000000000000"},
		{name: "exponent bound", in: 1e21, want: "1e+21"},
		{name: "large negative", in: -2e22, want: "-2e+22"},
		{name: "large fraction", in: 1.5e300, want: "1.5e+300"},
		{name: "small bound", in: 0.000001, want: "0.000001"},
		{name: "small exponent", in: 1e-7, want: "1e-7"},
		{name: "small fraction", in: 2.5e-10, want: "2.5e-10"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NumberField(tc.in).Text(); got != tc.want {
				t.Fatalf("Text(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFieldTextKinds(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{name: "string", field: StringField("Mug"), want: "Mug"},
		{name: "true", field: BoolField(true), want: "true"},
		{name: "false", field: BoolField(false), want: "false"},
		{name: "absent", field: Field{}, want: ""},
		{name: "null", field: Field{Kind: KindNull}, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.field.Text(); got != tc.want {
				t.Fatalf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}
