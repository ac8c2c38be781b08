package checklist

import (
	"encoding/json"
	"errors"
	"testing"
)

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool      { return &b }
func intPtr(i int) *int         { return &i }

func allSlots() Slots {
	return Slots{
		Text:     strPtr("sin fisuras"),
		Number:   numPtr(12.5),
		Boolean:  boolPtr(true),
		Date:     strPtr("2024-03-01"),
		Duration: strPtr("30 minutos"),
	}
}

func TestResolve_PicksSlotOfKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want Value
	}{
		{KindBoolean, Bool(true)},
		{KindNumber, Number(12.5)},
		{KindText, Text("sin fisuras")},
		{KindList, Text("sin fisuras")},
		{KindDate, Date("2024-03-01")},
		{KindDuration, Duration("30 minutos")},
		{"", Text("sin fisuras")},
		{"desconocido", Text("sin fisuras")},
	}

	for _, tt := range tests {
		got := Resolve(allSlots(), tt.kind)
		if got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.kind, got, tt.want)
		}
	}
}

func TestResolve_NullSafe(t *testing.T) {
	for _, kind := range []Kind{KindBoolean, KindNumber, KindText, KindList, KindDate, KindDuration, ""} {
		if got := Resolve(Slots{}, kind); got != nil {
			t.Errorf("Resolve(empty, %q) = %#v, want nil", kind, got)
		}
	}

	// Only the slot of the kind counts.
	if got := Resolve(Slots{Text: strPtr("x")}, KindBoolean); got != nil {
		t.Errorf("booleano with only text populated = %#v, want nil", got)
	}
}

func TestResolve_UnknownKindFallbackOrder(t *testing.T) {
	s := Slots{Number: numPtr(3), Boolean: boolPtr(false)}
	if got := Resolve(s, ""); got != Number(3) {
		t.Errorf("fallback = %#v, want Number(3)", got)
	}

	s = Slots{Boolean: boolPtr(false)}
	if got := Resolve(s, ""); got != Bool(false) {
		t.Errorf("fallback = %#v, want Bool(false)", got)
	}

	// Date and duration are not part of the fallback chain.
	s = Slots{Date: strPtr("2024-01-01"), Duration: strPtr("1 h")}
	if got := Resolve(s, ""); got != nil {
		t.Errorf("fallback = %#v, want nil", got)
	}
}

func TestResolveRow_WithoutResponseType(t *testing.T) {
	row := AnswerRow{Slots: Slots{Number: numPtr(7)}}
	if got := ResolveRow(row); got != Number(7) {
		t.Errorf("ResolveRow = %#v, want Number(7)", got)
	}
}

func TestSlotsFor_RoundTrip(t *testing.T) {
	values := []Value{Bool(false), Number(0.25), Text("a\nb"), Date("2025-12-31"), Duration("2 horas")}
	for _, v := range values {
		s := SlotsFor(v)
		if got := Resolve(s, v.Kind()); got != v {
			t.Errorf("Resolve(SlotsFor(%#v)) = %#v", v, got)
		}
	}

	if s := SlotsFor(nil); s != (Slots{}) {
		t.Errorf("SlotsFor(nil) = %+v, want empty", s)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		kind    Kind
		raw     string
		want    Value
		wantErr bool
	}{
		{KindBoolean, `true`, Bool(true), false},
		{KindBoolean, `"si"`, nil, true},
		{KindNumber, `12.5`, Number(12.5), false},
		{KindNumber, `"12"`, nil, true},
		{KindText, `"ok"`, Text("ok"), false},
		{KindList, `"a\nb"`, Text("a\nb"), false},
		{KindDate, `"2024-02-29"`, Date("2024-02-29"), false},
		{KindDate, `"29/02/2024"`, nil, true},
		{KindDuration, `"30 minutos"`, Duration("30 minutos"), false},
		{KindNumber, `null`, nil, false},
		{"otro", `"x"`, nil, true},
	}

	for _, tt := range tests {
		got, err := ParseValue(tt.kind, json.RawMessage(tt.raw))
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("ParseValue(%q, %s) error = %v, want ErrInvalidValue", tt.kind, tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseValue(%q, %s) unexpected error: %v", tt.kind, tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseValue(%q, %s) = %#v, want %#v", tt.kind, tt.raw, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	if got := Number(12).String(); got != "12" {
		t.Errorf("Number(12).String() = %q", got)
	}
	if got := Number(12.5).String(); got != "12.5" {
		t.Errorf("Number(12.5).String() = %q", got)
	}
	if got := Bool(false).String(); got != "false" {
		t.Errorf("Bool(false).String() = %q", got)
	}
}
