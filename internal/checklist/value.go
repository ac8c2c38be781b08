package checklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the data kind of a response type (the tipo_dato column).
type Kind string

const (
	KindBoolean  Kind = "booleano"
	KindNumber   Kind = "numero"
	KindText     Kind = "texto"
	KindList     Kind = "lista" // text stored one item per line
	KindDate     Kind = "fecha"
	KindDuration Kind = "tiempo"
)

// DateLayout is the storage and display layout of fecha answers.
const DateLayout = "2006-01-02"

// ErrInvalidValue is returned when an answer does not match its response type.
var ErrInvalidValue = errors.New("invalid answer value")

// Known reports whether k is one of the supported data kinds.
func (k Kind) Known() bool {
	switch k {
	case KindBoolean, KindNumber, KindText, KindList, KindDate, KindDuration:
		return true
	}
	return false
}

// Value is a single recorded answer. The concrete type is one of Bool, Number,
// Text, Date or Duration, so an answer can never carry two populated slots.
type Value interface {
	Kind() Kind
	String() string
}

type (
	Bool     bool
	Number   float64
	Text     string
	Date     string
	Duration string
)

func (Bool) Kind() Kind     { return KindBoolean }
func (Number) Kind() Kind   { return KindNumber }
func (Text) Kind() Kind     { return KindText }
func (Date) Kind() Kind     { return KindDate }
func (Duration) Kind() Kind { return KindDuration }

func (b Bool) String() string     { return strconv.FormatBool(bool(b)) }
func (n Number) String() string   { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
func (t Text) String() string     { return string(t) }
func (d Date) String() string     { return string(d) }
func (d Duration) String() string { return string(d) }

// Slots is the persisted shape of an answer: five nullable columns of which
// at most one is populated.
type Slots struct {
	Text     *string
	Number   *float64
	Boolean  *bool
	Date     *string
	Duration *string
}

// SlotsFor spreads a Value back into its storage slot. A nil Value yields
// empty slots.
func SlotsFor(v Value) Slots {
	var s Slots
	switch val := v.(type) {
	case Bool:
		b := bool(val)
		s.Boolean = &b
	case Number:
		n := float64(val)
		s.Number = &n
	case Text:
		t := string(val)
		s.Text = &t
	case Date:
		d := string(val)
		s.Date = &d
	case Duration:
		d := string(val)
		s.Duration = &d
	}
	return s
}

// ParseValue decodes a JSON answer for a response type of the given kind.
// A JSON null decodes to a nil Value and no error.
func ParseValue(kind Kind, raw json.RawMessage) (Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch kind {
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean", ErrInvalidValue, kind)
		}
		return Bool(b), nil
	case KindNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %s expects a number", ErrInvalidValue, kind)
		}
		return Number(n), nil
	case KindText, KindList, KindDate, KindDuration:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %s expects a string", ErrInvalidValue, kind)
		}
		switch kind {
		case KindDate:
			if _, err := time.Parse(DateLayout, s); err != nil {
				return nil, fmt.Errorf("%w: fecha %q is not YYYY-MM-DD", ErrInvalidValue, s)
			}
			return Date(s), nil
		case KindDuration:
			return Duration(s), nil
		default:
			return Text(s), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown data kind %q", ErrInvalidValue, kind)
}
