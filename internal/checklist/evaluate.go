package checklist

// Result is the overall outcome of an inspection document.
type Result string

const (
	Approved         Result = "aprobado"
	Rejected         Result = "rechazado"
	WithObservations Result = "con_observaciones"
)

// Valid reports whether r is one of the accepted results.
func (r Result) Valid() bool {
	switch r {
	case Approved, Rejected, WithObservations:
		return true
	}
	return false
}

// Label is the printed form of the result.
func (r Result) Label() string {
	switch r {
	case Approved:
		return "APROBADO"
	case Rejected:
		return "RECHAZADO"
	case WithObservations:
		return "CON OBSERVACIONES"
	}
	return string(r)
}

// Evaluate derives the outcome of an answer set: rejected when any answer of
// a boolean response type is false, approved otherwise (including the empty set).
// WithObservations is never derived.
func Evaluate(rows []AnswerRow) Result {
	for _, row := range rows {
		if row.ResponseType == nil || row.ResponseType.Kind != KindBoolean {
			continue
		}
		if row.Slots.Boolean != nil && !*row.Slots.Boolean {
			return Rejected
		}
	}
	return Approved
}
