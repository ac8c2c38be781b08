package checklist

// Resolve picks the display value of an answer according to the data kind of
// its response type. Unknown or empty kinds fall back to the first populated
// slot among text, number and boolean. It returns nil when nothing resolves.
func Resolve(s Slots, kind Kind) Value {
	switch kind {
	case KindBoolean:
		if s.Boolean != nil {
			return Bool(*s.Boolean)
		}
	case KindNumber:
		if s.Number != nil {
			return Number(*s.Number)
		}
	case KindText, KindList:
		if s.Text != nil {
			return Text(*s.Text)
		}
	case KindDate:
		if s.Date != nil {
			return Date(*s.Date)
		}
	case KindDuration:
		if s.Duration != nil {
			return Duration(*s.Duration)
		}
	default:
		switch {
		case s.Text != nil:
			return Text(*s.Text)
		case s.Number != nil:
			return Number(*s.Number)
		case s.Boolean != nil:
			return Bool(*s.Boolean)
		}
	}
	return nil
}

// ResolveRow resolves the value of one answer row. A row without a response
// type resolves through the unknown-kind fallback.
func ResolveRow(row AnswerRow) Value {
	var kind Kind
	if row.ResponseType != nil {
		kind = row.ResponseType.Kind
	}
	return Resolve(row.Slots, kind)
}
