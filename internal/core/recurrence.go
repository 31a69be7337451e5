package core

// ClassifyRecurrence maps a wire value onto one of the three recurrence
// kinds. Matching is exact; anything else is ErrInvalidRecurrence.
func ClassifyRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(s); r {
	case RecurrenceOneTime, RecurrenceFixed, RecurrenceInstallment:
		return r, nil
	default:
		return "", ErrInvalidRecurrence
	}
}

// Valid reports whether r is one of the known kinds.
func (r Recurrence) Valid() bool {
	_, err := ClassifyRecurrence(string(r))
	return err == nil
}
