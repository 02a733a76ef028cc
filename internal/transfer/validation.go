package transfer

import "sort"

// FieldErrors carries field-level validation messages back to the handler,
// which surfaces them as a 422 body.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msg := "validation failed:"
	for _, f := range fields {
		msg += " " + f + ": " + e[f] + ";"
	}
	return msg
}
