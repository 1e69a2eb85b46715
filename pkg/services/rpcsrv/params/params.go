package params

import "strings"

// Params is a positional list of request parameters.
type Params []Param

// Value returns the parameter at index or nil if there are not that many.
// Optional trailing parameters are handled this way.
func (p Params) Value(index int) *Param {
	if index >= len(p) {
		return nil
	}
	return &p[index]
}

// String implements the fmt.Stringer interface, it's used for logging.
func (p Params) String() string {
	parts := make([]string, len(p))
	for i := range p {
		parts[i] = p[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
