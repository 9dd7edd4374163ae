// Package parser turns raw values read from review markup into the strings
// stored in a Review.
package parser

// Optional runs fn and returns its value, or "" if fn fails. Review fields
// that may be absent on a page are read through it.
func Optional(fn func() (string, error)) string {
	v, err := fn()
	if err != nil {
		return ""
	}
	return v
}
