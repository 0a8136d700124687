// Package discpos implements DiscPosition, a sum of the lead-in and
// program areas of a disc with arithmetic that crosses the boundary
// between them.
package discpos

import (
	"fmt"
	"strings"

	"github.com/aiSzzPL-retroio/cdimage/msf"
)

// Kind distinguishes the two DiscPosition variants.
type Kind int

const (
	// LeadIn positions strictly precede all Program positions.
	LeadIn Kind = iota
	Program
)

// DiscPosition is either LeadIn(msf) or Program(msf). All LeadIn
// positions order before all Program positions; within a variant the
// natural Msf order applies.
type DiscPosition struct {
	kind Kind
	msf  msf.Msf
}

// NewLeadIn builds a DiscPosition in the lead-in area.
func NewLeadIn(m msf.Msf) DiscPosition {
	return DiscPosition{kind: LeadIn, msf: m}
}

// NewProgram builds a DiscPosition in the program area.
func NewProgram(m msf.Msf) DiscPosition {
	return DiscPosition{kind: Program, msf: m}
}

// Zero is Program(00:00:00), the start of the program area.
var Zero = NewProgram(msf.Zero)

// Innermost is a reasonable estimate of the innermost lead-in
// position: 97:30:00 gives ~2.5 minutes of lead-in, enough to
// accommodate the largest possible ToC (99 tracks -> 102 entries, or
// 306 sectors with ECMA-130's 3x repetition).
var Innermost = NewLeadIn(msf.T97_30_00)

// Kind reports which variant dp is.
func (dp DiscPosition) Kind() Kind { return dp.kind }

// Msf returns the inner Msf regardless of variant.
func (dp DiscPosition) Msf() msf.Msf { return dp.msf }

// InLeadIn reports whether dp is within the lead-in area.
func (dp DiscPosition) InLeadIn() bool { return dp.kind == LeadIn }

// Cmp orders dp against o: all LeadIn positions precede all Program
// positions; within a variant the Msf order applies.
func (dp DiscPosition) Cmp(o DiscPosition) int {
	if dp.kind != o.kind {
		if dp.kind == LeadIn {
			return -1
		}
		return 1
	}
	return dp.msf.Cmp(o.msf)
}

// Equal reports whether dp and o are the same position.
func (dp DiscPosition) Equal(o DiscPosition) bool {
	return dp.kind == o.kind && dp.msf.Equal(o.msf)
}

// Next returns the position of the sector after dp, or false if dp is
// the very last addressable sector (Program(Msf::Max)).
func (dp DiscPosition) Next() (DiscPosition, bool) {
	switch dp.kind {
	case LeadIn:
		if n, ok := dp.msf.Next(); ok {
			return NewLeadIn(n), true
		}
		return NewProgram(msf.Zero), true
	default: // Program
		if n, ok := dp.msf.Next(); ok {
			return NewProgram(n), true
		}
		return DiscPosition{}, false
	}
}

// CheckedSub computes dp - rhs, crossing from Program back into
// LeadIn past Program(0) if necessary. Returns false on overflow past
// the start of the lead-in.
func (dp DiscPosition) CheckedSub(rhs msf.Msf) (DiscPosition, bool) {
	switch dp.kind {
	case LeadIn:
		if m, ok := dp.msf.CheckedSub(rhs); ok {
			return NewLeadIn(m), true
		}
		return DiscPosition{}, false
	default: // Program
		if m, ok := dp.msf.CheckedSub(rhs); ok {
			return NewProgram(m), true
		}

		off, ok := rhs.CheckedSub(dp.msf)
		if !ok {
			return DiscPosition{}, false
		}
		rem, ok := msf.Max.CheckedSub(off)
		if !ok {
			return DiscPosition{}, false
		}
		next, ok := rem.Next()
		if !ok {
			return DiscPosition{}, false
		}
		return NewLeadIn(next), true
	}
}

// CheckedAdd computes dp + rhs, crossing from LeadIn into Program
// past LeadIn(Msf::Max) if necessary. Returns false on overflow past
// the end of the program area.
func (dp DiscPosition) CheckedAdd(rhs msf.Msf) (DiscPosition, bool) {
	switch dp.kind {
	case Program:
		if m, ok := dp.msf.CheckedAdd(rhs); ok {
			return NewProgram(m), true
		}
		return DiscPosition{}, false
	default: // LeadIn
		if m, ok := dp.msf.CheckedAdd(rhs); ok {
			return NewLeadIn(m), true
		}

		rem, ok := msf.Max.CheckedSub(dp.msf)
		if !ok {
			return DiscPosition{}, false
		}
		next, ok := rem.Next()
		if !ok {
			return DiscPosition{}, false
		}
		off, ok := rhs.CheckedSub(next)
		if !ok {
			return DiscPosition{}, false
		}
		return NewProgram(off), true
	}
}

// String renders dp with a "<" (lead-in) or "+" (program) prefix
// followed by its Msf, e.g. "<97:30:00", "+00:02:14".
func (dp DiscPosition) String() string {
	switch dp.kind {
	case LeadIn:
		return "<" + dp.msf.String()
	default:
		return "+" + dp.msf.String()
	}
}

// FromString parses a DiscPosition in its String form: a "<" or "+"
// prefix followed by an "mm:ss:ff" Msf.
func FromString(s string) (DiscPosition, bool) {
	if len(s) == 0 {
		return DiscPosition{}, false
	}

	prefix, rest := s[0], s[1:]
	m, ok := msf.FromString(strings.TrimSpace(rest))
	if !ok {
		return DiscPosition{}, false
	}

	switch prefix {
	case '<':
		return NewLeadIn(m), true
	case '+':
		return NewProgram(m), true
	default:
		return DiscPosition{}, false
	}
}

// GoString supports %#v and debug printing in the same single-line
// form as String.
func (dp DiscPosition) GoString() string {
	return fmt.Sprintf("DiscPosition(%s)", dp.String())
}
