package workflow

import (
	"fmt"

	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
)

// Machine is a status transition table shared by the approval flavors
// (report card, school calendar, exam result). Each flavor supplies its
// own status set; transition validation is written once.
type Machine[S ~string] struct {
	initial     S
	transitions map[S][]S
}

// New builds a machine from an initial status and a transition table.
func New[S ~string](initial S, transitions map[S][]S) Machine[S] {
	table := make(map[S][]S, len(transitions))
	for from, tos := range transitions {
		table[from] = append([]S(nil), tos...)
	}
	return Machine[S]{initial: initial, transitions: table}
}

// Initial returns the entry status for newly created records.
func (m Machine[S]) Initial() S {
	return m.initial
}

// Allowed reports whether from -> to is a legal transition.
func (m Machine[S]) Allowed(from, to S) bool {
	for _, candidate := range m.transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Assert returns a typed error when from -> to is not a legal transition.
// No-op transitions are rejected like any other illegal move so the audit
// trail never records a mutation that changed nothing.
func (m Machine[S]) Assert(from, to S) error {
	if !m.Allowed(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}

// Known reports whether the status appears anywhere in the table, either
// as a source or a target. Used to reject malformed stored records at the
// boundary.
func (m Machine[S]) Known(status S) bool {
	if _, ok := m.transitions[status]; ok {
		return true
	}
	for _, tos := range m.transitions {
		for _, to := range tos {
			if to == status {
				return true
			}
		}
	}
	return status == m.initial
}
