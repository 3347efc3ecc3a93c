// Package cs implements a rank-1 constraint system (R1CS) over the BN254
// scalar field, together with the Builder used to synthesize circuits into it.
//
// A constraint has the form ⟨L,w⟩ × ⟨R,w⟩ = ⟨O,w⟩ where L, R, O are linear
// expressions and w the wire vector. Wires are ordered
// [ONE | public... | secret... | internal...]; wire 0 is the constant wire,
// always present, with value 1.
//
// The same synthesis code runs in two modes: Shape records wires and
// constraints only (trusted setup input), Witness additionally carries a
// concrete field value per wire (prover input). A circuit must emit the exact
// same constraint sequence in both modes; the shape fingerprint exists to
// catch a divergence.
package cs

import "errors"

// ErrInputNotSet is returned when synthesis references a wire that was never
// allocated, or when a witness-mode assignment is missing
var ErrInputNotSet = errors.New("variable is not allocated")

// ErrUnsatisfiedConstraint is returned when a witness does not satisfy a
// constraint
var ErrUnsatisfiedConstraint = errors.New("constraint is not satisfied")

// ErrUnconstrainedWire is returned at Finalize when a secret or internal wire
// appears in no constraint; such a wire would be unsound to leave dangling in
// the proving key
var ErrUnconstrainedWire = errors.New("wire is not constrained")

// OneWire is the name of the constant wire one
const OneWire = "ONE_WIRE"

// Visibility encodes a wire visibility
// Possible values are Unset, Internal, Secret or Public
type Visibility uint8

const (
	Unset Visibility = iota
	Internal
	Secret
	Public
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Secret:
		return "secret"
	case Public:
		return "public"
	default:
		return "unset"
	}
}
