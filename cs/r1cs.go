package cs

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// R1C is a rank-1 constraint ⟨L,w⟩ × ⟨R,w⟩ = ⟨O,w⟩
type R1C struct {
	L LinearExpression
	R LinearExpression
	O LinearExpression
}

// R1CS is an instantiated rank-1 constraint system.
//
// The wire vector is laid out [public | secret | internal]; the first public
// wire is the constant ONE wire. Terms carry ids local to their visibility
// class, WireIndex maps them to positions in the wire vector.
//
// The structure is a pure function of the synthesis sequence: wire numbering,
// constraint order and the coefficient table are identical across independent
// syntheses of the same circuit, which is what makes Fingerprint meaningful.
type R1CS struct {
	NbWires         int
	NbPublicWires   int // includes the ONE wire, always first
	NbSecretWires   int
	NbInternalWires int

	PublicNames []string
	SecretNames []string

	Constraints  []R1C
	Coefficients []fr.Element
}

// NbConstraints returns the number of constraints
func (r *R1CS) NbConstraints() int {
	return len(r.Constraints)
}

// NbPrivateWires returns the number of secret + internal wires, the wires the
// proving key K vector covers
func (r *R1CS) NbPrivateWires() int {
	return r.NbSecretWires + r.NbInternalWires
}

// WireIndex returns the position of a term's wire in the wire vector
func (r *R1CS) WireIndex(t Term) int {
	switch t.Visibility() {
	case Public:
		return t.WireID()
	case Secret:
		return r.NbPublicWires + t.WireID()
	case Internal:
		return r.NbPublicWires + r.NbSecretWires + t.WireID()
	default:
		panic("term with unset visibility")
	}
}

// Eval evaluates a linear expression against a wire vector
func (r *R1CS) Eval(l LinearExpression, w []fr.Element) fr.Element {
	var res, tmp fr.Element
	for _, t := range l {
		tmp.Mul(&r.Coefficients[t.CoeffID()], &w[r.WireIndex(t)])
		res.Add(&res, &tmp)
	}
	return res
}

// CheckSatisfied evaluates every constraint against a full wire vector and
// returns ErrUnsatisfiedConstraint, wrapped with the constraint index, on the
// first violation.
//
// The error identifies the constraint, never the evaluated values: wire values
// derive from the witness and must not travel into logs.
func (r *R1CS) CheckSatisfied(w []fr.Element) error {
	if len(w) != r.NbWires {
		return fmt.Errorf("wire vector has size %d, expected %d", len(w), r.NbWires)
	}
	var check fr.Element
	for i, c := range r.Constraints {
		a := r.Eval(c.L, w)
		b := r.Eval(c.R, w)
		o := r.Eval(c.O, w)
		check.Mul(&a, &b)
		if !check.Equal(&o) {
			return fmt.Errorf("%w: constraint #%d", ErrUnsatisfiedConstraint, i)
		}
	}
	return nil
}

// BuildABC computes the per-constraint inner products a_i = ⟨L_i,w⟩,
// b_i = ⟨R_i,w⟩, c_i = ⟨O_i,w⟩ with the satisfaction check fused in. The
// slices are allocated with the given capacity so the prover can extend them
// in place to the FFT domain size.
func (r *R1CS) BuildABC(w []fr.Element, capacity int) (a, b, c []fr.Element, err error) {
	n := len(r.Constraints)
	if capacity < n {
		capacity = n
	}
	a = make([]fr.Element, n, capacity)
	b = make([]fr.Element, n, capacity)
	c = make([]fr.Element, n, capacity)

	var check fr.Element
	for i, r1c := range r.Constraints {
		a[i] = r.Eval(r1c.L, w)
		b[i] = r.Eval(r1c.R, w)
		c[i] = r.Eval(r1c.O, w)
		check.Mul(&a[i], &b[i])
		if !check.Equal(&c[i]) {
			return nil, nil, nil, fmt.Errorf("%w: constraint #%d", ErrUnsatisfiedConstraint, i)
		}
	}
	return a, b, c, nil
}

// checkWiring verifies that every secret and internal wire appears in at
// least one constraint. A wire appearing in no constraint is unbound: the
// proving key would carry a dangling generator for it.
func (r *R1CS) checkWiring() error {
	seen := bitset.New(uint(r.NbWires))
	for _, c := range r.Constraints {
		for _, l := range [3]LinearExpression{c.L, c.R, c.O} {
			for _, t := range l {
				seen.Set(uint(r.WireIndex(t)))
			}
		}
	}
	for i := r.NbPublicWires; i < r.NbWires; i++ {
		if !seen.Test(uint(i)) {
			return fmt.Errorf("%w: %s", ErrUnconstrainedWire, r.wireName(i))
		}
	}
	return nil
}

// wireName returns a printable name for the wire at a vector position
func (r *R1CS) wireName(i int) string {
	switch {
	case i < r.NbPublicWires:
		return r.PublicNames[i]
	case i < r.NbPublicWires+r.NbSecretWires:
		return r.SecretNames[i-r.NbPublicWires]
	default:
		return fmt.Sprintf("internal #%d", i-r.NbPublicWires-r.NbSecretWires)
	}
}
