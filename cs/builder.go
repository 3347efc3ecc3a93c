package cs

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/hashproof/profile"
)

// Mode selects what a synthesis run produces. Shape records wires and
// constraints only and feeds the trusted setup; Witness additionally assigns
// a concrete field value to every wire and feeds the prover.
type Mode uint8

const (
	Shape Mode = iota
	Witness
)

func (m Mode) String() string {
	if m == Witness {
		return "witness"
	}
	return "shape"
}

// Assignable produces the value of an input wire in Witness mode. It is never
// called in Shape mode.
type Assignable func() (fr.Element, error)

// Wire is a handle to an allocated wire, valid only with the Builder that
// created it.
type Wire struct {
	visibility Visibility
	id         int // local to the visibility class
}

// Builder synthesizes a circuit into an R1CS. The same circuit code runs
// against a Shape builder and a Witness builder; the builder is the only
// mode-dependent piece, so both modes emit the identical constraint sequence.
//
// Errors during synthesis (missing assignments, dangling wires) are deferred:
// the first one is kept and returned by Finalize, so circuit code stays free
// of error plumbing, like the arithmetic it expresses.
type Builder struct {
	mode Mode

	publicNames []string
	secretNames []string
	nbInternal  int

	publicValues   []fr.Element
	secretValues   []fr.Element
	internalValues []fr.Element

	constraints []R1C

	coeffs   []fr.Element
	coeffIDs map[fr.Element]int

	err error
}

// NewBuilder returns a Builder for the given mode. Wire 0 is pre-allocated as
// the constant ONE wire, public, with value 1.
func NewBuilder(mode Mode) *Builder {
	b := &Builder{
		mode:     mode,
		coeffIDs: make(map[fr.Element]int),
	}
	b.publicNames = append(b.publicNames, OneWire)
	if mode == Witness {
		var one fr.Element
		one.SetOne()
		b.publicValues = append(b.publicValues, one)
	}
	return b
}

// Mode returns the builder's synthesis mode
func (b *Builder) Mode() Mode {
	return b.mode
}

// One returns the constant ONE wire
func (b *Builder) One() Wire {
	return Wire{visibility: Public, id: 0}
}

// Public allocates a named public input wire
func (b *Builder) Public(name string, assign Assignable) Wire {
	w := Wire{visibility: Public, id: len(b.publicNames)}
	b.publicNames = append(b.publicNames, name)
	if b.mode == Witness {
		b.publicValues = append(b.publicValues, b.resolve(name, assign))
	}
	return w
}

// Secret allocates a named secret input wire
func (b *Builder) Secret(name string, assign Assignable) Wire {
	w := Wire{visibility: Secret, id: len(b.secretNames)}
	b.secretNames = append(b.secretNames, name)
	if b.mode == Witness {
		b.secretValues = append(b.secretValues, b.resolve(name, assign))
	}
	return w
}

// Allocate adds an internal wire whose value, in Witness mode, is computed by
// assign. Derived wires created through Mul compute their own value; Allocate
// is for circuits that compute intermediate values outside the builder.
func (b *Builder) Allocate(assign Assignable) Wire {
	w := b.newInternal()
	if b.mode == Witness {
		b.internalValues = append(b.internalValues, b.resolve(fmt.Sprintf("internal #%d", w.id), assign))
	}
	return w
}

func (b *Builder) newInternal() Wire {
	w := Wire{visibility: Internal, id: b.nbInternal}
	b.nbInternal++
	return w
}

func (b *Builder) resolve(name string, assign Assignable) fr.Element {
	var res fr.Element
	if assign == nil {
		b.setErr(fmt.Errorf("%w: %s", ErrInputNotSet, name))
		return res
	}
	res, err := assign()
	if err != nil {
		b.setErr(fmt.Errorf("%w: %s: %v", ErrInputNotSet, name, err))
	}
	return res
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// coeffID deduplicates a coefficient into the table. Ids are assigned in
// first-seen order, which keeps the table deterministic across syntheses.
func (b *Builder) coeffID(v *fr.Element) int {
	if id, ok := b.coeffIDs[*v]; ok {
		return id
	}
	id := len(b.coeffs)
	b.coeffs = append(b.coeffs, *v)
	b.coeffIDs[*v] = id
	return id
}

// Term returns coeff × w as a one-term linear expression
func (b *Builder) Term(coeff fr.Element, w Wire) LinearExpression {
	b.checkWire(w)
	return LinearExpression{Pack(w.id, b.coeffID(&coeff), w.visibility)}
}

// FromWire returns 1 × w
func (b *Builder) FromWire(w Wire) LinearExpression {
	var one fr.Element
	one.SetOne()
	return b.Term(one, w)
}

// Constant returns v × ONE
func (b *Builder) Constant(v fr.Element) LinearExpression {
	return b.Term(v, b.One())
}

// Add returns the sum of the given linear expressions. Terms are concatenated;
// a wire appearing in several operands simply appears in several terms.
func (b *Builder) Add(l LinearExpression, others ...LinearExpression) LinearExpression {
	size := len(l)
	for _, o := range others {
		size += len(o)
	}
	res := make(LinearExpression, 0, size)
	res = append(res, l...)
	for _, o := range others {
		res = append(res, o...)
	}
	return res
}

// Scale returns k × l
func (b *Builder) Scale(k fr.Element, l LinearExpression) LinearExpression {
	res := make(LinearExpression, len(l))
	var c fr.Element
	for i, t := range l {
		c.Mul(&b.coeffs[t.CoeffID()], &k)
		nt := t
		nt.SetCoeffID(b.coeffID(&c))
		res[i] = nt
	}
	return res
}

// Mul allocates the product wire of l × r, enforces l × r = product and
// returns the product as a linear expression
func (b *Builder) Mul(l, r LinearExpression) LinearExpression {
	w := b.newInternal()
	if b.mode == Witness {
		lv := b.eval(l)
		rv := b.eval(r)
		var v fr.Element
		v.Mul(&lv, &rv)
		b.internalValues = append(b.internalValues, v)
	}
	out := b.FromWire(w)
	b.Enforce(l, r, out)
	return out
}

// AssertIsEqual enforces l == r
func (b *Builder) AssertIsEqual(l, r LinearExpression) {
	b.Enforce(l, b.FromWire(b.One()), r)
}

// Enforce adds the raw constraint l × r = o
func (b *Builder) Enforce(l, r, o LinearExpression) {
	b.constraints = append(b.constraints, R1C{L: l, R: r, O: o})
	profile.RecordConstraint()
}

// eval evaluates a linear expression against the values collected so far.
// Witness mode only.
func (b *Builder) eval(l LinearExpression) fr.Element {
	var res, tmp fr.Element
	for _, t := range l {
		var wv *fr.Element
		switch t.Visibility() {
		case Public:
			wv = &b.publicValues[t.WireID()]
		case Secret:
			wv = &b.secretValues[t.WireID()]
		default:
			wv = &b.internalValues[t.WireID()]
		}
		tmp.Mul(&b.coeffs[t.CoeffID()], wv)
		res.Add(&res, &tmp)
	}
	return res
}

func (b *Builder) checkWire(w Wire) {
	ok := false
	switch w.visibility {
	case Public:
		ok = w.id < len(b.publicNames)
	case Secret:
		ok = w.id < len(b.secretNames)
	case Internal:
		ok = w.id < b.nbInternal
	}
	if !ok {
		b.setErr(fmt.Errorf("%w: %s wire #%d", ErrInputNotSet, w.visibility, w.id))
	}
}

// Finalize closes the synthesis and returns the constraint system. In Witness
// mode it also returns the full wire vector, checked against every constraint
// so an inconsistent assignment surfaces here, before any proving work.
func (b *Builder) Finalize() (*R1CS, []fr.Element, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	r := &R1CS{
		NbPublicWires:   len(b.publicNames),
		NbSecretWires:   len(b.secretNames),
		NbInternalWires: b.nbInternal,
		PublicNames:     b.publicNames,
		SecretNames:     b.secretNames,
		Constraints:     b.constraints,
		Coefficients:    b.coeffs,
	}
	r.NbWires = r.NbPublicWires + r.NbSecretWires + r.NbInternalWires

	if err := r.checkWiring(); err != nil {
		return nil, nil, err
	}

	if b.mode == Shape {
		return r, nil, nil
	}

	w := make([]fr.Element, 0, r.NbWires)
	w = append(w, b.publicValues...)
	w = append(w, b.secretValues...)
	w = append(w, b.internalValues...)
	if err := r.CheckSatisfied(w); err != nil {
		return nil, nil, err
	}
	return r, w, nil
}
