package cs

// Term is a lightweight wire × coefficient pair, no pointers.
// first 32 bits represent the wire id, local to the wire's visibility class
// next 30 bits represent the coefficient idx (in R1CS.Coefficients) by which the wire is multiplied
// last 2 bits encode the visibility of the wire
// if a circuit needs more than 1 billion coefficients, this breaks (not so soon.)
type Term uint64

const (
	_            uint64 = 0b00
	wirePublic   uint64 = 0b01
	wireInternal uint64 = 0b10
	wireSecret   uint64 = 0b11
)

const (
	nbBitsWireID     = 32
	nbBitsCoeffID    = 30
	nbBitsVisibility = 2
)

const (
	shiftWireID     = 0
	shiftCoeffID    = nbBitsWireID
	shiftVisibility = shiftCoeffID + nbBitsCoeffID
)

const (
	maskWireID     = uint64(1<<nbBitsWireID) - 1
	maskCoeffID    = (uint64(1<<nbBitsCoeffID) - 1) << shiftCoeffID
	maskVisibility = (uint64(1<<nbBitsVisibility) - 1) << shiftVisibility
)

// Pack packs wireID, coeffID and visibility into a Term
func Pack(wireID, coeffID int, visibility Visibility) Term {
	var t Term
	t.SetWireID(wireID)
	t.SetCoeffID(coeffID)
	t.SetVisibility(visibility)
	return t
}

// Unpack returns wireID, coeffID and visibility
func (t Term) Unpack() (wireID, coeffID int, visibility Visibility) {
	wireID = t.WireID()
	coeffID = t.CoeffID()
	visibility = t.Visibility()
	return
}

// WireID returns the wire id, local to the wire's visibility class
func (t Term) WireID() int {
	return int(uint64(t) & maskWireID)
}

// CoeffID returns the coefficient id (see R1CS.Coefficients)
func (t Term) CoeffID() int {
	return int((uint64(t) & maskCoeffID) >> shiftCoeffID)
}

// Visibility returns the wire's visibility class
func (t Term) Visibility() Visibility {
	switch (uint64(t) & maskVisibility) >> shiftVisibility {
	case wireInternal:
		return Internal
	case wirePublic:
		return Public
	case wireSecret:
		return Secret
	default:
		return Unset
	}
}

// SetWireID updates the bits corresponding to the wireID
func (t *Term) SetWireID(id int) {
	_wireID := uint64(id)
	if (_wireID & maskWireID) != uint64(id) {
		panic("wireID is too large, unsupported")
	}
	*t = Term((uint64(*t) & ^uint64(maskWireID)) | _wireID)
}

// SetCoeffID updates the bits corresponding to the coeffID
func (t *Term) SetCoeffID(cID int) {
	_coeffID := uint64(cID)
	if (_coeffID & (maskCoeffID >> shiftCoeffID)) != uint64(cID) {
		panic("coeffID is too large, unsupported")
	}
	_coeffID <<= shiftCoeffID
	*t = Term((uint64(*t) & ^uint64(maskCoeffID)) | _coeffID)
}

// SetVisibility updates the bits corresponding to the visibility with its encoding
func (t *Term) SetVisibility(v Visibility) {
	visibility := uint64(0)
	switch v {
	case Internal:
		visibility = wireInternal
	case Public:
		visibility = wirePublic
	case Secret:
		visibility = wireSecret
	default:
		return
	}
	visibility <<= shiftVisibility
	*t = Term((uint64(*t) & ^uint64(maskVisibility)) | visibility)
}

// LinearExpression is a linear combination of terms; its value against a wire
// vector is the sum of coeff × wire over its terms. The same wire may appear
// in several terms.
type LinearExpression []Term
