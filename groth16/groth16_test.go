package groth16

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/consensys/hashproof/circuits/mimc"
	"github.com/consensys/hashproof/cs"
)

// cubic synthesizes x³ + x + 5 = y, the smallest circuit with an internal wire
// chain worth proving over.
func cubic(t *testing.T, mode cs.Mode, x, y uint64) (*cs.R1CS, []fr.Element) {
	t.Helper()
	var xa, ya cs.Assignable
	if mode == cs.Witness {
		xa = constant(x)
		ya = constant(y)
	}

	b := cs.NewBuilder(mode)
	xw := b.Secret("x", xa)
	yw := b.Public("y", ya)
	xl := b.FromWire(xw)
	x2 := b.Mul(xl, xl)
	x3 := b.Mul(x2, xl)
	var five fr.Element
	five.SetUint64(5)
	b.AssertIsEqual(b.Add(x3, xl, b.Constant(five)), b.FromWire(yw))

	r, w, err := b.Finalize()
	require.NoError(t, err)
	return r, w
}

func constant(v uint64) cs.Assignable {
	return func() (fr.Element, error) {
		var e fr.Element
		e.SetUint64(v)
		return e, nil
	}
}

func public(v uint64) []fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return []fr.Element{e}
}

func TestProveVerify(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w := cubic(t, cs.Witness, 3, 35)
	proof, err := Prove(r, pk, w)
	require.NoError(t, err)

	require.NoError(t, Verify(proof, vk, public(35)))
	require.ErrorIs(t, Verify(proof, vk, public(36)), ErrProofRejected)
}

func TestVerifyTamperedProof(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w := cubic(t, cs.Witness, 3, 35)
	proof, err := Prove(r, pk, w)
	require.NoError(t, err)

	// negated Ar stays in the subgroup, the pairing check must catch it
	tampered := *proof
	tampered.Ar.Neg(&tampered.Ar)
	require.ErrorIs(t, Verify(&tampered, vk, public(35)), ErrProofRejected)

	swapped := &Proof{Ar: proof.Krs, Krs: proof.Ar, Bs: proof.Bs}
	require.ErrorIs(t, Verify(swapped, vk, public(35)), ErrProofRejected)
}

func TestProofByteFlip(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w := cubic(t, cs.Witness, 3, 35)
	proof, err := Prove(r, pk, w)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = proof.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()

	// every single-byte corruption either fails to decode or verifies false
	for i := range raw {
		mut := make([]byte, len(raw))
		copy(mut, raw)
		mut[i] ^= 0x40

		var p Proof
		if _, err := p.ReadFrom(bytes.NewReader(mut)); err != nil {
			continue
		}
		require.ErrorIs(t, Verify(&p, vk, public(35)), ErrProofRejected, "flipped byte %d", i)
	}
}

func TestVerifyCrossParams(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk1, vk1, err := Setup(shape)
	require.NoError(t, err)
	pk2, vk2, err := Setup(shape)
	require.NoError(t, err)

	// different ceremonies share the structure: the raw encodings have
	// identical lengths
	var b1, b2 bytes.Buffer
	n1, err := pk1.WriteRawTo(&b1)
	require.NoError(t, err)
	n2, err := pk2.WriteRawTo(&b2)
	require.NoError(t, err)
	require.Equal(t, n1, n2)
	n1, err = vk1.WriteRawTo(&b1)
	require.NoError(t, err)
	n2, err = vk2.WriteRawTo(&b2)
	require.NoError(t, err)
	require.Equal(t, n1, n2)

	// same circuit, different ceremonies: a proof under one key pair cannot
	// verify under the other
	r, w := cubic(t, cs.Witness, 3, 35)
	proof, err := Prove(r, pk1, w)
	require.NoError(t, err)
	require.ErrorIs(t, Verify(proof, vk2, public(35)), ErrProofRejected)
}

func TestBlindingIsLive(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w := cubic(t, cs.Witness, 3, 35)
	p1, err := Prove(r, pk, w)
	require.NoError(t, err)
	p2, err := Prove(r, pk, w)
	require.NoError(t, err)

	// same witness, fresh blinding: the proofs must differ yet both verify
	require.False(t, p1.Ar.Equal(&p2.Ar))
	require.NoError(t, Verify(p1, vk, public(35)))
	require.NoError(t, Verify(p2, vk, public(35)))
}

func TestParameterMismatch(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w := cubic(t, cs.Witness, 3, 35)

	_, err = Prove(r, pk, w[:3])
	require.ErrorIs(t, err, ErrParameterMismatch)

	proof, err := Prove(r, pk, w)
	require.NoError(t, err)

	require.ErrorIs(t, Verify(proof, vk, nil), ErrParameterMismatch)

	var y fr.Element
	y.SetUint64(35)
	require.ErrorIs(t, Verify(proof, vk, []fr.Element{y, y}), ErrParameterMismatch)
}

func TestSetupStructure(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	require.Equal(t, shape.Fingerprint(), pk.Fingerprint)
	require.Equal(t, pk.Fingerprint, vk.Fingerprint)

	require.Len(t, pk.G1.A, shape.NbWires)
	require.Len(t, pk.G1.B, shape.NbWires)
	require.Len(t, pk.G2.B, shape.NbWires)
	require.Len(t, pk.G1.K, shape.NbPrivateWires())
	require.Len(t, pk.G1.Z, int(pk.Domain.Cardinality))
	require.GreaterOrEqual(t, pk.Domain.Cardinality, uint64(shape.NbConstraints()))

	require.Len(t, vk.G1.K, shape.NbPublicWires)
	require.Equal(t, shape.NbPublicWires-1, vk.NbPublicWitness())
	require.Equal(t, shape.PublicNames, vk.PublicNames)

	require.True(t, vk.G1.Alpha.Equal(&pk.G1.Alpha))
	require.True(t, vk.G2.Beta.Equal(&pk.G2.Beta))
	require.True(t, vk.G2.Delta.Equal(&pk.G2.Delta))
}

func TestSetupEmptySystem(t *testing.T) {
	_, _, err := Setup(&cs.R1CS{})
	require.ErrorIs(t, err, ErrSetupFailure)
}

func TestEndToEndPreimage(t *testing.T) {
	shape, err := mimc.Shape()
	require.NoError(t, err)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)

	r, w, hash, err := mimc.Assign([]byte("Hello"))
	require.NoError(t, err)

	proof, err := Prove(r, pk, w)
	require.NoError(t, err)
	require.NoError(t, Verify(proof, vk, []fr.Element{hash}))

	p2, err := Prove(r, pk, w)
	require.NoError(t, err)
	require.False(t, proof.Ar.Equal(&p2.Ar))
	require.NoError(t, Verify(p2, vk, []fr.Element{hash}))

	var one, wrong fr.Element
	one.SetOne()
	wrong.Add(&hash, &one)
	require.ErrorIs(t, Verify(proof, vk, []fr.Element{wrong}), ErrProofRejected)

	// keys derived for the hash circuit reject a foreign witness up front
	cr, cw := cubic(t, cs.Witness, 3, 35)
	_, err = Prove(cr, pk, cw)
	require.ErrorIs(t, err, ErrParameterMismatch)
}
