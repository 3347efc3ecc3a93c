// Package groth16 implements the Groth16 zk-SNARK proving scheme over the
// BN254 curve, for rank-1 constraint systems produced by the cs package.
//
// The lifecycle is the usual three-phase one:
//
//	pk, vk, err := groth16.Setup(r1cs)          // one-time, trusted
//	proof, err := groth16.Prove(r1cs, pk, witness)
//	err = groth16.Verify(proof, vk, publicWitness)
//
// Setup samples the toxic waste (t, α, β, γ, δ), derives the proving and
// verifying keys from it and clears the secrets before returning; they are
// never logged nor serialized. Verify answers with ErrProofRejected for any
// proof that does not pass the pairing check, whatever the cause.
package groth16

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

var (
	// ErrSetupFailure is returned when the trusted setup could not derive a
	// sound key pair, e.g. when randomness sampling fails.
	ErrSetupFailure = errors.New("groth16: setup failure")

	// ErrParameterMismatch is returned when a key does not belong to the
	// constraint system (or witness) it is used with.
	ErrParameterMismatch = errors.New("groth16: parameter mismatch")

	// ErrProofRejected is returned by Verify for any proof that does not pass
	// the pairing check. It is the normal outcome for an invalid proof, not a
	// malfunction of the verifier.
	ErrProofRejected = errors.New("groth16: proof rejected")
)

// ProvingKey is the prover half of the output of Setup. It embeds the
// evaluation domain used for the quotient polynomial arithmetic and the
// encrypted evaluations of the constraint system polynomials at the secret
// point t.
type ProvingKey struct {
	// domain for the polynomial arithmetic (FFTs of size the next power of 2
	// above the number of constraints)
	Domain fft.Domain

	// [α]₁, [β]₁, [δ]₁
	// [A(t)]₁, [B(t)]₁, [Kpk(t)]₁, [Z(t)]₁
	G1 struct {
		Alpha, Beta, Delta curve.G1Affine
		A, B, Z            []curve.G1Affine
		K                  []curve.G1Affine // indexes correspond to the private wires
	}

	// [β]₂, [δ]₂, [B(t)]₂
	G2 struct {
		Beta, Delta curve.G2Affine
		B           []curve.G2Affine
	}

	// Fingerprint of the constraint system the key was derived for.
	Fingerprint [32]byte
}

// VerifyingKey is the verifier half of the output of Setup. The pairing e(α,β)
// and the negated γ, δ points are precomputed so that Verify runs a single
// multi-Miller loop.
type VerifyingKey struct {
	// [α]₁, [Kvk(t)]₁ (one point per public wire, the wire "one" first)
	G1 struct {
		Alpha curve.G1Affine
		K     []curve.G1Affine
	}

	// [β]₂, [γ]₂, [δ]₂
	G2 struct {
		Beta, Gamma, Delta curve.G2Affine
	}

	// e(α,β) and the negated points, precomputed by Precompute
	e        curve.GT
	gammaNeg curve.G2Affine
	deltaNeg curve.G2Affine

	// PublicNames are the public wire names, in witness order.
	PublicNames []string

	// Fingerprint of the constraint system the key was derived for.
	Fingerprint [32]byte
}

// Proof is a Groth16 proof: two G1 points and one G2 point, independent of the
// circuit size.
type Proof struct {
	Ar, Krs curve.G1Affine
	Bs      curve.G2Affine
}

// CurveID returns the curve the scheme is instantiated with.
func CurveID() ecc.ID {
	return ecc.BN254
}

// NbPublicWitness returns the number of public inputs Verify expects, the
// constant wire excluded.
func (vk *VerifyingKey) NbPublicWitness() int {
	return len(vk.G1.K) - 1
}

// Precompute derives the cached pairing and negated points from the raw key
// material. It is called by Setup and after deserialization.
func (vk *VerifyingKey) Precompute() error {
	e, err := curve.Pair([]curve.G1Affine{vk.G1.Alpha}, []curve.G2Affine{vk.G2.Beta})
	if err != nil {
		return err
	}
	vk.e = e
	vk.gammaNeg.Neg(&vk.G2.Gamma)
	vk.deltaNeg.Neg(&vk.G2.Delta)
	return nil
}
