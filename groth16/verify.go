package groth16

import (
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/hashproof/logger"
)

// Verify checks the proof against the verifying key and the public witness
// (the constant wire excluded). It runs the fixed pairing product
//
//	e(Ar, Bs) · e(Σ aᵢKᵢ, -γ) · e(Krs, -δ) == e(α, β)
//
// as a single multi-Miller loop followed by one final exponentiation, and
// returns ErrProofRejected when the equality does not hold. Proof points
// outside their prime-order subgroups are rejected the same way.
func Verify(proof *Proof, vk *VerifyingKey, publicWitness []fr.Element) error {
	if len(publicWitness) != vk.NbPublicWitness() {
		return fmt.Errorf("%w: got %d public inputs, expected %d",
			ErrParameterMismatch, len(publicWitness), vk.NbPublicWitness())
	}

	log := logger.Logger().With().
		Str("curve", CurveID().String()).
		Str("backend", "groth16").Logger()
	start := time.Now()

	if !proof.Ar.IsInSubGroup() || !proof.Krs.IsInSubGroup() || !proof.Bs.IsInSubGroup() {
		return ErrProofRejected
	}

	// Σ aᵢ·Kᵢ, the public input accumulation (K[0] is the constant wire)
	var kSum curve.G1Jac
	if _, err := kSum.MultiExp(vk.G1.K[1:], publicWitness, ecc.MultiExpConfig{}); err != nil {
		return err
	}
	kSum.AddMixed(&vk.G1.K[0])
	var kSumAff curve.G1Affine
	kSumAff.FromJacobian(&kSum)

	ml, err := curve.MillerLoop(
		[]curve.G1Affine{proof.Ar, kSumAff, proof.Krs},
		[]curve.G2Affine{proof.Bs, vk.gammaNeg, vk.deltaNeg},
	)
	if err != nil {
		return err
	}
	right := curve.FinalExponentiation(&ml)
	if !vk.e.Equal(&right) {
		return ErrProofRejected
	}

	log.Debug().Dur("took", time.Since(start)).Msg("verifier done")
	return nil
}
