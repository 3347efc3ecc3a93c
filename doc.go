// Package hashproof implements a zero-knowledge proof of knowledge of a hash
// preimage: the prover convinces a verifier that it knows a preimage p with
// MiMC(p) = h while revealing only the digest h.
//
// The proof system is Groth16 over the BN254 curve. The library is split in
// three layers:
//   - cs: a rank-1 constraint system and a synthesis builder that runs in
//     shape mode (trusted setup) or witness mode (proving)
//   - circuits/mimc: the preimage statement, plus the native reference digest
//   - groth16: Setup, Prove and Verify, with canonical serialization
//
// The hashproof binary (cmd/hashproof) exposes the three phases as the
// generate-params, generate-proof and verify-proof subcommands.
package hashproof

import (
	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
)

// Version of the hashproof module. Serialized artifacts carry it in their
// header so a mismatching binary can warn at load time.
var Version = semver.MustParse("0.1.0")

// Curve returns the curve the proof system is instantiated over.
func Curve() ecc.ID {
	return ecc.BN254
}
