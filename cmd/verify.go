package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/spf13/cobra"

	"github.com/consensys/hashproof/circuits/mimc"
	"github.com/consensys/hashproof/encoding"
	"github.com/consensys/hashproof/groth16"
)

// verifyCmd represents the verify-proof command
var verifyCmd = &cobra.Command{
	Use:   "verify-proof <hash-hex>",
	Short: "verifies a proof against a public hash",
	Long: `verify-proof checks the proof against the verifying key and the public hash.
It prints "proof is valid" and exits 0 when the proof is accepted; any other
outcome prints "proof is invalid" and exits with a non-zero status.`,
	Args: cobra.ExactArgs(1),
	RunE: cmdVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&fVkPath, "vk", defaultVkPath, "path of the verifying key")
	verifyCmd.Flags().StringVar(&fProofPath, "proof", defaultProofPath, "path of the proof")
}

func cmdVerify(cmd *cobra.Command, args []string) error {
	hash, err := parseHash(args[0])
	if err != nil {
		return err
	}

	var vk groth16.VerifyingKey
	hdrVk, err := encoding.ReadFile(fVkPath, encoding.KindVerifyingKey, &vk)
	if err != nil {
		return err
	}
	if hdrVk.Fingerprint != vk.Fingerprint {
		return fmt.Errorf("%w: header and key fingerprints disagree", encoding.ErrMalformedArtifact)
	}

	// the verb verifies one statement; a key for another circuit is a
	// configuration error, not a proof judgment
	shape, err := mimc.Shape()
	if err != nil {
		return err
	}
	if vk.Fingerprint != shape.Fingerprint() {
		return fmt.Errorf("%w: verifying key was derived for another circuit", encoding.ErrParameterMismatch)
	}

	var proof groth16.Proof
	hdrProof, err := encoding.ReadFile(fProofPath, encoding.KindProof, &proof)
	if err != nil {
		return err
	}

	// a proof generated under different parameters cannot verify
	if hdrProof.Fingerprint != vk.Fingerprint {
		fmt.Fprintln(cmd.OutOrStdout(), "proof is invalid")
		return groth16.ErrProofRejected
	}

	if err := groth16.Verify(&proof, &vk, []fr.Element{hash}); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "proof is invalid")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "proof is valid")
	return nil
}

// parseHash decodes a public hash from its canonical hex form: exactly 32
// big-endian bytes, strictly below the field modulus.
func parseHash(s string) (fr.Element, error) {
	var hash fr.Element
	raw, err := hex.DecodeString(s)
	if err != nil {
		return hash, fmt.Errorf("decoding hash: %w", err)
	}
	if len(raw) != fr.Bytes {
		return hash, fmt.Errorf("hash must be %d hex-encoded bytes, got %d", fr.Bytes, len(raw))
	}
	if err := hash.SetBytesCanonical(raw); err != nil {
		return hash, fmt.Errorf("hash is not a canonical field element: %w", err)
	}
	return hash, nil
}
