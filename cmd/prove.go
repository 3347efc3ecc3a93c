package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consensys/hashproof/circuits/mimc"
	"github.com/consensys/hashproof/encoding"
	"github.com/consensys/hashproof/groth16"
)

// proveCmd represents the generate-proof command
var proveCmd = &cobra.Command{
	Use:   "generate-proof <preimage>",
	Short: "proves knowledge of the preimage and prints its MiMC hash",
	Long: `generate-proof builds a witness for the given preimage, generates a Groth16
proof of knowledge and writes it to disk. The public hash is printed on stdout
as lowercase hex; the preimage itself never leaves the process.`,
	Args: cobra.ExactArgs(1),
	RunE: cmdProve,
}

var (
	fProofPath string
	fHex       bool
)

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().StringVar(&fParamsPath, "params", defaultParamsPath, "path of the proving key")
	proveCmd.Flags().StringVar(&fProofPath, "proof", defaultProofPath, "path for the proof")
	proveCmd.Flags().BoolVar(&fHex, "hex", false, "decode the preimage argument as hex")
}

func cmdProve(cmd *cobra.Command, args []string) error {
	preimage := []byte(args[0])
	if fHex {
		var err error
		preimage, err = hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decoding preimage: %w", err)
		}
	}

	var pk groth16.ProvingKey
	hdr, err := encoding.ReadFile(fParamsPath, encoding.KindProvingKey, &pk)
	if err != nil {
		return err
	}
	if hdr.Fingerprint != pk.Fingerprint {
		return fmt.Errorf("%w: header and key fingerprints disagree", encoding.ErrMalformedArtifact)
	}

	r1cs, witness, hash, err := mimc.Assign(preimage)
	if err != nil {
		return err
	}

	proof, err := groth16.Prove(r1cs, &pk, witness)
	if err != nil {
		return err
	}
	if err := encoding.WriteFile(fProofPath, encoding.KindProof, pk.Fingerprint, proof); err != nil {
		return err
	}

	hashBytes := hash.Bytes()
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(hashBytes[:]))
	return nil
}
