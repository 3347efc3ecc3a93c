package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consensys/hashproof/circuits/mimc"
	"github.com/consensys/hashproof/encoding"
	"github.com/consensys/hashproof/groth16"
	"github.com/consensys/hashproof/profile"
)

// setupCmd represents the generate-params command
var setupCmd = &cobra.Command{
	Use:   "generate-params",
	Short: "runs the one-time trusted setup and writes the proving and verifying keys",
	Long: `generate-params synthesizes the preimage circuit, runs the Groth16 trusted
setup and writes the proving and verifying keys. The setup secrets are
discarded before the command returns.`,
	Args: cobra.NoArgs,
	RunE: cmdSetup,
}

var (
	fParamsPath  string
	fVkPath      string
	fProfilePath string
)

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&fParamsPath, "params", defaultParamsPath, "path for the proving key")
	setupCmd.Flags().StringVar(&fVkPath, "vk", defaultVkPath, "path for the verifying key")
	setupCmd.Flags().StringVar(&fProfilePath, "profile", "", "write a pprof profile of the circuit synthesis")
}

func cmdSetup(cmd *cobra.Command, args []string) error {
	var p *profile.Profile
	if fProfilePath != "" {
		p = profile.Start(profile.WithPath(fProfilePath))
	}
	r1cs, err := mimc.Shape()
	if p != nil {
		p.Stop()
	}
	if err != nil {
		return err
	}

	pk, vk, err := groth16.Setup(r1cs)
	if err != nil {
		return err
	}

	if err := encoding.WriteFile(fParamsPath, encoding.KindProvingKey, pk.Fingerprint, pk); err != nil {
		return err
	}
	if err := encoding.WriteFile(fVkPath, encoding.KindVerifyingKey, vk.Fingerprint, vk); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-30s %d constraints\n", "synthesized circuit", r1cs.NbConstraints())
	fmt.Fprintf(out, "%-30s %s\n", "generated proving key", fParamsPath)
	fmt.Fprintf(out, "%-30s %s\n", "generated verifying key", fVkPath)
	return nil
}
