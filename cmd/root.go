// Package cmd is the hashproof command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	hashproof "github.com/consensys/hashproof"
	"github.com/consensys/hashproof/groth16"
	"github.com/consensys/hashproof/logger"
)

// default artifact paths, relative to the working directory
const (
	defaultParamsPath = "params"
	defaultVkPath     = "vk"
	defaultProofPath  = "proof"
)

var rootCmd = &cobra.Command{
	Use:   "hashproof",
	Short: "Groth16 proofs of knowledge of a MiMC hash preimage",
	Long: `hashproof generates and verifies Groth16 zk-SNARK proofs of knowledge of a
MiMC hash preimage over the BN254 curve.

A one-time trusted setup produces the proving and verifying keys; a proof then
certifies "I know a preimage of this hash" without revealing the preimage.`,
	Version:       hashproof.Version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	fVerbose bool
	fQuiet   bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&fVerbose, "verbose", "v", false, "enable debug logs")
	rootCmd.PersistentFlags().BoolVarP(&fQuiet, "quiet", "q", false, "disable logs")
	cobra.OnInitialize(configureLogger)
}

func configureLogger() {
	switch {
	case fQuiet:
		logger.Disable()
	case fVerbose:
		logger.SetLevel(zerolog.DebugLevel)
	default:
		logger.SetLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command. On failure the process exits with a non-zero
// status; a plain proof rejection has already been reported on stdout and is
// not an error worth repeating.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, groth16.ErrProofRejected) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
