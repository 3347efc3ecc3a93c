package cmd

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/hashproof/circuits/mimc"
	"github.com/consensys/hashproof/cs"
	"github.com/consensys/hashproof/encoding"
	"github.com/consensys/hashproof/groth16"
)

// run executes the CLI in-process. Flag values survive between invocations, so
// every call passes its paths explicitly.
func run(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func hexHash(t *testing.T, preimage string) string {
	t.Helper()
	h, err := mimc.Hash([]byte(preimage))
	require.NoError(t, err)
	b := h.Bytes()
	return hex.EncodeToString(b[:])
}

// writeForeignVk sets up x·x = y and stores its verifying key at path.
func writeForeignVk(t *testing.T, path string) {
	t.Helper()
	b := cs.NewBuilder(cs.Shape)
	xw := b.Secret("x", nil)
	yw := b.Public("y", nil)
	b.Enforce(b.FromWire(xw), b.FromWire(xw), b.FromWire(yw))
	shape, _, err := b.Finalize()
	require.NoError(t, err)

	_, vk, err := groth16.Setup(shape)
	require.NoError(t, err)
	require.NoError(t, encoding.WriteFile(path, encoding.KindVerifyingKey, vk.Fingerprint, vk))
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	params := filepath.Join(dir, "params")
	vk := filepath.Join(dir, "vk")
	proof := filepath.Join(dir, "proof")
	pprof := filepath.Join(dir, "synthesis.pprof")

	out, err := run("generate-params", "--params", params, "--vk", vk, "--profile", pprof)
	require.NoError(t, err)
	require.Contains(t, out, "generated proving key")
	require.Contains(t, out, "generated verifying key")
	require.FileExists(t, params)
	require.FileExists(t, vk)
	require.FileExists(t, pprof)

	out, err = run("generate-proof", "Hello", "--params", params, "--proof", proof)
	require.NoError(t, err)
	require.FileExists(t, proof)
	hash := strings.TrimSpace(out)
	require.Len(t, hash, 64)
	require.Equal(t, hexHash(t, "Hello"), hash)

	out, err = run("verify-proof", hash, "--vk", vk, "--proof", proof)
	require.NoError(t, err)
	require.Contains(t, out, "proof is valid")

	// the right proof for the wrong hash is rejected, not an error
	out, err = run("verify-proof", hexHash(t, "Goodbye"), "--vk", vk, "--proof", proof)
	require.ErrorIs(t, err, groth16.ErrProofRejected)
	require.Contains(t, out, "proof is invalid")

	// malformed hash arguments
	_, err = run("verify-proof", "zz"+strings.Repeat("00", 31), "--vk", vk, "--proof", proof)
	require.ErrorContains(t, err, "decoding hash")
	_, err = run("verify-proof", "abcd", "--vk", vk, "--proof", proof)
	require.ErrorContains(t, err, "32")
	_, err = run("verify-proof", strings.Repeat("ff", 32), "--vk", vk, "--proof", proof)
	require.ErrorContains(t, err, "canonical")

	// artifact problems
	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, []byte("not a proof"), 0o644))
	_, err = run("verify-proof", hash, "--vk", vk, "--proof", junk)
	require.ErrorIs(t, err, encoding.ErrMalformedArtifact)

	_, err = run("verify-proof", hash, "--vk", filepath.Join(dir, "missing"), "--proof", proof)
	require.Error(t, err)

	// oversized preimage
	_, err = run("generate-proof", strings.Repeat("a", mimc.PreimageBytes+1), "--params", params, "--proof", proof)
	require.ErrorIs(t, err, mimc.ErrPreimageTooLong)

	// a verifying key for another circuit is refused up front
	foreignVk := filepath.Join(dir, "foreign-vk")
	writeForeignVk(t, foreignVk)
	_, err = run("verify-proof", hash, "--vk", foreignVk, "--proof", proof)
	require.ErrorIs(t, err, encoding.ErrParameterMismatch)

	// hex preimage input, same digest as the raw bytes
	out, err = run("generate-proof", "48656c6c6f", "--params", params, "--proof", proof, "--hex")
	require.NoError(t, err)
	require.Equal(t, hash, strings.TrimSpace(out))
}
