package mimc

import (
	"bytes"
	"testing"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/hashproof/cs"
	"github.com/stretchr/testify/require"
)

// Assign checks every constraint against the witness, so a divergence between
// the in-circuit rounds and the native MiMC surfaces as ErrUnsatisfiedConstraint
// for any of these preimages.
func TestCircuitMatchesNativeHash(t *testing.T) {
	preimages := [][]byte{
		nil,
		[]byte("Hello"),
		{0x01},
		bytes.Repeat([]byte{0xaa}, BlockBytes),
		bytes.Repeat([]byte{0xbb}, BlockBytes+1),
		bytes.Repeat([]byte{0xcc}, PreimageBytes),
	}
	for _, p := range preimages {
		r, w, hash, err := Assign(p)
		require.NoError(t, err)
		require.NoError(t, r.CheckSatisfied(w))

		native, err := Hash(p)
		require.NoError(t, err)
		require.True(t, hash.Equal(&native))

		// the public hash wire sits right after ONE
		require.True(t, w[1].Equal(&native))
	}
}

func TestShapeMatchesWitnessShape(t *testing.T) {
	shape, err := Shape()
	require.NoError(t, err)

	r, _, _, err := Assign([]byte("Hello"))
	require.NoError(t, err)

	require.Equal(t, shape.Fingerprint(), r.Fingerprint())
}

func TestStats(t *testing.T) {
	r, err := Shape()
	require.NoError(t, err)

	// 3 constraints per round per block for the x^5 s-box, plus the final
	// equality with the public hash
	rounds := len(bn254.GetConstants())
	require.Equal(t, NbBlocks*3*rounds+1, r.NbConstraints())

	require.Equal(t, []string{cs.OneWire, HashName}, r.PublicNames)
	require.Equal(t, []string{"preimage_0", "preimage_1", "preimage_2"}, r.SecretNames)
	require.Equal(t, NbBlocks, r.NbSecretWires)
}

func TestPreimageTooLong(t *testing.T) {
	long := bytes.Repeat([]byte{0x01}, PreimageBytes+1)

	_, err := Hash(long)
	require.ErrorIs(t, err, ErrPreimageTooLong)

	_, _, _, err = Assign(long)
	require.ErrorIs(t, err, ErrPreimageTooLong)
}

func TestZeroPadding(t *testing.T) {
	// the capacity is fixed; trailing zero bytes are not distinguishable from
	// padding
	h1, err := Hash([]byte("ab"))
	require.NoError(t, err)
	h2, err := Hash([]byte("ab\x00"))
	require.NoError(t, err)
	require.True(t, h1.Equal(&h2))

	h3, err := Hash(nil)
	require.NoError(t, err)
	h4, err := Hash([]byte{0x00})
	require.NoError(t, err)
	require.True(t, h3.Equal(&h4))
}

func TestDistinctPreimagesDistinctHashes(t *testing.T) {
	h1, err := Hash([]byte("Hello"))
	require.NoError(t, err)
	h2, err := Hash([]byte("Hellp"))
	require.NoError(t, err)
	require.False(t, h1.Equal(&h2))
}
