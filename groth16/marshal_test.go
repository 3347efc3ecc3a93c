package groth16

import (
	"bytes"
	"math/big"
	"reflect"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/consensys/hashproof/cs"
)

func TestProofSerialization(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Proof -> writer -> reader -> Proof should stay constant", prop.ForAll(
		func(ar, krs curve.G1Affine, bs curve.G2Affine) bool {
			var proof, pCompressed, pRaw Proof

			// create a random proof
			proof.Ar = ar
			proof.Krs = krs
			proof.Bs = bs

			var bufCompressed bytes.Buffer
			written, err := proof.WriteTo(&bufCompressed)
			if err != nil {
				return false
			}

			read, err := pCompressed.ReadFrom(&bufCompressed)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			var bufRaw bytes.Buffer
			written, err = proof.WriteRawTo(&bufRaw)
			if err != nil {
				return false
			}

			read, err = pRaw.ReadFrom(&bufRaw)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			return reflect.DeepEqual(&proof, &pCompressed) && reflect.DeepEqual(&proof, &pRaw)
		},
		GenG1(),
		GenG1(),
		GenG2(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestVerifyingKeySerialization(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)

	properties.Property("VerifyingKey -> writer -> reader -> VerifyingKey should stay constant", prop.ForAll(
		func(p1 curve.G1Affine, p2 curve.G2Affine) bool {
			var vk, vkCompressed, vkRaw VerifyingKey

			// create a random vk
			vk.G1.Alpha = p1
			vk.G1.K = make([]curve.G1Affine, 2)
			vk.G1.K[0] = p1
			vk.G1.K[1] = p1
			vk.G2.Beta = p2
			vk.G2.Gamma = p2
			vk.G2.Delta = p2
			vk.PublicNames = []string{cs.OneWire, "y"}
			vk.Fingerprint[0] = 0x2a
			// the read side recomputes the cached pairing; match it
			if err := vk.Precompute(); err != nil {
				return false
			}

			var bufCompressed bytes.Buffer
			written, err := vk.WriteTo(&bufCompressed)
			if err != nil {
				return false
			}

			read, err := vkCompressed.ReadFrom(&bufCompressed)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			var bufRaw bytes.Buffer
			written, err = vk.WriteRawTo(&bufRaw)
			if err != nil {
				return false
			}

			read, err = vkRaw.ReadFrom(&bufRaw)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			return reflect.DeepEqual(&vk, &vkCompressed) && reflect.DeepEqual(&vk, &vkRaw)
		},
		GenG1(),
		GenG2(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProvingKeySerialization(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)

	properties.Property("ProvingKey -> writer -> reader -> ProvingKey should stay constant", prop.ForAll(
		func(p1 curve.G1Affine, p2 curve.G2Affine) bool {
			var pk, pkCompressed, pkRaw ProvingKey

			// create a random pk
			domain := fft.NewDomain(8)
			pk.Domain = *domain

			nbWires := 6
			nbPrivateWires := 4

			// allocate our slices
			pk.G1.A = make([]curve.G1Affine, nbWires)
			pk.G1.B = make([]curve.G1Affine, nbWires)
			pk.G1.K = make([]curve.G1Affine, nbPrivateWires)
			pk.G1.Z = make([]curve.G1Affine, pk.Domain.Cardinality)
			pk.G2.B = make([]curve.G2Affine, nbWires)

			pk.G1.Alpha = p1
			pk.G2.Beta = p2
			pk.G1.K[1] = p1
			pk.G1.B[0] = p1
			pk.G2.B[0] = p2
			pk.Fingerprint[31] = 0x2a

			var bufCompressed bytes.Buffer
			written, err := pk.WriteTo(&bufCompressed)
			if err != nil {
				return false
			}

			read, err := pkCompressed.ReadFrom(&bufCompressed)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			var bufRaw bytes.Buffer
			written, err = pk.WriteRawTo(&bufRaw)
			if err != nil {
				return false
			}

			read, err = pkRaw.ReadFrom(&bufRaw)
			if err != nil {
				return false
			}

			if read != written {
				return false
			}

			return reflect.DeepEqual(&pk, &pkCompressed) && reflect.DeepEqual(&pk, &pkRaw)
		},
		GenG1(),
		GenG2(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestSerializationIsCanonical checks that re-serializing a deserialized
// artifact reproduces the exact bytes, on keys and proofs from a real setup.
func TestSerializationIsCanonical(t *testing.T) {
	shape, _ := cubic(t, cs.Shape, 0, 0)
	pk, vk, err := Setup(shape)
	require.NoError(t, err)
	r, w := cubic(t, cs.Witness, 3, 35)
	proof, err := Prove(r, pk, w)
	require.NoError(t, err)

	roundTrip := func(t *testing.T, write func(*bytes.Buffer) error, read func(*bytes.Buffer) error, rewrite func(*bytes.Buffer) error) {
		t.Helper()
		var b1, b2, b3 bytes.Buffer
		require.NoError(t, write(&b1))
		require.NoError(t, write(&b2))
		require.True(t, bytes.Equal(b1.Bytes(), b2.Bytes()))

		require.NoError(t, read(&b1))
		require.NoError(t, rewrite(&b3))
		require.True(t, bytes.Equal(b2.Bytes(), b3.Bytes()))
	}

	var pk2 ProvingKey
	roundTrip(t,
		func(b *bytes.Buffer) error { _, err := pk.WriteTo(b); return err },
		func(b *bytes.Buffer) error { _, err := pk2.UnsafeReadFrom(b); return err },
		func(b *bytes.Buffer) error { _, err := pk2.WriteTo(b); return err },
	)

	var vk2 VerifyingKey
	roundTrip(t,
		func(b *bytes.Buffer) error { _, err := vk.WriteTo(b); return err },
		func(b *bytes.Buffer) error { _, err := vk2.ReadFrom(b); return err },
		func(b *bytes.Buffer) error { _, err := vk2.WriteTo(b); return err },
	)

	var proof2 Proof
	roundTrip(t,
		func(b *bytes.Buffer) error { _, err := proof.WriteTo(b); return err },
		func(b *bytes.Buffer) error { _, err := proof2.ReadFrom(b); return err },
		func(b *bytes.Buffer) error { _, err := proof2.WriteTo(b); return err },
	)
}

func GenG1() gopter.Gen {
	_, _, g1GenAff, _ := curve.Generators()
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		var scalar big.Int
		scalar.SetUint64(genParams.NextUint64())

		var g1 curve.G1Affine
		g1.ScalarMultiplication(&g1GenAff, &scalar)

		genResult := gopter.NewGenResult(g1, gopter.NoShrinker)
		return genResult
	}
}

func GenG2() gopter.Gen {
	_, _, _, g2GenAff := curve.Generators()
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		var scalar big.Int
		scalar.SetUint64(genParams.NextUint64())

		var g2 curve.G2Affine
		g2.ScalarMultiplication(&g2GenAff, &scalar)

		genResult := gopter.NewGenResult(g2, gopter.NoShrinker)
		return genResult
	}
}
