// Package mimc implements the statement proven by hashproof: knowledge of a
// preimage p such that MiMC(p) = h, where h is the single public variable.
//
// The preimage is framed as a fixed number of field-element blocks; the digest
// is MiMC in Miyaguchi–Preneel mode over those blocks, with the round
// constants and the native reference implementation supplied by
// gnark-crypto. The in-circuit rounds below mirror the native ones exactly:
// completeness of the proof system reduces to that equality.
package mimc

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/hashproof/cs"
)

const (
	// BlockBytes is the number of preimage bytes absorbed per field element.
	// 31 bytes always represent a value below the BN254 scalar modulus.
	BlockBytes = 31

	// NbBlocks fixes the circuit's preimage capacity
	NbBlocks = 3

	// PreimageBytes is the fixed preimage capacity. Shorter preimages are
	// right-padded with zero bytes, longer ones are rejected.
	PreimageBytes = NbBlocks * BlockBytes
)

// ErrPreimageTooLong is returned for preimages over PreimageBytes bytes
var ErrPreimageTooLong = errors.New("preimage is too long")

// HashName is the name of the public hash wire
const HashName = "hash"

// Circuit is the preimage statement MiMC(Preimage) = Hash. Hash is public;
// the preimage blocks are secret. The zero value synthesizes the shape.
type Circuit struct {
	Preimage [NbBlocks]fr.Element
	Hash     fr.Element
}

// Synthesize emits the statement into the builder. The same code serves both
// modes; the input closures are only consulted in Witness mode.
func (c *Circuit) Synthesize(b *cs.Builder) error {
	hash := b.Public(HashName, func() (fr.Element, error) { return c.Hash, nil })

	var blocks [NbBlocks]cs.LinearExpression
	for i := 0; i < NbBlocks; i++ {
		w := b.Secret(fmt.Sprintf("preimage_%d", i), func() (fr.Element, error) { return c.Preimage[i], nil })
		blocks[i] = b.FromWire(w)
	}

	constants := bn254.GetConstants()
	params := make([]fr.Element, len(constants))
	for i := range constants {
		params[i].SetBigInt(&constants[i])
	}

	// Miyaguchi–Preneel: h' = h + encrypt_h(m) + m, the XOR replaced by field
	// addition; the chaining value starts at zero
	var state cs.LinearExpression
	for i := range blocks {
		enc := encrypt(b, blocks[i], state, params)
		state = b.Add(state, enc, blocks[i])
	}

	b.AssertIsEqual(state, b.FromWire(hash))
	return nil
}

// encrypt runs the MiMC permutation on block m under chaining value key. One
// round is tmp = res + key + c[i] followed by the x^5 s-box, three constraints
// (two squares and a product); the additions fold into linear expressions.
func encrypt(b *cs.Builder, m, key cs.LinearExpression, params []fr.Element) cs.LinearExpression {
	res := m
	for i := range params {
		tmp := b.Add(res, key, b.Constant(params[i]))
		// res = (res+k+c)^5
		res = b.Mul(tmp, tmp)
		res = b.Mul(res, res)
		res = b.Mul(res, tmp)
	}
	return b.Add(res, key)
}

// Shape synthesizes the circuit in Shape mode, the form consumed by the
// trusted setup
func Shape() (*cs.R1CS, error) {
	var c Circuit
	b := cs.NewBuilder(cs.Shape)
	if err := c.Synthesize(b); err != nil {
		return nil, err
	}
	r1cs, _, err := b.Finalize()
	return r1cs, err
}

// Assign hashes the preimage natively, synthesizes the circuit in Witness
// mode and returns the system, the full wire vector and the public hash
func Assign(preimage []byte) (*cs.R1CS, []fr.Element, fr.Element, error) {
	var hash fr.Element
	bs, err := blocks(preimage)
	if err != nil {
		return nil, nil, hash, err
	}
	hash, err = Hash(preimage)
	if err != nil {
		return nil, nil, hash, err
	}

	c := Circuit{Preimage: bs, Hash: hash}
	b := cs.NewBuilder(cs.Witness)
	if err := c.Synthesize(b); err != nil {
		return nil, nil, hash, err
	}
	r1cs, w, err := b.Finalize()
	if err != nil {
		return nil, nil, hash, err
	}
	return r1cs, w, hash, nil
}

// Hash computes the reference digest of a preimage with the native MiMC
// implementation. It is the value the circuit's public hash wire takes.
func Hash(preimage []byte) (fr.Element, error) {
	var res fr.Element
	bs, err := blocks(preimage)
	if err != nil {
		return res, err
	}

	h := bn254.NewMiMC()
	for i := range bs {
		b := bs[i].Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return res, err
		}
	}
	res.SetBytes(h.Sum(nil))
	return res, nil
}

// blocks cuts a preimage into its field-element blocks, zero-padding on the
// right up to the fixed capacity
func blocks(preimage []byte) ([NbBlocks]fr.Element, error) {
	var res [NbBlocks]fr.Element
	if len(preimage) > PreimageBytes {
		return res, ErrPreimageTooLong
	}
	var buf [PreimageBytes]byte
	copy(buf[:], preimage)
	for i := 0; i < NbBlocks; i++ {
		res[i].SetBytes(buf[i*BlockBytes : (i+1)*BlockBytes])
	}
	return res, nil
}
