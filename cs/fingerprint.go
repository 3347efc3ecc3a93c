package cs

import (
	"github.com/icza/bitio"
	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the SHA3-256 digest of a canonical description of the
// system's shape: wire counts and names, the coefficient table, and every term
// of every constraint, bit-packed in synthesis order.
//
// Artifacts embed the fingerprint of the shape they were produced from, so a
// binary whose circuit synthesizes a different shape fails fast at load time
// instead of producing or accepting garbage proofs.
func (r *R1CS) Fingerprint() [32]byte {
	h := sha3.New256()
	w := bitio.NewWriter(h)

	w.TryWriteBits(uint64(r.NbPublicWires), 32)
	w.TryWriteBits(uint64(r.NbSecretWires), 32)
	w.TryWriteBits(uint64(r.NbInternalWires), 32)

	writeName := func(s string) {
		w.TryWriteBits(uint64(len(s)), 16)
		w.TryWrite([]byte(s))
	}
	for _, n := range r.PublicNames {
		writeName(n)
	}
	for _, n := range r.SecretNames {
		writeName(n)
	}

	w.TryWriteBits(uint64(len(r.Coefficients)), 32)
	for i := range r.Coefficients {
		b := r.Coefficients[i].Bytes()
		w.TryWrite(b[:])
	}

	writeLexp := func(l LinearExpression) {
		w.TryWriteBits(uint64(len(l)), 16)
		for _, t := range l {
			w.TryWriteBits(uint64(t), 64)
		}
	}
	w.TryWriteBits(uint64(len(r.Constraints)), 32)
	for _, c := range r.Constraints {
		writeLexp(c.L)
		writeLexp(c.R)
		writeLexp(c.O)
	}

	w.TryAlign()
	if w.TryError != nil {
		// writing into a hash cannot fail
		panic(w.TryError)
	}

	var fp [32]byte
	h.Sum(fp[:0])
	return fp
}
