package groth16

import (
	"fmt"
	"math/big"
	"runtime"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/hashproof/cs"
	"github.com/consensys/hashproof/internal/utils"
	"github.com/consensys/hashproof/logger"
)

// Prove generates a proof that the witness satisfies the constraint system.
// The witness is the full wire assignment [public | secret | internal] as
// returned by the builder; its values never appear in errors nor logs.
func Prove(r *cs.R1CS, pk *ProvingKey, witness []fr.Element) (*Proof, error) {
	if pk.Fingerprint != r.Fingerprint() {
		return nil, fmt.Errorf("%w: proving key was derived for another constraint system", ErrParameterMismatch)
	}
	if len(witness) != r.NbWires {
		return nil, fmt.Errorf("%w: witness has %d wires, expected %d", ErrParameterMismatch, len(witness), r.NbWires)
	}

	log := logger.Logger().With().
		Str("curve", CurveID().String()).
		Int("nbConstraints", r.NbConstraints()).
		Str("backend", "groth16").Logger()
	start := time.Now()

	// solve the system; a, b, c hold the per-constraint inner products
	a, b, c, err := r.BuildABC(witness, int(pk.Domain.Cardinality))
	if err != nil {
		return nil, err
	}

	// quotient H = (a·b - c)/Z over a coset, in bit-reversed layout
	h := computeH(a, b, c, &pk.Domain)

	var _r, _s, _kr fr.Element
	if _, err := _r.SetRandom(); err != nil {
		return nil, err
	}
	if _, err := _s.SetRandom(); err != nil {
		return nil, err
	}
	_kr.Mul(&_r, &_s).Neg(&_kr)

	var rBig, sBig big.Int
	_r.BigInt(&rBig)
	_s.BigInt(&sBig)

	// [δr]₁, [δs]₁, [-δrs]₁
	deltas := curve.BatchScalarMultiplicationG1(&pk.G1.Delta, []fr.Element{_r, _s, _kr})

	nbTasks := runtime.NumCPU() / 2
	if nbTasks < 1 {
		nbTasks = 1
	}
	cfg := ecc.MultiExpConfig{NbTasks: nbTasks}

	// deg(H) = (n-1)+(n-1)-n = n-2; the truncation index is a fixed point of
	// the bit-reversal permutation, so it is valid in both layouts
	sizeH := int(pk.Domain.Cardinality - 1)

	var (
		ar, bs1, krs, krs2 curve.G1Jac
		bs                 curve.G2Jac
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := ar.MultiExp(pk.G1.A, witness, cfg)
		return err
	})
	g.Go(func() error {
		_, err := bs1.MultiExp(pk.G1.B, witness, cfg)
		return err
	})
	g.Go(func() error {
		_, err := bs.MultiExp(pk.G2.B, witness, cfg)
		return err
	})
	g.Go(func() error {
		_, err := krs.MultiExp(pk.G1.K, witness[r.NbPublicWires:], cfg)
		return err
	})
	g.Go(func() error {
		_, err := krs2.MultiExp(pk.G1.Z[:sizeH], h[:sizeH], cfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	proof := &Proof{}

	// Ar = [α + A(t)·w + δr]₁
	ar.AddMixed(&pk.G1.Alpha)
	ar.AddMixed(&deltas[0])
	proof.Ar.FromJacobian(&ar)

	// Bs = [β + B(t)·w + δs]₂
	var deltaS curve.G2Jac
	deltaS.FromAffine(&pk.G2.Delta)
	deltaS.ScalarMultiplication(&deltaS, &sBig)
	bs.AddAssign(&deltaS)
	bs.AddMixed(&pk.G2.Beta)
	proof.Bs.FromJacobian(&bs)

	// the G1 twin of Bs, needed for the r·Bs₁ part of Krs
	bs1.AddMixed(&pk.G1.Beta)
	bs1.AddMixed(&deltas[1])

	// Krs = [Kpk(t)·w + H(t)Z(t)/δ - δrs]₁ + s·Ar + r·Bs₁
	var p1 curve.G1Jac
	krs.AddMixed(&deltas[2])
	krs.AddAssign(&krs2)
	p1.ScalarMultiplication(&ar, &sBig)
	krs.AddAssign(&p1)
	p1.ScalarMultiplication(&bs1, &rBig)
	krs.AddAssign(&p1)
	proof.Krs.FromJacobian(&krs)

	log.Debug().Dur("took", time.Since(start)).Msg("prover done")
	return proof, nil
}

// computeH builds the quotient H = (a·b - c)/Z in evaluation form:
//  1. _a = ifft(a), _b = ifft(b), _c = ifft(c)
//  2. ca = fft_coset(_a), cb = fft_coset(_b), cc = fft_coset(_c)
//  3. h = ifft_coset(ca ∘ cb - cc)
//
// The result stays in the bit-reversed layout of the final inverse FFT, the
// layout the proving key stores [Z(t)]₁ in.
func computeH(a, b, c []fr.Element, domain *fft.Domain) []fr.Element {
	n := len(a)

	// add padding to ensure input length is domain cardinality
	padding := make([]fr.Element, int(domain.Cardinality)-n)
	a = append(a, padding...)
	b = append(b, padding...)
	c = append(c, padding...)
	n = len(a)

	domain.FFTInverse(a, fft.DIF)
	domain.FFTInverse(b, fft.DIF)
	domain.FFTInverse(c, fft.DIF)

	domain.FFT(a, fft.DIT, fft.OnCoset())
	domain.FFT(b, fft.DIT, fft.OnCoset())
	domain.FFT(c, fft.DIT, fft.OnCoset())

	var den, one fr.Element
	one.SetOne()
	den.Exp(domain.FrMultiplicativeGen, big.NewInt(int64(domain.Cardinality)))
	den.Sub(&den, &one).Inverse(&den)

	// h = ifft_coset(ca ∘ cb - cc), reusing a to avoid allocating
	utils.Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			a[i].Mul(&a[i], &b[i]).
				Sub(&a[i], &c[i]).
				Mul(&a[i], &den)
		}
	})

	domain.FFTInverse(a, fft.DIF, fft.OnCoset())

	return a
}
