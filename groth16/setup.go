package groth16

import (
	"fmt"
	"math/big"
	"math/bits"
	"time"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/consensys/hashproof/cs"
	"github.com/consensys/hashproof/logger"
)

// toxicWaste holds the secrets of the setup ceremony. They live on the setup
// stack only: cleared before Setup returns, never logged, never serialized.
type toxicWaste struct {
	t, alpha, beta, gamma, delta fr.Element
	gammaInv, deltaInv           fr.Element
}

func sampleToxicWaste(n uint64) (toxicWaste, error) {
	var tw toxicWaste
	var one, tn fr.Element
	one.SetOne()

	// t must not be a root of Xⁿ-1: Z(t) and the Lagrange denominators vanish there
	for {
		if _, err := tw.t.SetRandom(); err != nil {
			return tw, err
		}
		tn.Exp(tw.t, new(big.Int).SetUint64(n))
		if !tn.Equal(&one) {
			break
		}
	}

	// the blinding secrets must be invertible
	for _, s := range []*fr.Element{&tw.alpha, &tw.beta, &tw.gamma, &tw.delta} {
		for {
			if _, err := s.SetRandom(); err != nil {
				return tw, err
			}
			if !s.IsZero() {
				break
			}
		}
	}
	tw.gammaInv.Inverse(&tw.gamma)
	tw.deltaInv.Inverse(&tw.delta)

	return tw, nil
}

func (tw *toxicWaste) clear() {
	tw.t.SetZero()
	tw.alpha.SetZero()
	tw.beta.SetZero()
	tw.gamma.SetZero()
	tw.delta.SetZero()
	tw.gammaInv.SetZero()
	tw.deltaInv.SetZero()
}

// Setup runs the trusted setup for the given constraint system and returns a
// fresh proving key / verifying key pair. Both keys carry the fingerprint of
// the constraint system they were derived for.
func Setup(r *cs.R1CS) (*ProvingKey, *VerifyingKey, error) {
	if r.NbConstraints() == 0 {
		return nil, nil, fmt.Errorf("%w: empty constraint system", ErrSetupFailure)
	}

	log := logger.Logger().With().
		Str("curve", CurveID().String()).
		Int("nbConstraints", r.NbConstraints()).
		Str("backend", "groth16").Logger()
	start := time.Now()

	domain := fft.NewDomain(uint64(r.NbConstraints()))
	n := int(domain.Cardinality)
	nbWires := r.NbWires
	nbPublic := r.NbPublicWires

	tw, err := sampleToxicWaste(domain.Cardinality)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sampling randomness: %v", ErrSetupFailure, err)
	}
	defer tw.clear()

	A, B, C := setupABC(r, domain, &tw)

	// Kvk[i] = (β·A[i] + α·B[i] + C[i]) / γ for the public wires,
	// Kpk[i] = (β·A[i] + α·B[i] + C[i]) / δ for the private ones
	vkK := make([]fr.Element, nbPublic)
	pkK := make([]fr.Element, nbWires-nbPublic)
	computeK := func(i int, inv *fr.Element) fr.Element {
		var res, bA fr.Element
		bA.Mul(&A[i], &tw.beta)
		res.Mul(&B[i], &tw.alpha).
			Add(&res, &bA).
			Add(&res, &C[i]).
			Mul(&res, inv)
		return res
	}
	for i := 0; i < nbPublic; i++ {
		vkK[i] = computeK(i, &tw.gammaInv)
	}
	for i := nbPublic; i < nbWires; i++ {
		pkK[i-nbPublic] = computeK(i, &tw.deltaInv)
	}

	// Z[i] = tⁱ·(tⁿ-1)/δ
	Z := make([]fr.Element, n)
	var zdt, one fr.Element
	one.SetOne()
	zdt.Exp(tw.t, new(big.Int).SetUint64(domain.Cardinality)).
		Sub(&zdt, &one).
		Mul(&zdt, &tw.deltaInv)
	for i := 0; i < n; i++ {
		Z[i] = zdt
		zdt.Mul(&zdt, &tw.t)
	}

	_, _, g1, g2 := curve.Generators()

	// one batched scalar multiplication per group for all the points
	g1Scalars := make([]fr.Element, 0, 3+2*nbWires+n+len(pkK)+len(vkK))
	g1Scalars = append(g1Scalars, tw.alpha, tw.beta, tw.delta)
	g1Scalars = append(g1Scalars, A...)
	g1Scalars = append(g1Scalars, B...)
	g1Scalars = append(g1Scalars, Z...)
	g1Scalars = append(g1Scalars, pkK...)
	g1Scalars = append(g1Scalars, vkK...)
	g1Points := curve.BatchScalarMultiplicationG1(&g1, g1Scalars)

	pk := &ProvingKey{Domain: *domain, Fingerprint: r.Fingerprint()}
	vk := &VerifyingKey{Fingerprint: pk.Fingerprint}

	pk.G1.Alpha = g1Points[0]
	pk.G1.Beta = g1Points[1]
	pk.G1.Delta = g1Points[2]
	offset := 3
	pk.G1.A = g1Points[offset : offset+nbWires]
	offset += nbWires
	pk.G1.B = g1Points[offset : offset+nbWires]
	offset += nbWires
	pk.G1.Z = g1Points[offset : offset+n]
	offset += n
	// same layout as the quotient coming out of the prover's inverse FFT
	bitReverseG1(pk.G1.Z)
	pk.G1.K = g1Points[offset : offset+len(pkK)]
	offset += len(pkK)
	vk.G1.K = g1Points[offset:]
	vk.G1.Alpha = pk.G1.Alpha

	g2Scalars := make([]fr.Element, 0, 3+nbWires)
	g2Scalars = append(g2Scalars, tw.beta, tw.gamma, tw.delta)
	g2Scalars = append(g2Scalars, B...)
	g2Points := curve.BatchScalarMultiplicationG2(&g2, g2Scalars)

	pk.G2.Beta = g2Points[0]
	pk.G2.Delta = g2Points[2]
	pk.G2.B = g2Points[3:]
	vk.G2.Beta = g2Points[0]
	vk.G2.Gamma = g2Points[1]
	vk.G2.Delta = g2Points[2]

	vk.PublicNames = append([]string(nil), r.PublicNames...)
	if err := vk.Precompute(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSetupFailure, err)
	}

	log.Debug().Dur("took", time.Since(start)).Uint64("domain", domain.Cardinality).Msg("setup done")
	return pk, vk, nil
}

// setupABC evaluates the left, right and output polynomials of the constraint
// system at the secret point t, one evaluation per wire. The Lagrange basis is
// walked incrementally over the constraints:
//
//	L₀(t)   = (tⁿ-1) / (n·(t-1))
//	Lᵢ₊₁(t) = Lᵢ(t) · ω · (t-ωⁱ) / (t-ωⁱ⁺¹)
func setupABC(r *cs.R1CS, domain *fft.Domain, tw *toxicWaste) (A, B, C []fr.Element) {
	A = make([]fr.Element, r.NbWires)
	B = make([]fr.Element, r.NbWires)
	C = make([]fr.Element, r.NbWires)

	var one fr.Element
	one.SetOne()

	var L, tmp fr.Element
	L.Exp(tw.t, new(big.Int).SetUint64(domain.Cardinality)).
		Sub(&L, &one).
		Mul(&L, &domain.CardinalityInv)
	tmp.Sub(&tw.t, &one)
	L.Div(&L, &tmp)

	w := domain.Generator
	var wi fr.Element
	wi.SetOne()

	accumulate := func(dst []fr.Element, lexp cs.LinearExpression) {
		var ct fr.Element
		for _, term := range lexp {
			ct.Mul(&r.Coefficients[term.CoeffID()], &L)
			i := r.WireIndex(term)
			dst[i].Add(&dst[i], &ct)
		}
	}

	for _, c := range r.Constraints {
		accumulate(A, c.L)
		accumulate(B, c.R)
		accumulate(C, c.O)

		L.Mul(&L, &w)
		tmp.Sub(&tw.t, &wi)
		L.Mul(&L, &tmp)
		wi.Mul(&wi, &w)
		tmp.Sub(&tw.t, &wi)
		L.Div(&L, &tmp)
	}

	return
}

func bitReverseG1(a []curve.G1Affine) {
	n := uint64(len(a))
	nn := uint64(64 - bits.TrailingZeros64(n))

	for i := uint64(0); i < n; i++ {
		irev := bits.Reverse64(i) >> nn
		if irev > i {
			a[i], a[irev] = a[irev], a[i]
		}
	}
}
