// Package polyroot finds the roots of real polynomials of low degree.
package polyroot

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Kind classifies the root set returned by Solve.
type Kind int

const (
	// NoRoots is returned for a nonzero constant polynomial.
	NoRoots Kind = iota
	// AllReal means every root has a zero imaginary part.
	AllReal
	// AllComplex means no root is real.
	AllComplex
	// Mixed means at least one real and at least one complex root.
	Mixed
	// Infinite is returned for the zero polynomial, which every value satisfies.
	Infinite
)

func (k Kind) String() string {
	switch k {
	case NoRoots:
		return "no roots"
	case AllReal:
		return "all real"
	case AllComplex:
		return "all complex"
	case Mixed:
		return "mixed"
	case Infinite:
		return "infinite"
	}
	return "unknown"
}

const (
	// imaginary parts below this, relative to the root magnitude, are snapped to zero
	realTolerance = 1e-7
	newtonSteps   = 4
)

// Solve returns the roots of the polynomial with the given coefficients, highest degree first.
// Leading zero coefficients are dropped. Linear and quadratic polynomials are solved in closed
// form; higher degrees use the eigenvalues of the companion matrix, polished with Newton steps.
// Real roots come first in ascending order, followed by the complex roots.
func Solve(coeffs ...float64) (Kind, []complex128) {
	for len(coeffs) > 0 && coeffs[0] == 0 {
		coeffs = coeffs[1:]
	}
	switch len(coeffs) {
	case 0:
		return Infinite, nil
	case 1:
		return NoRoots, nil
	}

	var roots []complex128
	switch degree := len(coeffs) - 1; degree {
	case 1:
		roots = []complex128{complex(-coeffs[1]/coeffs[0], 0)}
	case 2:
		roots = quadratic(coeffs[0], coeffs[1], coeffs[2])
	default:
		var ok bool
		roots, ok = companionRoots(coeffs)
		if !ok {
			return NoRoots, nil
		}
		for i := range roots {
			roots[i] = polish(coeffs, roots[i])
		}
	}
	return classify(roots)
}

// RealRoots returns the real parts of the roots whose imaginary part is within tol of zero.
func RealRoots(roots []complex128, tol float64) []float64 {
	var out []float64
	for _, r := range roots {
		if math.Abs(imag(r)) <= tol {
			out = append(out, real(r))
		}
	}
	return out
}

// Eval evaluates the polynomial at x using Horner's rule.
func Eval(coeffs []float64, x float64) float64 {
	var y float64
	for _, c := range coeffs {
		y = y*x + c
	}
	return y
}

func quadratic(a, b, c float64) []complex128 {
	disc := b*b - 4*a*c
	if disc < 0 {
		re := -b / (2 * a)
		im := math.Sqrt(-disc) / (2 * math.Abs(a))
		return []complex128{complex(re, -im), complex(re, im)}
	}
	// avoid cancellation between -b and the square root
	q := -0.5 * (b + math.Copysign(math.Sqrt(disc), b))
	if q == 0 {
		return []complex128{0, 0}
	}
	return []complex128{complex(q/a, 0), complex(c/q, 0)}
}

func companionRoots(coeffs []float64) ([]complex128, bool) {
	n := len(coeffs) - 1
	data := make([]float64, n*n)
	for j := 0; j < n; j++ {
		data[j] = -coeffs[j+1] / coeffs[0]
	}
	for i := 1; i < n; i++ {
		data[i*n+i-1] = 1
	}
	var eig mat.Eigen
	if ok := eig.Factorize(mat.NewDense(n, n, data), mat.EigenNone); !ok {
		return nil, false
	}
	return eig.Values(nil), true
}

func polish(coeffs []float64, z complex128) complex128 {
	p, dp := evalComplex(coeffs, z)
	for i := 0; i < newtonSteps && p != 0 && dp != 0; i++ {
		next := z - p/dp
		np, ndp := evalComplex(coeffs, next)
		if cmplx.Abs(np) >= cmplx.Abs(p) {
			break
		}
		z, p, dp = next, np, ndp
	}
	return z
}

// evalComplex returns p(z) and p'(z).
func evalComplex(coeffs []float64, z complex128) (complex128, complex128) {
	var p, dp complex128
	for _, c := range coeffs {
		dp = dp*z + p
		p = p*z + complex(c, 0)
	}
	return p, dp
}

func classify(roots []complex128) (Kind, []complex128) {
	numReal := 0
	for i, r := range roots {
		if math.Abs(imag(r)) <= realTolerance*math.Max(1, cmplx.Abs(r)) {
			roots[i] = complex(real(r), 0)
			numReal++
		}
	}
	slices.SortFunc(roots, func(a, b complex128) int {
		aReal, bReal := imag(a) == 0, imag(b) == 0
		switch {
		case aReal && !bReal:
			return -1
		case !aReal && bReal:
			return 1
		}
		if c := cmp.Compare(real(a), real(b)); c != 0 {
			return c
		}
		return cmp.Compare(imag(a), imag(b))
	})
	switch numReal {
	case len(roots):
		return AllReal, roots
	case 0:
		return AllComplex, roots
	default:
		return Mixed, roots
	}
}
