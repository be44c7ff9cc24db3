//Package chemstat estimates the correlation time of a series of samples from a
//simulation, and from it, the statistical error of the mean of the series.
package chemstat

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func cmplxMulConj(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex conjugate multiplication of slices: Both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

//CrossCorr returns the normalized cross-correlation of c1 and c2, which must have the
//same length n, for the lags 0 to n-1. Element k is the covariance of c1[i] and c2[i+k]
//divided by the product of the standard deviations. If dst is given and has capacity
//for n values, it is used. A constant series correlates to 0 with anything.
func CrossCorr(c1, c2 []float64, dst ...[]float64) []float64 {
	n := len(c1)
	if len(c2) != n {
		panic(fmt.Sprintf("CrossCorr: Both series should have the same len %d, %d", n, len(c2)))
	}
	var ret []float64
	if len(dst) > 0 && cap(dst[0]) >= n {
		ret = dst[0][:n]
	} else {
		ret = make([]float64, n)
	}
	if n == 0 {
		return ret
	}
	c1mean, c1std := stat.PopMeanStdDev(c1, nil)
	c2mean, c2std := stat.PopMeanStdDev(c2, nil)
	if c1std == 0 || c2std == 0 {
		for i := range ret {
			ret[i] = 0
		}
		return ret
	}
	//zero-padding to 2n avoids the wrap-around of the circular correlation.
	c1pad := make([]complex128, 2*n)
	c2pad := make([]complex128, 2*n)
	for i, v := range c1 {
		c1pad[i] = complex(v-c1mean, 0)
		c2pad[i] = complex(c2[i]-c2mean, 0)
	}
	f := fourier.NewCmplxFFT(len(c1pad))
	f.Coefficients(c1pad, c1pad)
	f.Coefficients(c2pad, c2pad)
	cmplxMulConj(c2pad, c1pad)
	f.Sequence(c2pad, c2pad)
	norm := 1 / (float64(len(c2pad)) * float64(n) * c1std * c2std)
	for i := range ret {
		ret[i] = real(c2pad[i]) * norm
	}
	return ret
}

//AutoCorr returns the normalized autocorrelation of c for the lags 0 to len(c)-1.
func AutoCorr(c []float64, dst ...[]float64) []float64 {
	return CrossCorr(c, c, dst...)
}

//Inefficiency returns the statistical inefficiency of the series, 1 plus twice the
//integrated autocorrelation, summed until the autocorrelation first drops to zero.
//Uncorrelated samples give 1.
func Inefficiency(c []float64) float64 {
	n := len(c)
	if n < 2 {
		return 1
	}
	ac := AutoCorr(c)
	g := 1.0
	for k := 1; k < n; k++ {
		if ac[k] <= 0 {
			break
		}
		g += 2 * ac[k] * (1 - float64(k)/float64(n))
	}
	return math.Max(g, 1)
}

//MeanErr returns the mean of the series and the standard error of that mean,
//corrected for the correlation between samples.
func MeanErr(c []float64) (mean, stderr float64) {
	if len(c) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, sd := stat.PopMeanStdDev(c, nil)
	stderr = sd * math.Sqrt(Inefficiency(c)/float64(len(c)))
	return
}
