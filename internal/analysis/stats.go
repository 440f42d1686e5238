package analysis

import (
	"math"
	"sort"
)

// Pure statistics helpers. Every function takes explicit arguments and holds
// no state, so per-question computations can run independently. Degenerate
// inputs (empty samples, zero variance) normalize to 0 rather than letting
// NaN or Inf leak into output.

// Difficulty returns the proportion of responders who answered correctly.
func Difficulty(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// upperLowerFraction is the classical item-analysis split: the top and
// bottom ~27% of students by total score.
const upperLowerFraction = 0.27

// GroupSize returns the number of students in each of the upper and lower
// groups for a cohort of n, never less than 1 for a non-empty cohort.
func GroupSize(n int) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Round(upperLowerFraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n/2 && n >= 2 {
		k = n / 2
	}
	return k
}

// Discrimination computes the upper-lower discrimination index:
// (proportion correct in the upper group) - (proportion correct in the
// lower group). Empty groups contribute 0.
func Discrimination(upperCorrect, upperTotal, lowerCorrect, lowerTotal int) float64 {
	var pu, pl float64
	if upperTotal > 0 {
		pu = float64(upperCorrect) / float64(upperTotal)
	}
	if lowerTotal > 0 {
		pl = float64(lowerCorrect) / float64(lowerTotal)
	}
	return pu - pl
}

// PointBiserial computes the point-biserial correlation between a binary
// outcome and the paired scores: r = (M1-M0)/S * sqrt(p*q), with S the
// population standard deviation of all scores. Returns 0 when the outcome
// or the scores have no variance.
func PointBiserial(outcomes []bool, scores []float64) float64 {
	n := len(outcomes)
	if n == 0 || n != len(scores) {
		return 0
	}
	var sum1, sum0 float64
	var n1 int
	for i, hit := range outcomes {
		if hit {
			sum1 += scores[i]
			n1++
		} else {
			sum0 += scores[i]
		}
	}
	n0 := n - n1
	if n1 == 0 || n0 == 0 {
		return 0
	}
	sd := StdDev(scores)
	if sd == 0 {
		return 0
	}
	m1 := sum1 / float64(n1)
	m0 := sum0 / float64(n0)
	p := float64(n1) / float64(n)
	r := (m1 - m0) / sd * math.Sqrt(p*(1-p))
	return clampRange(r, -1, 1)
}

// ChiSquare2x2 computes the chi-square statistic (1 degree of freedom) for
// the independence of a 2x2 contingency table:
//
//	            correct  incorrect
//	upper group   a         b
//	lower group   c         d
//
// Returns 0 when any marginal total is zero (the test is undefined).
func ChiSquare2x2(a, b, c, d int) float64 {
	n := a + b + c + d
	if n == 0 {
		return 0
	}
	row1 := a + b
	row2 := c + d
	col1 := a + c
	col2 := b + d
	if row1 == 0 || row2 == 0 || col1 == 0 || col2 == 0 {
		return 0
	}
	diff := float64(a*d - b*c)
	return float64(n) * diff * diff / (float64(row1) * float64(row2) * float64(col1) * float64(col2))
}

// ChiSquarePValue returns the upper-tail probability of a chi-square
// variable with 1 degree of freedom exceeding x, via the identity
// P(X > x) = erfc(sqrt(x/2)).
func ChiSquarePValue(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return math.Erfc(math.Sqrt(x / 2))
}

// ChiSquareCritical returns the 1-df critical value for the given
// confidence level. Unknown levels fall back to 95%.
func ChiSquareCritical(confidenceLevel float64) float64 {
	switch {
	case confidenceLevel >= 0.99:
		return 6.635
	case confidenceLevel >= 0.95:
		return 3.841
	case confidenceLevel >= 0.90:
		return 2.706
	default:
		return 3.841
	}
}

// zCritical returns the two-sided normal critical value for the given
// confidence level, used for the difficulty confidence interval.
func zCritical(confidenceLevel float64) float64 {
	switch {
	case confidenceLevel >= 0.99:
		return 2.576
	case confidenceLevel >= 0.95:
		return 1.96
	case confidenceLevel >= 0.90:
		return 1.645
	default:
		return 1.96
	}
}

// ProportionInterval returns the normal-approximation confidence interval
// for a proportion p out of n trials, clamped to [0,1]. Returns ok=false
// when n is too small for the approximation to be meaningful.
func ProportionInterval(p float64, n int, confidenceLevel float64) (lower, upper float64, ok bool) {
	if n < 5 {
		return 0, 0, false
	}
	z := zCritical(confidenceLevel)
	half := z * math.Sqrt(p*(1-p)/float64(n))
	return clampRange(p-half, 0, 1), clampRange(p+half, 0, 1), true
}

// ── Descriptive statistics ────────────────────────────

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Quartiles returns Q1, Q2, Q3 using linear interpolation between order
// statistics.
func Quartiles(values []float64) [3]float64 {
	if len(values) == 0 {
		return [3]float64{}
	}
	sorted := sortedCopy(values)
	return [3]float64{
		percentile(sorted, 0.25),
		percentile(sorted, 0.50),
		percentile(sorted, 0.75),
	}
}

// Skewness returns the population skewness, or nil when fewer than 3 values
// or zero variance make the estimate meaningless.
func Skewness(values []float64) *float64 {
	n := len(values)
	if n < 3 {
		return nil
	}
	sd := StdDev(values)
	if sd == 0 {
		return nil
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := (v - mean) / sd
		sum += d * d * d
	}
	s := sum / float64(n)
	return &s
}

// Kurtosis returns the population excess kurtosis, or nil when fewer than 4
// values or zero variance make the estimate meaningless.
func Kurtosis(values []float64) *float64 {
	n := len(values)
	if n < 4 {
		return nil
	}
	sd := StdDev(values)
	if sd == 0 {
		return nil
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := (v - mean) / sd
		sum += d * d * d * d
	}
	k := sum/float64(n) - 3
	return &k
}

func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
