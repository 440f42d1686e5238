package analysis

import (
	"math"
	"testing"
)

func TestDifficulty(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{3, 4, 0.75},
		{0, 10, 0},
		{10, 10, 1},
		{5, 0, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		got := Difficulty(tt.correct, tt.total)
		if got != tt.want {
			t.Errorf("Difficulty(%d, %d) = %f, want %f", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestGroupSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 1},
		{10, 3},
		{37, 10},
		{100, 27},
	}
	for _, tt := range tests {
		got := GroupSize(tt.n)
		if got != tt.want {
			t.Errorf("GroupSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}

	// The two groups must never overlap.
	for n := 1; n <= 200; n++ {
		if k := GroupSize(n); 2*k > n && n >= 2 {
			t.Errorf("GroupSize(%d) = %d, groups would overlap", n, k)
		}
	}
}

func TestDiscrimination(t *testing.T) {
	if got := Discrimination(8, 10, 2, 10); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Discrimination(8, 10, 2, 10) = %f, want 0.6", got)
	}
	if got := Discrimination(0, 10, 10, 10); got != -1 {
		t.Errorf("Discrimination(0, 10, 10, 10) = %f, want -1", got)
	}
	// Empty groups contribute 0 rather than NaN.
	if got := Discrimination(0, 0, 0, 0); got != 0 {
		t.Errorf("Discrimination(0, 0, 0, 0) = %f, want 0", got)
	}
}

func TestPointBiserial(t *testing.T) {
	// Perfect separation: correct responders score 3, incorrect score 1.
	got := PointBiserial([]bool{true, true, false, false}, []float64{3, 3, 1, 1})
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("PointBiserial(perfect separation) = %f, want 1", got)
	}

	// No outcome variance.
	if got := PointBiserial([]bool{true, true}, []float64{1, 2}); got != 0 {
		t.Errorf("PointBiserial(all correct) = %f, want 0", got)
	}
	if got := PointBiserial([]bool{false, false}, []float64{1, 2}); got != 0 {
		t.Errorf("PointBiserial(all incorrect) = %f, want 0", got)
	}

	// No score variance.
	if got := PointBiserial([]bool{true, false}, []float64{5, 5}); got != 0 {
		t.Errorf("PointBiserial(constant scores) = %f, want 0", got)
	}

	if got := PointBiserial(nil, nil); got != 0 {
		t.Errorf("PointBiserial(empty) = %f, want 0", got)
	}
}

func TestChiSquare2x2(t *testing.T) {
	// Perfect association: chi-square equals n.
	if got := ChiSquare2x2(10, 0, 0, 10); math.Abs(got-20) > 1e-9 {
		t.Errorf("ChiSquare2x2(10, 0, 0, 10) = %f, want 20", got)
	}

	// Independence: identical proportions in both rows.
	if got := ChiSquare2x2(5, 5, 5, 5); got != 0 {
		t.Errorf("ChiSquare2x2(5, 5, 5, 5) = %f, want 0", got)
	}

	// Zero marginals make the test undefined.
	if got := ChiSquare2x2(0, 0, 3, 7); got != 0 {
		t.Errorf("ChiSquare2x2(empty row) = %f, want 0", got)
	}
	if got := ChiSquare2x2(0, 5, 0, 5); got != 0 {
		t.Errorf("ChiSquare2x2(empty column) = %f, want 0", got)
	}
	if got := ChiSquare2x2(0, 0, 0, 0); got != 0 {
		t.Errorf("ChiSquare2x2(empty table) = %f, want 0", got)
	}
}

func TestChiSquarePValue(t *testing.T) {
	// The p-value at the 95% critical value should be ~0.05.
	if got := ChiSquarePValue(3.841); math.Abs(got-0.05) > 0.001 {
		t.Errorf("ChiSquarePValue(3.841) = %f, want ~0.05", got)
	}
	if got := ChiSquarePValue(6.635); math.Abs(got-0.01) > 0.001 {
		t.Errorf("ChiSquarePValue(6.635) = %f, want ~0.01", got)
	}
	if got := ChiSquarePValue(0); got != 1 {
		t.Errorf("ChiSquarePValue(0) = %f, want 1", got)
	}
	if got := ChiSquarePValue(-2); got != 1 {
		t.Errorf("ChiSquarePValue(-2) = %f, want 1", got)
	}
}

func TestChiSquareCritical(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0.90, 2.706},
		{0.95, 3.841},
		{0.99, 6.635},
		{0.50, 3.841},
	}
	for _, tt := range tests {
		got := ChiSquareCritical(tt.level)
		if got != tt.want {
			t.Errorf("ChiSquareCritical(%f) = %f, want %f", tt.level, got, tt.want)
		}
	}
}

func TestProportionInterval(t *testing.T) {
	lower, upper, ok := ProportionInterval(0.5, 100, 0.95)
	if !ok {
		t.Fatal("ProportionInterval(0.5, 100, 0.95) ok = false, want true")
	}
	if math.Abs(lower-0.402) > 1e-9 || math.Abs(upper-0.598) > 1e-9 {
		t.Errorf("ProportionInterval(0.5, 100, 0.95) = (%f, %f), want (0.402, 0.598)", lower, upper)
	}

	// Bounds clamp to [0, 1].
	lower, upper, _ = ProportionInterval(0.99, 10, 0.95)
	if upper > 1 {
		t.Errorf("ProportionInterval upper = %f, want <= 1", upper)
	}
	lower, _, _ = ProportionInterval(0.01, 10, 0.95)
	if lower < 0 {
		t.Errorf("ProportionInterval lower = %f, want >= 0", lower)
	}

	if _, _, ok := ProportionInterval(0.5, 4, 0.95); ok {
		t.Error("ProportionInterval(n=4) ok = true, want false")
	}
}

func TestDescriptiveStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := Mean(values); got != 5 {
		t.Errorf("Mean = %f, want 5", got)
	}
	if got := StdDev(values); math.Abs(got-2) > 1e-9 {
		t.Errorf("StdDev = %f, want 2", got)
	}
	if got := Median(values); got != 4.5 {
		t.Errorf("Median = %f, want 4.5", got)
	}
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("Median(odd) = %f, want 2", got)
	}

	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(empty) = %f, want 0", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(empty) = %f, want 0", got)
	}
}

func TestQuartiles(t *testing.T) {
	got := Quartiles([]float64{5, 1, 3, 2, 4})
	want := [3]float64{2, 3, 4}
	if got != want {
		t.Errorf("Quartiles = %v, want %v", got, want)
	}

	// Interpolated ranks.
	got = Quartiles([]float64{1, 2, 3, 4})
	want = [3]float64{1.75, 2.5, 3.25}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Quartiles[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSkewness(t *testing.T) {
	if got := Skewness([]float64{1, 2}); got != nil {
		t.Errorf("Skewness(n=2) = %v, want nil", *got)
	}
	if got := Skewness([]float64{3, 3, 3}); got != nil {
		t.Errorf("Skewness(zero variance) = %v, want nil", *got)
	}

	got := Skewness([]float64{1, 2, 3})
	if got == nil {
		t.Fatal("Skewness(symmetric) = nil, want 0")
	}
	if math.Abs(*got) > 1e-9 {
		t.Errorf("Skewness(symmetric) = %f, want 0", *got)
	}
}

func TestKurtosis(t *testing.T) {
	if got := Kurtosis([]float64{1, 2, 3}); got != nil {
		t.Errorf("Kurtosis(n=3) = %v, want nil", *got)
	}
	if got := Kurtosis([]float64{5, 5, 5, 5}); got != nil {
		t.Errorf("Kurtosis(zero variance) = %v, want nil", *got)
	}

	// Two-point symmetric distribution has excess kurtosis -2.
	got := Kurtosis([]float64{-1, -1, 1, 1})
	if got == nil {
		t.Fatal("Kurtosis = nil, want -2")
	}
	if math.Abs(*got-(-2)) > 1e-9 {
		t.Errorf("Kurtosis = %f, want -2", *got)
	}
}
