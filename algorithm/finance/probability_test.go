package finance

import (
	"math"
	"testing"
)

func TestLogNormalModel(t *testing.T) {
	if got := LogMean(100, 1, 0, 0.2); !near(got, math.Log(100)-0.02, 1e-15) {
		t.Errorf("LogMean = %v", got)
	}
	if got := LogStd(4, 0.25); got != 0.5 {
		t.Errorf("LogStd = %v, want 0.5", got)
	}
	if got := ProbBelow(100, 100, 1, 0, 0.2); !near(got, 0.5398278372770281, 1e-12) {
		t.Errorf("ProbBelow(S) = %v", got)
	}
	if got := Density(100, 100, 1, 0, 0.2); !near(got, 0.019847627373850596, 1e-14) {
		t.Errorf("Density(S) = %v", got)
	}
}

func TestProbabilityComplement(t *testing.T) {
	for _, target := range []float64{50, 90, 100, 130, 250} {
		below := ProbBelow(target, 100, 0.5, 0.03, 0.4)
		above := ProbAbove(target, 100, 0.5, 0.03, 0.4)
		if !near(below+above, 1, 1e-12) {
			t.Errorf("below+above at %v = %v", target, below+above)
		}
		if below < 0 || below > 1 {
			t.Errorf("ProbBelow(%v) = %v out of [0,1]", target, below)
		}
	}

	between := ProbBetween(90, 110, 100, 0.5, 0.03, 0.4)
	want := ProbBelow(110, 100, 0.5, 0.03, 0.4) - ProbBelow(90, 100, 0.5, 0.03, 0.4)
	if between != want || between <= 0 {
		t.Errorf("ProbBetween = %v, want %v", between, want)
	}
}

func TestProbabilityDegenerate(t *testing.T) {
	if got := ProbBelow(101, 100, 0, 0.05, 0.3); got != 1 {
		t.Errorf("point mass below higher target = %v, want 1", got)
	}
	if got := ProbBelow(100, 100, 0, 0.05, 0.3); got != 0 {
		t.Errorf("point mass below equal target = %v, want 0", got)
	}
	if got := ProbBelow(99, 100, 1, 0.05, 0); got != 0 {
		t.Errorf("zero vol below lower target = %v, want 0", got)
	}
	if got := Density(100, 100, 0, 0.05, 0.3); got != 0 {
		t.Errorf("degenerate density = %v, want 0", got)
	}
	if got := Density(0, 100, 1, 0.05, 0.3); got != 0 {
		t.Errorf("density at zero price = %v, want 0", got)
	}
}

func TestSigmaBands(t *testing.T) {
	b := SigmaBands(100, 1, 0, 0.2)
	if !near(b.Plus1, 119.72173631218114, 1e-9) || !near(b.Minus1, 80.2518797962479, 1e-9) {
		t.Errorf("±1σ = (%v, %v)", b.Minus1, b.Plus1)
	}
	if !(b.Minus2 < b.Minus1 && b.Minus1 < b.Plus1 && b.Plus1 < b.Plus2) {
		t.Errorf("bands not ordered: %+v", b)
	}
	if PriceAtSigma(100, 1, 0, 0.2, 0) != math.Exp(LogMean(100, 1, 0, 0.2)) {
		t.Error("PriceAtSigma(0) must equal the median")
	}
}

func TestCrossoverPrice(t *testing.T) {
	v, ok := CrossoverPrice(175, 180, 2.40, 57.14, 200)
	if !ok {
		t.Fatalf("expected crossover, got (%v, false)", v)
	}
	if !near(v, 185.3597928041439, 1e-9) || v <= 182.4 {
		t.Errorf("crossover = %v", v)
	}

	if _, ok := CrossoverPrice(175, 180, 2.40, 200, 200); ok {
		t.Error("equal share counts must have no crossover")
	}
	if v, ok := CrossoverPrice(100, 100, 5, 200, 100); ok {
		t.Errorf("crossover %v below breakeven must be rejected", v)
	}
}
