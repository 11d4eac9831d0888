package finance

import (
	"errors"
	"testing"

	"github.com/wyfcoding/optionlab/algorithm/types"
	"github.com/wyfcoding/optionlab/xerrors"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for _, side := range []types.OptionSide{types.OptionSideCall, types.OptionSidePut} {
		for _, vol := range []float64{0.08, 0.28, 0.9} {
			s := otmCall
			s.Volatility = vol
			iv, err := ImpliedVolatility(side, s, Price(side, s))
			if err != nil {
				t.Fatalf("%s vol=%v: %v", side, vol, err)
			}
			if !near(iv, vol, 1e-6) {
				t.Errorf("%s: recovered %v, want %v", side, iv, vol)
			}
		}
	}
}

func TestImpliedVolatilityRejectsArbitrage(t *testing.T) {
	_, err := ImpliedVolatility(types.OptionSideCall, otmCall, otmCall.Spot+1)
	if !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	expired := otmCall
	expired.TimeToExpiry = 0
	if _, err := ImpliedVolatility(types.OptionSideCall, expired, 1); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("expired err = %v", err)
	}
}

func TestEstimateIVFromBeta(t *testing.T) {
	b := func(v float64) *float64 { return &v }
	tests := []struct {
		beta *float64
		want float64
	}{
		{nil, 20},
		{b(1), 20},
		{b(1.5), 27.5},
		{b(0), 15},
		{b(6), 80},
	}
	for _, tt := range tests {
		if got := EstimateIVFromBeta(tt.beta); got != tt.want {
			t.Errorf("EstimateIVFromBeta(%v) = %v, want %v", tt.beta, got, tt.want)
		}
	}
}

func TestClampInputs(t *testing.T) {
	tt, sigma := ClampInputs(0, 0.005, 0.001, 0.01)
	if tt != 0.001 || sigma != 0.01 {
		t.Errorf("clamped = (%v, %v)", tt, sigma)
	}
	tt, sigma = ClampInputs(0.5, 0.3, 0.001, 0.01)
	if tt != 0.5 || sigma != 0.3 {
		t.Errorf("unchanged = (%v, %v)", tt, sigma)
	}
}
