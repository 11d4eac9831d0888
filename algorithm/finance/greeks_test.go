package finance

import (
	"testing"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

func TestGreeksClosedForm(t *testing.T) {
	call := Greeks(types.OptionSideCall, otmCall)
	put := Greeks(types.OptionSidePut, otmCall)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"call delta", call.Delta, 0.39758439891773545},
		{"put delta", put.Delta, -0.6024156010822646},
		{"gamma", call.Gamma, 0.027457769309841725},
		{"vega", call.Vega, 0.19352085356045987},
		{"call theta", call.Theta, -0.09932129973013129},
		{"put theta", put.Theta, -0.07476488988389063},
		{"call rho", call.Rho, 0.054069408411500014},
		{"put rho", put.Rho, -0.0932690506659439},
	}
	for _, c := range checks {
		if !near(c.got, c.want, 1e-10) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if put.Gamma != call.Gamma || put.Vega != call.Vega {
		t.Error("gamma and vega must not depend on side")
	}
}

func TestGreeksSingleFunctionsMatchSnapshot(t *testing.T) {
	for _, side := range []types.OptionSide{types.OptionSideCall, types.OptionSidePut} {
		g := Greeks(side, atmYear)
		if Delta(side, atmYear) != g.Delta || Gamma(atmYear) != g.Gamma || Theta(side, atmYear) != g.Theta ||
			Vega(atmYear) != g.Vega || Rho(side, atmYear) != g.Rho {
			t.Errorf("%s: single Greek functions disagree with snapshot %+v", side, g)
		}
	}
	if !near(Delta(types.OptionSideCall, atmYear), 0.539827837277029, 1e-12) {
		t.Errorf("ATM delta = %v", Delta(types.OptionSideCall, atmYear))
	}
}

func TestDeltaBounds(t *testing.T) {
	for spot := 40.0; spot <= 200; spot += 10 {
		for _, vol := range []float64{0.05, 0.3, 1.2} {
			s := MarketState{Spot: spot, Strike: 100, TimeToExpiry: 0.5, RiskFreeRate: 0.04, Volatility: vol}
			cd := Delta(types.OptionSideCall, s)
			pd := Delta(types.OptionSidePut, s)
			if cd < 0 || cd > 1 {
				t.Errorf("call delta %v out of [0,1] at S=%v vol=%v", cd, spot, vol)
			}
			if pd < -1 || pd > 0 {
				t.Errorf("put delta %v out of [-1,0] at S=%v vol=%v", pd, spot, vol)
			}
			if !near(cd-pd, 1, 1e-12) {
				t.Errorf("call delta - put delta = %v, want 1", cd-pd)
			}
		}
	}
}

func TestGreeksBoundary(t *testing.T) {
	expired := func(spot float64) MarketState {
		return MarketState{Spot: spot, Strike: 100, TimeToExpiry: 0, RiskFreeRate: 0.05, Volatility: 0.3}
	}
	tests := []struct {
		side  types.OptionSide
		spot  float64
		delta float64
	}{
		{types.OptionSideCall, 110, 1},
		{types.OptionSideCall, 100, 0},
		{types.OptionSideCall, 90, 0},
		{types.OptionSidePut, 90, -1},
		{types.OptionSidePut, 100, 0},
		{types.OptionSidePut, 110, 0},
	}
	for _, tt := range tests {
		g := Greeks(tt.side, expired(tt.spot))
		if g != (GreeksSnapshot{Delta: tt.delta}) {
			t.Errorf("%s S=%v: got %+v, want delta %v and zeros", tt.side, tt.spot, g, tt.delta)
		}
	}
}

// 中心差分只作数值一致性检查。
func TestGreeksFiniteDifference(t *testing.T) {
	s := MarketState{Spot: 120, Strike: 115, TimeToExpiry: 0.75, RiskFreeRate: 0.03, Volatility: 0.35}
	const h = 1e-4

	for _, side := range []types.OptionSide{types.OptionSideCall, types.OptionSidePut} {
		g := Greeks(side, s)

		up, dn := s, s
		up.Spot += h
		dn.Spot -= h
		fdDelta := (Price(side, up) - Price(side, dn)) / (2 * h)
		fdGamma := (Price(side, up) - 2*Price(side, s) + Price(side, dn)) / (h * h)
		if !near(g.Delta, fdDelta, 1e-6) {
			t.Errorf("%s delta %v vs fd %v", side, g.Delta, fdDelta)
		}
		if !near(g.Gamma, fdGamma, 1e-4) {
			t.Errorf("%s gamma %v vs fd %v", side, g.Gamma, fdGamma)
		}

		up, dn = s, s
		up.Volatility += h
		dn.Volatility -= h
		fdVega := (Price(side, up) - Price(side, dn)) / (2 * h) / 100
		if !near(g.Vega, fdVega, 1e-6) {
			t.Errorf("%s vega %v vs fd %v", side, g.Vega, fdVega)
		}

		up, dn = s, s
		up.RiskFreeRate += h
		dn.RiskFreeRate -= h
		fdRho := (Price(side, up) - Price(side, dn)) / (2 * h) / 100
		if !near(g.Rho, fdRho, 1e-6) {
			t.Errorf("%s rho %v vs fd %v", side, g.Rho, fdRho)
		}

		up, dn = s, s
		up.TimeToExpiry += h
		dn.TimeToExpiry -= h
		fdTheta := -(Price(side, up) - Price(side, dn)) / (2 * h) / daysPerYear
		if !near(g.Theta, fdTheta, 1e-6) {
			t.Errorf("%s theta %v vs fd %v", side, g.Theta, fdTheta)
		}
	}
}
