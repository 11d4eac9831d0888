package finance

import (
	"math"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

// daysPerYear theta 按自然日折算。
const daysPerYear = 365

// GreeksSnapshot 希腊字母快照。
// Theta 为每自然日衰减，Vega/Rho 为波动率/利率变动 1 个百分点时的价格变化。
type GreeksSnapshot struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Delta 计算 Delta。
// 退化边界下：看涨实值为 1、否则 0；看跌实值为 -1、否则 0。
func Delta(side types.OptionSide, s MarketState) float64 {
	if s.Degenerate() {
		return boundaryDelta(side, s)
	}
	d1, _ := D1D2(s)
	return deltaFromD1(side, d1)
}

// Gamma 计算 Gamma，看涨看跌相同。
func Gamma(s MarketState) float64 {
	if s.Degenerate() || s.Spot <= 0 {
		return 0
	}
	d1, _ := D1D2(s)
	return NormPDF(d1) / (s.Spot * s.Volatility * math.Sqrt(s.TimeToExpiry))
}

// Theta 计算每日 Theta。
func Theta(side types.OptionSide, s MarketState) float64 {
	if s.Degenerate() {
		return 0
	}
	d1, d2 := D1D2(s)
	return thetaFromD(side, s, d1, d2)
}

// Vega 计算 Vega（每 1% 波动率）。
func Vega(s MarketState) float64 {
	if s.Degenerate() {
		return 0
	}
	d1, _ := D1D2(s)
	return s.Spot * math.Sqrt(s.TimeToExpiry) * NormPDF(d1) / 100
}

// Rho 计算 Rho（每 1% 利率）。
func Rho(side types.OptionSide, s MarketState) float64 {
	if s.Degenerate() {
		return 0
	}
	_, d2 := D1D2(s)
	return rhoFromD2(side, s, d2)
}

// Greeks 一次性计算全部希腊字母，d1/d2 只计算一次。
func Greeks(side types.OptionSide, s MarketState) GreeksSnapshot {
	if s.Degenerate() {
		return GreeksSnapshot{Delta: boundaryDelta(side, s)}
	}

	d1, d2 := D1D2(s)
	sqrtT := math.Sqrt(s.TimeToExpiry)
	phiD1 := NormPDF(d1)

	g := GreeksSnapshot{
		Delta: deltaFromD1(side, d1),
		Theta: thetaFromD(side, s, d1, d2),
		Vega:  s.Spot * sqrtT * phiD1 / 100,
		Rho:   rhoFromD2(side, s, d2),
	}
	if s.Spot > 0 {
		g.Gamma = phiD1 / (s.Spot * s.Volatility * sqrtT)
	}
	return g
}

func boundaryDelta(side types.OptionSide, s MarketState) float64 {
	if side.IsCall() {
		if s.Spot > s.Strike {
			return 1
		}
		return 0
	}
	if s.Spot < s.Strike {
		return -1
	}
	return 0
}

func deltaFromD1(side types.OptionSide, d1 float64) float64 {
	if side.IsCall() {
		return NormCDF(d1)
	}
	return NormCDF(d1) - 1
}

func thetaFromD(side types.OptionSide, s MarketState, d1, d2 float64) float64 {
	decay := -s.Spot * NormPDF(d1) * s.Volatility / (2 * math.Sqrt(s.TimeToExpiry))
	carry := s.RiskFreeRate * s.Strike * math.Exp(-s.RiskFreeRate*s.TimeToExpiry)
	if side.IsCall() {
		return (decay - carry*NormCDF(d2)) / daysPerYear
	}
	return (decay + carry*NormCDF(-d2)) / daysPerYear
}

func rhoFromD2(side types.OptionSide, s MarketState, d2 float64) float64 {
	discounted := s.Strike * s.TimeToExpiry * math.Exp(-s.RiskFreeRate*s.TimeToExpiry)
	if side.IsCall() {
		return discounted * NormCDF(d2) / 100
	}
	return -discounted * NormCDF(-d2) / 100
}
