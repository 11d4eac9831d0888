package finance

import (
	"math"

	"github.com/wyfcoding/optionlab/algorithm/types"
	"github.com/wyfcoding/optionlab/xerrors"
)

const (
	// DefaultIVPercent 无法估计时使用的兜底隐含波动率（百分比）。
	DefaultIVPercent = 30.0

	ivInitialGuess = 0.3
	ivTolerance    = 1e-8
	ivMaxIter      = 100
	ivMinSigma     = 1e-4
	ivMaxSigma     = 5.0
)

// ImpliedVolatility 由市场价格反解隐含波动率。
// 先以 vega 为导数做 Newton-Raphson 迭代，vega 过小或越界时退回二分法。
// 价格不在无套利区间内返回 ErrInvalidInput，迭代失败返回 ErrMathConvergence。
func ImpliedVolatility(side types.OptionSide, s MarketState, marketPrice float64) (float64, error) {
	if s.Spot <= 0 || s.Strike <= 0 || s.TimeToExpiry <= 0 {
		return 0, xerrors.ErrInvalidInput.WithDetail("spot, strike and time to expiry must be positive")
	}
	lower, upper := noArbitrageBounds(side, s)
	if marketPrice <= lower || marketPrice >= upper {
		return 0, xerrors.ErrInvalidInput.WithDetail("market price %.6f outside no-arbitrage bounds (%.6f, %.6f)", marketPrice, lower, upper)
	}

	priceAt := func(sigma float64) float64 {
		st := s
		st.Volatility = sigma
		return Price(side, st)
	}

	sigma := ivInitialGuess
	for range ivMaxIter {
		diff := priceAt(sigma) - marketPrice
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}
		st := s
		st.Volatility = sigma
		vega := Vega(st) * 100
		if vega < 1e-10 {
			break
		}
		next := sigma - diff/vega
		if next <= ivMinSigma || next >= ivMaxSigma || math.IsNaN(next) {
			break
		}
		sigma = next
	}

	// 价格关于 sigma 单调递增，二分法必然收敛。
	lo, hi := ivMinSigma, ivMaxSigma
	for range ivMaxIter {
		mid := 0.5 * (lo + hi)
		diff := priceAt(mid) - marketPrice
		if math.Abs(diff) < ivTolerance {
			return mid, nil
		}
		if diff > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0, xerrors.ErrMathConvergence.WithContext("market_price", marketPrice)
}

func noArbitrageBounds(side types.OptionSide, s MarketState) (lower, upper float64) {
	discK := s.Strike * math.Exp(-s.RiskFreeRate*s.TimeToExpiry)
	if side.IsCall() {
		return math.Max(0, s.Spot-discK), s.Spot
	}
	return math.Max(0, discK-s.Spot), discK
}

// EstimateIVFromBeta 在没有期权链时由 beta 粗估隐含波动率（百分比）：
// 20 + (beta-1)·15，限制在 [15, 80]。beta 缺失按 1.0 处理。
func EstimateIVFromBeta(beta *float64) float64 {
	b := 1.0
	if beta != nil && !math.IsNaN(*beta) && !math.IsInf(*beta, 0) {
		b = *beta
	}
	return math.Min(80, math.Max(15, 20+(b-1)*15))
}

// ClampInputs 将期限与波动率抬升到下限，避免临近到期或零波动时的数值退化。
func ClampInputs(t, sigma, minT, minSigma float64) (float64, float64) {
	return math.Max(t, minT), math.Max(sigma, minSigma)
}
