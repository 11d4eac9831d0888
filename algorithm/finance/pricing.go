package finance

import (
	"math"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

// MarketState 一次定价所需的市场参数。
type MarketState struct {
	Spot         float64 `json:"spot"`           // 标的现价 S，>0
	Strike       float64 `json:"strike"`         // 行权价 K，>0
	TimeToExpiry float64 `json:"time_to_expiry"` // 剩余期限 T（年），>=0
	RiskFreeRate float64 `json:"risk_free_rate"` // 无风险利率 r（小数）
	Volatility   float64 `json:"volatility"`     // 波动率 sigma（小数），>=0
}

// Degenerate 判断是否处于 T<=0 或 sigma<=0 的退化边界。
func (s MarketState) Degenerate() bool {
	return s.TimeToExpiry <= 0 || s.Volatility <= 0
}

// OptionQuote 期权报价拆解。
type OptionQuote struct {
	Price     float64 `json:"price"`
	Intrinsic float64 `json:"intrinsic"`
	TimeValue float64 `json:"time_value"`
	Breakeven float64 `json:"breakeven"`
}

// D1D2 计算 Black-Scholes 的 d1、d2。退化边界下返回 (0, 0)。
func D1D2(s MarketState) (d1, d2 float64) {
	if s.Degenerate() {
		return 0, 0
	}
	volSqrtT := s.Volatility * math.Sqrt(s.TimeToExpiry)
	d1 = (math.Log(s.Spot/s.Strike) + (s.RiskFreeRate+0.5*s.Volatility*s.Volatility)*s.TimeToExpiry) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// CallPrice 计算看涨期权价格。退化边界下坍缩为内在价值。
func CallPrice(s MarketState) float64 {
	if s.Degenerate() {
		return IntrinsicValue(types.OptionSideCall, s.Spot, s.Strike)
	}
	d1, d2 := D1D2(s)
	return s.Spot*NormCDF(d1) - s.Strike*math.Exp(-s.RiskFreeRate*s.TimeToExpiry)*NormCDF(d2)
}

// PutPrice 计算看跌期权价格。退化边界下坍缩为内在价值。
func PutPrice(s MarketState) float64 {
	if s.Degenerate() {
		return IntrinsicValue(types.OptionSidePut, s.Spot, s.Strike)
	}
	d1, d2 := D1D2(s)
	return s.Strike*math.Exp(-s.RiskFreeRate*s.TimeToExpiry)*NormCDF(-d2) - s.Spot*NormCDF(-d1)
}

// Price 按期权类型定价。
func Price(side types.OptionSide, s MarketState) float64 {
	if side.IsCall() {
		return CallPrice(s)
	}
	return PutPrice(s)
}

// IntrinsicValue 内在价值：看涨 max(0, S-K)，看跌 max(0, K-S)。
func IntrinsicValue(side types.OptionSide, spot, strike float64) float64 {
	if side.IsCall() {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// TimeValue 时间价值，永不为负。
func TimeValue(price, intrinsic float64) float64 {
	return math.Max(0, price-intrinsic)
}

// Breakeven 到期盈亏平衡价：看涨 K+premium，看跌 K-premium。
func Breakeven(side types.OptionSide, strike, premium float64) float64 {
	if side.IsCall() {
		return strike + premium
	}
	return strike - premium
}

// Quote 一次性给出价格、内在价值、时间价值与盈亏平衡价。不做任何舍入。
func Quote(side types.OptionSide, s MarketState) OptionQuote {
	price := Price(side, s)
	intrinsic := IntrinsicValue(side, s.Spot, s.Strike)
	return OptionQuote{
		Price:     price,
		Intrinsic: intrinsic,
		TimeValue: TimeValue(price, intrinsic),
		Breakeven: Breakeven(side, s.Strike, price),
	}
}
