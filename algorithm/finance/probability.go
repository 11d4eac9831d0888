package finance

import "math"

// LogMean 到期对数价格均值：ln S + (r - sigma²/2)·T。
func LogMean(spot, t, r, sigma float64) float64 {
	return math.Log(spot) + (r-0.5*sigma*sigma)*t
}

// LogStd 到期对数价格标准差：sigma·√T。
func LogStd(t, sigma float64) float64 {
	return sigma * math.Sqrt(t)
}

// Density 到期价格 x 处的对数正态概率密度。x<=0 或退化参数返回 0。
func Density(x, spot, t, r, sigma float64) float64 {
	if x <= 0 || t <= 0 || sigma <= 0 {
		return 0
	}
	logStd := LogStd(t, sigma)
	z := (math.Log(x) - LogMean(spot, t, r, sigma)) / logStd
	return NormPDF(z) / (x * logStd)
}

// ProbBelow 到期价格低于 target 的概率。
// 退化参数下分布坍缩到 S：S < target 时为 1，否则为 0。
func ProbBelow(target, spot, t, r, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		if spot < target {
			return 1
		}
		return 0
	}
	if target <= 0 {
		return 0
	}
	z := (math.Log(target) - LogMean(spot, t, r, sigma)) / LogStd(t, sigma)
	return NormCDF(z)
}

// ProbAbove 到期价格高于 target 的概率。
func ProbAbove(target, spot, t, r, sigma float64) float64 {
	return 1 - ProbBelow(target, spot, t, r, sigma)
}

// ProbBetween 到期价格落在 [lo, hi] 区间的概率，lo > hi 时为负值，由调用方保证顺序。
func ProbBetween(lo, hi, spot, t, r, sigma float64) float64 {
	return ProbBelow(hi, spot, t, r, sigma) - ProbBelow(lo, spot, t, r, sigma)
}

// PriceAtSigma 对数空间偏离均值 n 个标准差处对应的价格。
func PriceAtSigma(spot, t, r, sigma, n float64) float64 {
	return math.Exp(LogMean(spot, t, r, sigma) + n*LogStd(t, sigma))
}

// PriceBands ±1σ / ±2σ 价格区间。
type PriceBands struct {
	Minus2 float64 `json:"minus_2_sigma"`
	Minus1 float64 `json:"minus_1_sigma"`
	Plus1  float64 `json:"plus_1_sigma"`
	Plus2  float64 `json:"plus_2_sigma"`
}

// SigmaBands 计算 ±1σ / ±2σ 价格。
func SigmaBands(spot, t, r, sigma float64) PriceBands {
	return PriceBands{
		Minus2: PriceAtSigma(spot, t, r, sigma, -2),
		Minus1: PriceAtSigma(spot, t, r, sigma, -1),
		Plus1:  PriceAtSigma(spot, t, r, sigma, 1),
		Plus2:  PriceAtSigma(spot, t, r, sigma, 2),
	}
}

// CrossoverPrice 期权头寸 P&L 开始超过股票头寸 P&L 的到期价格。
//
//	(sharesOwned·S - optionShares·K - optionShares·premium) / (sharesOwned - optionShares)
//
// 分母为 0，或结果不高于盈亏平衡价 K+premium 时返回 (v, false)。
func CrossoverPrice(spot, strike, premium, sharesOwned, optionShares float64) (float64, bool) {
	den := sharesOwned - optionShares
	if den == 0 {
		return 0, false
	}
	v := (sharesOwned*spot - optionShares*strike - optionShares*premium) / den
	if v <= strike+premium {
		return v, false
	}
	return v, true
}
