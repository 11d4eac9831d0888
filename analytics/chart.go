package analytics

import (
	"github.com/wyfcoding/optionlab/algorithm/finance"
	"github.com/wyfcoding/optionlab/money"
)

// densityPlaces 概率密度保留的小数位。
const densityPlaces = 6

// ChartSeries 在 ±span·σ 价格轴上生成图表数据：到期盈亏与概率密度。
func ChartSeries(in finance.GridInput, span float64, points int) []ChartPoint {
	m := in.Market
	axis := finance.PriceAxis(m, span, points)
	out := make([]ChartPoint, len(axis))
	for i, price := range axis {
		out[i] = ChartPoint{
			Price:    money.Cents(price),
			StockPL:  money.Cents(finance.StockPL(price, m.Spot, in.Sizing)),
			OptionPL: money.Cents(finance.OptionPL(in.Side, price, m.Strike, in.Sizing)),
			Density:  money.Round(finance.Density(price, m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility), densityPlaces),
		}
	}
	return out
}
