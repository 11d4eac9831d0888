package finance

import (
	"math"

	"github.com/sourcegraph/conc/iter"
	"gonum.org/v1/gonum/floats"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

// degenerateSpan 退化参数下价格轴相对现价的半宽。
const degenerateSpan = 0.5

// PriceGridPoint 价格轴上的一个采样点。
// Probability 为该步长内的概率质量 Density(price)·step，未做归一化。
type PriceGridPoint struct {
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
	StockPL     float64 `json:"stock_pl"`
	OptionPL    float64 `json:"option_pl"`
}

// GridInput 构建价格网格所需的全部参数。
type GridInput struct {
	Side   types.OptionSide
	Market MarketState
	Sizing PositionSizing
}

// PriceAxis 生成 [mean-span·σ, mean+span·σ]（对数空间）内等距的升序价格轴。
// 退化参数下改为以现价为中心、±50% 的区间。points<2 时返回 nil。
func PriceAxis(s MarketState, span float64, points int) []float64 {
	if points < 2 {
		return nil
	}
	var lo, hi float64
	if s.Degenerate() {
		lo, hi = s.Spot*(1-degenerateSpan), s.Spot*(1+degenerateSpan)
	} else {
		lo = PriceAtSigma(s.Spot, s.TimeToExpiry, s.RiskFreeRate, s.Volatility, -span)
		hi = PriceAtSigma(s.Spot, s.TimeToExpiry, s.RiskFreeRate, s.Volatility, span)
	}
	return floats.Span(make([]float64, points), lo, hi)
}

// StockPL 到期价格为 price 时股票腿的盈亏。
func StockPL(price, spot float64, sizing PositionSizing) float64 {
	return sizing.Direction.Sign() * sizing.SharesOwned * (price - spot)
}

// OptionPL 到期价格为 price 时期权腿的盈亏（按到期内在价值结算）。
func OptionPL(side types.OptionSide, price, strike float64, sizing PositionSizing) float64 {
	payoff := sizing.OptionShares * IntrinsicValue(side, price, strike)
	return sizing.Direction.Sign() * (payoff - sizing.TotalPremiumPaid)
}

// BuildPriceGrid 在价格轴上并行计算每个点的概率质量与两腿盈亏。
// axis 必须升序且等距；每个点只由一个 goroutine 写入，结果与串行计算逐位一致。
func BuildPriceGrid(in GridInput, axis []float64) []PriceGridPoint {
	if len(axis) == 0 {
		return nil
	}
	step := 0.0
	if len(axis) > 1 {
		step = axis[1] - axis[0]
	}
	grid := iter.Map(axis, func(price *float64) PriceGridPoint {
		return gridPoint(in, *price, step)
	})
	if in.Market.Degenerate() {
		// 退化分布是 S 处的点质量，密度处处为 0，全部质量落在离 S 最近的格点。
		nearest := 0
		for i := range grid {
			if math.Abs(grid[i].Price-in.Market.Spot) < math.Abs(grid[nearest].Price-in.Market.Spot) {
				nearest = i
			}
		}
		grid[nearest].Probability = 1
	}
	return grid
}

func gridPoint(in GridInput, price, step float64) PriceGridPoint {
	m := in.Market
	return PriceGridPoint{
		Price:       price,
		Probability: Density(price, m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility) * step,
		StockPL:     StockPL(price, m.Spot, in.Sizing),
		OptionPL:    OptionPL(in.Side, price, m.Strike, in.Sizing),
	}
}
