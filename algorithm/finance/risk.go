package finance

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

// Leg 标识网格上的一条盈亏腿。
type Leg int

const (
	// LegStock 股票腿。
	LegStock Leg = iota
	// LegOption 期权腿。
	LegOption
)

func (l Leg) String() string {
	if l == LegOption {
		return "option"
	}
	return "stock"
}

func (l Leg) pl(p PriceGridPoint) float64 {
	if l == LegOption {
		return p.OptionPL
	}
	return p.StockPL
}

// DefaultConfidenceLevels 默认 VaR/ES 置信度。
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// DefaultReturnTargets 默认收益率目标（10%、25%、50%、100%）。
var DefaultReturnTargets = []float64{0.1, 0.25, 0.5, 1.0}

// WinLossStats 按盈亏符号切分后的概率质量与条件均值。
type WinLossStats struct {
	LossProbability float64 `json:"loss_probability"`
	AvgLoss         float64 `json:"avg_loss"`
	WinProbability  float64 `json:"win_probability"`
	AvgWin          float64 `json:"avg_win"`
}

// TailRisk 某一置信度下的 VaR 与 ES。
type TailRisk struct {
	Confidence        float64 `json:"confidence"`
	ValueAtRisk       float64 `json:"var"`
	ExpectedShortfall float64 `json:"es"`
}

// ReturnTarget 达到某一收益率所需的到期价格。
type ReturnTarget struct {
	Return float64 `json:"return"`
	Price  float64 `json:"price"`
}

// LegRisk 单腿风险统计。MaxLoss 为 nil 表示亏损无上限。
type LegRisk struct {
	ExpectedValue float64 `json:"expected_value"`
	WinLossStats
	Tail                []TailRisk `json:"tail"`
	MaxLoss             *float64   `json:"max_loss"`
	ProbabilityOfProfit float64    `json:"probability_of_profit"`
}

// RiskReport 股票腿与期权腿的完整风险对比。Crossover 为 nil 表示不存在交叉价。
type RiskReport struct {
	Stock            LegRisk        `json:"stock"`
	Option           LegRisk        `json:"option"`
	Breakeven        float64        `json:"breakeven"`
	Crossover        *float64       `json:"crossover"`
	StockTargets     []ReturnTarget `json:"stock_targets"`
	OptionTargets    []ReturnTarget `json:"option_targets"`
	TotalProbability float64        `json:"total_probability"`
}

// RiskConfig 风险报告参数，空切片时使用默认值。
type RiskConfig struct {
	ConfidenceLevels []float64
	ReturnTargets    []float64
}

// ExpectedValue 概率加权的盈亏之和。
func ExpectedValue(grid []PriceGridPoint, leg Leg) float64 {
	var ev float64
	for _, p := range grid {
		ev += p.Probability * leg.pl(p)
	}
	return ev
}

// TotalProbability 网格的概率质量之和，网格覆盖足够 σ 时接近 1。
func TotalProbability(grid []PriceGridPoint) float64 {
	var total float64
	for _, p := range grid {
		total += p.Probability
	}
	return total
}

// WinLoss 按盈亏符号切分网格，PL 恰为 0 的点不计入任何一侧。
// 条件均值按概率加权，分区为空时均值为 0。
func WinLoss(grid []PriceGridPoint, leg Leg) WinLossStats {
	var lossPL, lossW, winPL, winW []float64
	for _, p := range grid {
		v := leg.pl(p)
		switch {
		case v < 0:
			lossPL = append(lossPL, v)
			lossW = append(lossW, p.Probability)
		case v > 0:
			winPL = append(winPL, v)
			winW = append(winW, p.Probability)
		}
	}

	var out WinLossStats
	out.LossProbability, out.AvgLoss = weightedPartition(lossPL, lossW)
	out.WinProbability, out.AvgWin = weightedPartition(winPL, winW)
	return out
}

func weightedPartition(values, weights []float64) (mass, mean float64) {
	for _, w := range weights {
		mass += w
	}
	if len(values) == 0 || mass <= 0 {
		return mass, 0
	}
	return mass, stat.Mean(values, weights)
}

type plMass struct {
	pl   float64
	prob float64
}

func sortedByPL(grid []PriceGridPoint, leg Leg) []plMass {
	rows := make([]plMass, len(grid))
	for i, p := range grid {
		rows[i] = plMass{pl: leg.pl(p), prob: p.Probability}
	}
	slices.SortStableFunc(rows, func(a, b plMass) int {
		return cmp.Compare(a.pl, b.pl)
	})
	return rows
}

// ValueAtRisk 离散分位数 VaR：按盈亏升序稳定排序，从亏损尾部累加概率质量，
// 第一次满足 cum >= 1-confidence 时返回该点的盈亏；始终未满足时返回最大盈亏。
// 空网格返回 (0, false)。
func ValueAtRisk(grid []PriceGridPoint, leg Leg, confidence float64) (float64, bool) {
	if len(grid) == 0 {
		return 0, false
	}
	return varOfSorted(sortedByPL(grid, leg), confidence), true
}

func varOfSorted(rows []plMass, confidence float64) float64 {
	threshold := 1 - confidence
	var cum float64
	for _, r := range rows {
		cum += r.prob
		if cum >= threshold {
			return r.pl
		}
	}
	return rows[len(rows)-1].pl
}

// ExpectedShortfall 盈亏不高于 VaR 的所有点的概率加权均值；无概率质量时返回 VaR 本身。
func ExpectedShortfall(grid []PriceGridPoint, leg Leg, confidence float64) (float64, bool) {
	if len(grid) == 0 {
		return 0, false
	}
	rows := sortedByPL(grid, leg)
	return esOfSorted(rows, varOfSorted(rows, confidence)), true
}

// esOfSorted rows 中盈亏不高于 v 部分的概率加权均值，尾部无质量时返回 v。
func esOfSorted(rows []plMass, v float64) float64 {
	var values, weights []float64
	for _, r := range rows {
		if r.pl > v {
			break
		}
		values = append(values, r.pl)
		weights = append(weights, r.prob)
	}
	if mass, mean := weightedPartition(values, weights); mass > 0 {
		return mean
	}
	return v
}

// StockTargetPrice 股票腿收益率达到 x 所需的到期价格：S + amount·x/shares。
// shares 非正时返回 (0, false)。
func StockTargetPrice(spot, amount, shares, x float64) (float64, bool) {
	if shares <= 0 {
		return 0, false
	}
	return spot + amount*x/shares, true
}

// OptionTargetPrice 期权腿收益率达到 x 所需的到期价格。
// 看涨：(amount·x + totalPremium)/optionShares + K；看跌：K - (amount·x + totalPremium)/optionShares。
// optionShares 非正或看跌目标价不为正时返回 (v, false)。
func OptionTargetPrice(side types.OptionSide, strike, amount, totalPremium, optionShares, x float64) (float64, bool) {
	if optionShares <= 0 {
		return 0, false
	}
	move := (amount*x + totalPremium) / optionShares
	if side.IsCall() {
		return strike + move, true
	}
	v := strike - move
	return v, v > 0
}

// MaxLoss 单腿最大亏损，nil 表示无上限（做空股票、卖出看涨）。
// 卖出看跌的亏损在标的归零时最大：-(K·optionShares - totalPremium)。
func MaxLoss(leg Leg, side types.OptionSide, strike float64, sizing PositionSizing) *float64 {
	var v float64
	switch {
	case leg == LegStock && sizing.Direction == types.DirectionLong:
		v = -sizing.InvestmentAmount
	case leg == LegStock:
		return nil
	case sizing.Direction == types.DirectionLong:
		v = -sizing.TotalPremiumPaid
	case side.IsCall():
		return nil
	default:
		v = -(strike*sizing.OptionShares - sizing.TotalPremiumPaid)
	}
	return &v
}

// NewRiskReport 汇总两条腿在配置置信度与收益率目标下的全部风险统计。
// quote 为当前期权报价，其 Breakeven 用于盈利概率与交叉价判定。
func NewRiskReport(grid []PriceGridPoint, in GridInput, quote OptionQuote, cfg RiskConfig) RiskReport {
	confidences := cfg.ConfidenceLevels
	if len(confidences) == 0 {
		confidences = DefaultConfidenceLevels
	}
	targets := cfg.ReturnTargets
	if len(targets) == 0 {
		targets = DefaultReturnTargets
	}

	m := in.Market
	report := RiskReport{
		Stock:            legRisk(grid, LegStock, in, confidences),
		Option:           legRisk(grid, LegOption, in, confidences),
		Breakeven:        quote.Breakeven,
		TotalProbability: TotalProbability(grid),
	}

	report.Stock.ProbabilityOfProfit = ProbAbove(m.Spot, m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility)
	if in.Side.IsCall() {
		report.Option.ProbabilityOfProfit = ProbAbove(quote.Breakeven, m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility)
	} else {
		report.Option.ProbabilityOfProfit = ProbBelow(quote.Breakeven, m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility)
	}
	if in.Sizing.Direction == types.DirectionShort {
		report.Stock.ProbabilityOfProfit = 1 - report.Stock.ProbabilityOfProfit
		report.Option.ProbabilityOfProfit = 1 - report.Option.ProbabilityOfProfit
	}

	if in.Side.IsCall() {
		if v, ok := CrossoverPrice(m.Spot, m.Strike, quote.Price, in.Sizing.SharesOwned, in.Sizing.OptionShares); ok {
			report.Crossover = &v
		}
	}

	// 收益率目标只对多头有意义，空头收益上限为所收权利金。
	if in.Sizing.Direction == types.DirectionLong {
		for _, x := range targets {
			if v, ok := StockTargetPrice(m.Spot, in.Sizing.InvestmentAmount, in.Sizing.SharesOwned, x); ok {
				report.StockTargets = append(report.StockTargets, ReturnTarget{Return: x, Price: v})
			}
			if v, ok := OptionTargetPrice(in.Side, m.Strike, in.Sizing.InvestmentAmount, in.Sizing.TotalPremiumPaid, in.Sizing.OptionShares, x); ok {
				report.OptionTargets = append(report.OptionTargets, ReturnTarget{Return: x, Price: v})
			}
		}
	}
	return report
}

func legRisk(grid []PriceGridPoint, leg Leg, in GridInput, confidences []float64) LegRisk {
	lr := LegRisk{
		ExpectedValue: ExpectedValue(grid, leg),
		WinLossStats:  WinLoss(grid, leg),
		MaxLoss:       MaxLoss(leg, in.Side, in.Market.Strike, in.Sizing),
	}
	if len(grid) == 0 {
		return lr
	}
	rows := sortedByPL(grid, leg)
	lr.Tail = make([]TailRisk, 0, len(confidences))
	for _, c := range confidences {
		v := varOfSorted(rows, c)
		lr.Tail = append(lr.Tail, TailRisk{Confidence: c, ValueAtRisk: v, ExpectedShortfall: esOfSorted(rows, v)})
	}
	return lr
}
