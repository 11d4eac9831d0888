package analytics

import (
	"github.com/wyfcoding/optionlab/algorithm/finance"
	"github.com/wyfcoding/optionlab/money"
)

// 输出边界的舍入：金额到分，概率与希腊值到四位小数。核心计算不做舍入。

func roundQuote(q finance.OptionQuote) finance.OptionQuote {
	return finance.OptionQuote{
		Price:     money.Cents(q.Price),
		Intrinsic: money.Cents(q.Intrinsic),
		TimeValue: money.Cents(q.TimeValue),
		Breakeven: money.Cents(q.Breakeven),
	}
}

func roundGreeks(g finance.GreeksSnapshot) finance.GreeksSnapshot {
	return finance.GreeksSnapshot{
		Delta: money.Ratio(g.Delta),
		Gamma: money.Ratio(g.Gamma),
		Theta: money.Ratio(g.Theta),
		Vega:  money.Ratio(g.Vega),
		Rho:   money.Ratio(g.Rho),
	}
}

func roundBands(b finance.PriceBands) finance.PriceBands {
	return finance.PriceBands{
		Minus2: money.Cents(b.Minus2),
		Minus1: money.Cents(b.Minus1),
		Plus1:  money.Cents(b.Plus1),
		Plus2:  money.Cents(b.Plus2),
	}
}

func roundSizing(s finance.PositionSizing) finance.PositionSizing {
	s.SharesOwned = money.Ratio(s.SharesOwned)
	s.TotalPremiumPaid = money.Cents(s.TotalPremiumPaid)
	s.InvestmentAmount = money.Cents(s.InvestmentAmount)
	return s
}

func roundLeg(l finance.LegRisk) finance.LegRisk {
	out := finance.LegRisk{
		ExpectedValue: money.Cents(l.ExpectedValue),
		WinLossStats: finance.WinLossStats{
			LossProbability: money.Ratio(l.LossProbability),
			AvgLoss:         money.Cents(l.AvgLoss),
			WinProbability:  money.Ratio(l.WinProbability),
			AvgWin:          money.Cents(l.AvgWin),
		},
		MaxLoss:             money.RoundPtr(l.MaxLoss, money.PricePlaces),
		ProbabilityOfProfit: money.Ratio(l.ProbabilityOfProfit),
	}
	if l.Tail != nil {
		out.Tail = make([]finance.TailRisk, len(l.Tail))
		for i, t := range l.Tail {
			out.Tail[i] = finance.TailRisk{
				Confidence:        t.Confidence,
				ValueAtRisk:       money.Cents(t.ValueAtRisk),
				ExpectedShortfall: money.Cents(t.ExpectedShortfall),
			}
		}
	}
	return out
}

func roundTargets(ts []finance.ReturnTarget) []finance.ReturnTarget {
	if ts == nil {
		return nil
	}
	out := make([]finance.ReturnTarget, len(ts))
	for i, t := range ts {
		out[i] = finance.ReturnTarget{Return: t.Return, Price: money.Cents(t.Price)}
	}
	return out
}

func roundReport(r finance.RiskReport) finance.RiskReport {
	return finance.RiskReport{
		Stock:            roundLeg(r.Stock),
		Option:           roundLeg(r.Option),
		Breakeven:        money.Cents(r.Breakeven),
		Crossover:        money.RoundPtr(r.Crossover, money.PricePlaces),
		StockTargets:     roundTargets(r.StockTargets),
		OptionTargets:    roundTargets(r.OptionTargets),
		TotalProbability: money.Ratio(r.TotalProbability),
	}
}
