package finance

import (
	"math"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

// ContractMultiplier 每张期权合约对应的标的股数。
const ContractMultiplier = 100

// PositionSizing 同一笔投资金额分别投向股票与期权时的头寸规模。
type PositionSizing struct {
	SharesOwned      float64                 `json:"shares_owned"`
	OptionShares     float64                 `json:"option_shares"`
	Contracts        float64                 `json:"contracts"`
	TotalPremiumPaid float64                 `json:"total_premium_paid"`
	InvestmentAmount float64                 `json:"investment_amount"`
	Direction        types.PositionDirection `json:"direction"`
}

// SizePositions 按投资金额折算头寸：
// 股票可买入 amount/spot 股（允许碎股），期权按整张合约向下取整。
// spot 或 premium 非正时对应的一腿规模为 0。
func SizePositions(amount, spot, premium float64, direction types.PositionDirection) PositionSizing {
	ps := PositionSizing{
		InvestmentAmount: amount,
		Direction:        direction,
	}
	if spot > 0 {
		ps.SharesOwned = amount / spot
	}
	if premium > 0 {
		ps.Contracts = math.Floor(amount / (premium * ContractMultiplier))
		ps.OptionShares = ps.Contracts * ContractMultiplier
		ps.TotalPremiumPaid = ps.Contracts * premium * ContractMultiplier
	}
	return ps
}
