package analytics

import (
	"github.com/wyfcoding/optionlab/algorithm/finance"
	"github.com/wyfcoding/optionlab/algorithm/types"
)

// DaysPerYear 到期天数折算为年的分母（自然日）。
const DaysPerYear = 365.0

// 请求参数上限，超出后 e^{rT} 等中间量会溢出。
const (
	MaxDays       = 3650.0
	MaxRateAbs    = 1.0
	MaxVolatility = 5.0
)

// MarketInput 界面层提供的市场参数。
// Volatility、RiskFreeRate 为小数；缺省时取配置默认值。
type MarketInput struct {
	Spot         float64  `json:"spot"           binding:"required,gt=0,finite"`
	Strike       float64  `json:"strike"         binding:"required,gt=0,finite"`
	Days         float64  `json:"days"           binding:"gte=0,lte=3650,finite"`
	RiskFreeRate *float64 `json:"risk_free_rate" binding:"omitempty,gte=-1,lte=1,finite"`
	Volatility   *float64 `json:"volatility"     binding:"omitempty,gte=0,lte=5,finite"`
}

// QuoteRequest 单个期权的报价与希腊值请求。
type QuoteRequest struct {
	Side string `json:"side" binding:"required,option_side"`
	MarketInput
}

// QuoteResult 按分舍入的报价，附带实际使用的市场参数（已抬升到下限）。
type QuoteResult struct {
	Side   types.OptionSide    `json:"side"`
	Market finance.MarketState `json:"market"`
	finance.OptionQuote
}

// GreeksResult 四位小数的希腊值。
type GreeksResult struct {
	Side   types.OptionSide    `json:"side"`
	Market finance.MarketState `json:"market"`
	finance.GreeksSnapshot
}

// ProbabilityRequest 到期价格分布查询。Target 与 Lo/Hi 均可缺省。
type ProbabilityRequest struct {
	Spot         float64  `json:"spot"           binding:"required,gt=0,finite"`
	Days         float64  `json:"days"           binding:"gte=0,lte=3650,finite"`
	RiskFreeRate *float64 `json:"risk_free_rate" binding:"omitempty,gte=-1,lte=1,finite"`
	Volatility   *float64 `json:"volatility"     binding:"omitempty,gte=0,lte=5,finite"`
	Target       *float64 `json:"target"         binding:"omitempty,gt=0,finite"`
	Lo           *float64 `json:"lo"             binding:"omitempty,gt=0,finite"`
	Hi           *float64 `json:"hi"             binding:"omitempty,gt=0,finite"`
}

// ProbabilityResult 概率查询结果，未请求的字段为 nil。
type ProbabilityResult struct {
	Below   *float64           `json:"below,omitempty"`
	Above   *float64           `json:"above,omitempty"`
	Density *float64           `json:"density,omitempty"`
	Between *float64           `json:"between,omitempty"`
	Bands   finance.PriceBands `json:"bands"`
}

// Scenario 一次股票与期权的完整对比情景。
// MarketPrice 非空时由市场价反推隐含波动率，覆盖 Volatility。
type Scenario struct {
	Side             string    `json:"side"              binding:"required,option_side"`
	Direction        string    `json:"direction"         binding:"omitempty,direction"`
	Investment       float64   `json:"investment"        binding:"required,gt=0,finite"`
	MarketPrice      *float64  `json:"market_price"      binding:"omitempty,gt=0,finite"`
	GridPoints       int       `json:"grid_points"       binding:"gte=0"`
	ConfidenceLevels []float64 `json:"confidence_levels" binding:"omitempty,dive,gt=0,lt=1"`
	MarketInput
}

// ChartPoint 图表序列上的一个点，Density 为每单位价格的概率密度。
type ChartPoint struct {
	Price    float64 `json:"price"`
	StockPL  float64 `json:"stock_pl"`
	OptionPL float64 `json:"option_pl"`
	Density  float64 `json:"density"`
}

// Comparison 情景对比的完整输出，数值已按展示精度舍入。
type Comparison struct {
	ID               string                  `json:"id"`
	Side             types.OptionSide        `json:"side"`
	Direction        types.PositionDirection `json:"direction"`
	Market           finance.MarketState     `json:"market"`
	ImpliedFromPrice bool                    `json:"implied_from_price"`
	Quote            finance.OptionQuote     `json:"quote"`
	Greeks           finance.GreeksSnapshot  `json:"greeks"`
	Bands            finance.PriceBands      `json:"bands"`
	Sizing           finance.PositionSizing  `json:"sizing"`
	Risk             finance.RiskReport      `json:"risk"`
	Chart            []ChartPoint            `json:"chart"`
	Cached           bool                    `json:"cached"`
}

// IVEstimateRequest 隐含波动率估计。给出 market_price 与完整市场参数时反解，否则按 beta 粗估。
type IVEstimateRequest struct {
	Beta         *float64 `json:"beta"           binding:"omitempty,finite"`
	Side         string   `json:"side"           binding:"omitempty,option_side"`
	MarketPrice  *float64 `json:"market_price"   binding:"omitempty,gt=0,finite"`
	Spot         float64  `json:"spot"           binding:"gte=0,finite"`
	Strike       float64  `json:"strike"         binding:"gte=0,finite"`
	Days         float64  `json:"days"           binding:"gte=0,lte=3650,finite"`
	RiskFreeRate *float64 `json:"risk_free_rate" binding:"omitempty,gte=-1,lte=1,finite"`
}

// IV 来源。
const (
	IVSourceMarket = "market"
	IVSourceBeta   = "beta"
)

// IVEstimate 隐含波动率，Percent 为百分比，Volatility 为小数。
type IVEstimate struct {
	Percent    float64 `json:"percent"`
	Volatility float64 `json:"volatility"`
	Source     string  `json:"source"`
}
