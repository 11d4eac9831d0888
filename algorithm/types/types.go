package types

import "strings"

// OptionSide 定义期权类型（看涨 / 看跌）。
type OptionSide string

const (
	// OptionSideCall 看涨期权。
	OptionSideCall OptionSide = "CALL"
	// OptionSidePut 看跌期权。
	OptionSidePut OptionSide = "PUT"
)

// ParseOptionSide 将 "call"/"put"（大小写不敏感）解析为 OptionSide。
func ParseOptionSide(s string) (OptionSide, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(OptionSideCall):
		return OptionSideCall, true
	case string(OptionSidePut):
		return OptionSidePut, true
	default:
		return "", false
	}
}

// IsCall 判断是否为看涨期权。
func (s OptionSide) IsCall() bool { return s == OptionSideCall }

// Valid 判断期权类型是否合法。
func (s OptionSide) Valid() bool { return s == OptionSideCall || s == OptionSidePut }

// PositionDirection 定义持仓方向。
type PositionDirection string

const (
	// DirectionLong 多头。
	DirectionLong PositionDirection = "LONG"
	// DirectionShort 空头。
	DirectionShort PositionDirection = "SHORT"
)

// ParseDirection 解析持仓方向，空字符串默认为多头。
func ParseDirection(s string) (PositionDirection, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(DirectionLong):
		return DirectionLong, true
	case string(DirectionShort):
		return DirectionShort, true
	default:
		return "", false
	}
}

// Sign 返回方向对应的 P&L 符号：多头 +1，空头 -1。
func (d PositionDirection) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}
