// Package money 基于 shopspring/decimal 做金额与比率的十进制舍入，
// 仅在对外输出时使用，计算核心保持 float64 全精度.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// 输出精度.
const (
	PricePlaces = 2 // 价格、盈亏：分
	RatioPlaces = 4 // 希腊字母、概率
)

// Money 高精度金额.
type Money struct {
	value decimal.Decimal
}

// New 从 float64 创建 Money.
func New(val float64) Money {
	return Money{value: decimal.NewFromFloat(val)}
}

// NewFromString 从字符串解析金额.
func NewFromString(val string) (Money, error) {
	d, err := decimal.NewFromString(val)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d}, nil
}

// Float 转换为 float64.
func (m Money) Float() float64 {
	return m.value.InexactFloat64()
}

// String 两位小数格式.
func (m Money) String() string {
	return m.value.StringFixed(PricePlaces)
}

// Add 加法.
func (m Money) Add(other Money) Money {
	return Money{value: m.value.Add(other.value)}
}

// Mul 乘法.
func (m Money) Mul(factor float64) Money {
	return Money{value: m.value.Mul(decimal.NewFromFloat(factor))}
}

// Round 十进制四舍五入（远离零），避免 float64 二进制表示导致 2.675 舍成 2.67.
func (m Money) Round(places int32) Money {
	return Money{value: m.value.Round(places)}
}

// Round 将 v 按十进制舍入到 places 位小数，NaN 与 ±Inf 返回 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return New(v).Round(places).Float()
}

// Cents 舍入到分.
func Cents(v float64) float64 {
	return Round(v, PricePlaces)
}

// Ratio 舍入到四位小数.
func Ratio(v float64) float64 {
	return Round(v, RatioPlaces)
}

// RoundPtr 对可空值舍入，nil 保持 nil.
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}
