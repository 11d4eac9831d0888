// Package finance 提供股票与期权对比分析的量化核心：Black-Scholes 定价、希腊字母、
// 对数正态价格分布以及基于价格网格的风险统计。
//
// 包内所有函数均为纯函数：无全局状态、无 I/O、无随机数，相同输入得到逐位相同的输出。
// 调用方负责校验 S>0、K>0 等前置条件；T<=0 或 sigma<=0 属于合法的退化输入，
// 由各函数的边界分支给出确定的结果。
package finance

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// NormPDF 标准正态分布概率密度函数 φ(x)。
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) * invSqrt2Pi
}

// NormCDF 标准正态分布累积分布函数 Φ(x)，基于 erfc 实现，尾部精度优于多项式近似。
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
