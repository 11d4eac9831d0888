// Package validator 注册分析请求使用的自定义校验标签，并提供数值合法性判断。
package validator

import (
	"math"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

var registerOnce sync.Once

// IsFinite 判断数值既不是 NaN 也不是 ±Inf。
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsPositiveFinite 判断数值为有限正数，S、K 等价格参数必须满足。
func IsPositiveFinite(v float64) bool {
	return IsFinite(v) && v > 0
}

// IsProbability 判断数值位于开区间 (0, 1)，用于置信度。
func IsProbability(v float64) bool {
	return IsFinite(v) && v > 0 && v < 1
}

func optionSide(fl validator.FieldLevel) bool {
	_, ok := types.ParseOptionSide(fl.Field().String())
	return ok
}

func direction(fl validator.FieldLevel) bool {
	_, ok := types.ParseDirection(fl.Field().String())
	return ok
}

func finite(fl validator.FieldLevel) bool {
	return IsFinite(fl.Field().Float())
}

// Register 在给定 Validate 实例上注册 option_side、direction、finite 标签。
func Register(v *validator.Validate) error {
	for tag, fn := range map[string]validator.Func{
		"option_side": optionSide,
		"direction":   direction,
		"finite":      finite,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterGin 将自定义标签注册到 gin 的默认绑定校验器，只执行一次。
func RegisterGin() error {
	var err error
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			err = Register(v)
		}
	})
	return err
}
