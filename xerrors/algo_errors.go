package xerrors

var (
	// ErrInvalidInput 输入参数非法（S<=0、K<=0、负期限等）。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: call, put", nil)
	// ErrInvalidDirection 无效的持仓方向。
	ErrInvalidDirection = New(ErrInvalidArg, 400005, "invalid direction", "supported directions: long, short", nil)
	// ErrInvalidConfidence 置信度不在 (0, 1) 区间。
	ErrInvalidConfidence = New(ErrInvalidArg, 400006, "invalid confidence", "confidence must be in range (0, 1)", nil)
	// ErrGridTooLarge 价格网格点数超过上限。
	ErrGridTooLarge = New(ErrInvalidArg, 400007, "grid too large", "requested grid points exceed the configured maximum", nil)
	// ErrBatchTooLarge 批量请求数量超过上限。
	ErrBatchTooLarge = New(ErrInvalidArg, 400008, "batch too large", "batch size exceeds the configured maximum", nil)
	// ErrMathConvergence 数值求解未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
)
