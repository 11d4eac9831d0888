package analytics

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/response"
	"github.com/wyfcoding/optionlab/validator"
	"github.com/wyfcoding/optionlab/xerrors"
)

// Handler 分析服务的 HTTP 入口。
type Handler struct {
	svc *Service
}

// NewHandler 同时确保 option_side、direction 等绑定标签已注册。
func NewHandler(svc *Service) *Handler {
	if err := validator.RegisterGin(); err != nil {
		logging.Default().Error("register binding validators failed", "error", err)
	}
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /v1 下的全部分析接口。
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/quote", h.Quote)
	v1.POST("/greeks", h.Greeks)
	v1.POST("/probability", h.Probability)
	v1.POST("/compare", h.Compare)
	v1.POST("/compare/batch", h.CompareBatch)
	v1.POST("/iv/estimate", h.EstimateIV)
}

// bind 解析并校验 JSON 请求体，失败时已写出 400 响应。
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, xerrors.ErrInvalidInput.WithDetail("%v", err))
		return false
	}
	return true
}

func reply[T any](c *gin.Context, v T, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, v)
}

// Quote POST /v1/quote，期权报价。
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Quote(c.Request.Context(), req)
	reply(c, res, err)
}

// Greeks POST /v1/greeks，希腊字母。
func (h *Handler) Greeks(c *gin.Context) {
	var req QuoteRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Greeks(c.Request.Context(), req)
	reply(c, res, err)
}

// Probability POST /v1/probability，到期价格概率与分位带。
func (h *Handler) Probability(c *gin.Context) {
	var req ProbabilityRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Probability(c.Request.Context(), req)
	reply(c, res, err)
}

// Compare POST /v1/compare，单个情景的股票与期权对比。
func (h *Handler) Compare(c *gin.Context) {
	var sc Scenario
	if !bind(c, &sc) {
		return
	}
	res, err := h.svc.Compare(c.Request.Context(), sc)
	reply(c, res, err)
}

// CompareBatch 请求体为 Scenario 数组。
func (h *Handler) CompareBatch(c *gin.Context) {
	var scenarios []Scenario
	if !bind(c, &scenarios) {
		return
	}
	res, err := h.svc.CompareBatch(c.Request.Context(), scenarios)
	reply(c, res, err)
}

// EstimateIV POST /v1/iv/estimate，隐含波动率估计。
func (h *Handler) EstimateIV(c *gin.Context) {
	var req IVEstimateRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.EstimateIV(c.Request.Context(), req)
	reply(c, res, err)
}
