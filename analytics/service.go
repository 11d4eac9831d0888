// Package analytics 是期权分析应用服务：校验输入、抬升期限与波动率下限、
// 调用 algorithm/finance 计算报价、希腊值、概率与风险报告，并负责缓存、指标与链路追踪。
package analytics

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/optionlab/algorithm/finance"
	"github.com/wyfcoding/optionlab/algorithm/types"
	"github.com/wyfcoding/optionlab/cache"
	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/idgen"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/metrics"
	"github.com/wyfcoding/optionlab/money"
	"github.com/wyfcoding/optionlab/tracing"
	"github.com/wyfcoding/optionlab/validator"
	"github.com/wyfcoding/optionlab/xerrors"
)

// Service 分析服务，可并发使用。
type Service struct {
	cfg     atomic.Pointer[config.AnalyticsConfig]
	results *cache.TimedCache
	logger  *logging.Logger

	scenarios    *prometheus.CounterVec
	gridPoints   *prometheus.HistogramVec
	cacheResults *prometheus.CounterVec
}

// NewService results 为 nil 时不缓存对比结果。
func NewService(cfg config.AnalyticsConfig, results *cache.TimedCache, m *metrics.Metrics, logger *logging.Logger) *Service {
	s := &Service{results: results, logger: logger}
	s.cfg.Store(&cfg)

	s.scenarios = m.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_scenarios_total",
		Help: "Total number of analytics requests by operation and result",
	}, []string{"operation", "result"})
	s.gridPoints = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_grid_points",
		Help:    "Number of price grid points evaluated per comparison",
		Buckets: prometheus.ExponentialBuckets(50, 2, 8),
	}, []string{"operation"})
	s.cacheResults = m.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_cache_results_total",
		Help: "Comparison cache lookups by result",
	}, []string{"result"})
	return s
}

// UpdateConfig 热更新分析参数，进行中的请求继续使用旧快照。
func (s *Service) UpdateConfig(cfg config.AnalyticsConfig) {
	s.cfg.Store(&cfg)
	s.logger.Info("analytics config updated", "grid_points", cfg.GridPoints, "max_grid_points", cfg.MaxGridPoints)
}

// Config 当前配置快照。
func (s *Service) Config() config.AnalyticsConfig {
	return *s.cfg.Load()
}

func (s *Service) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.scenarios.WithLabelValues(op, result).Inc()
}

func parseSide(v string) (types.OptionSide, error) {
	side, ok := types.ParseOptionSide(v)
	if !ok {
		return "", xerrors.ErrInvalidOptionType.WithDetail("unsupported option side %q", v)
	}
	return side, nil
}

func parseDirection(v string) (types.PositionDirection, error) {
	dir, ok := types.ParseDirection(v)
	if !ok {
		return "", xerrors.ErrInvalidDirection.WithDetail("unsupported direction %q", v)
	}
	return dir, nil
}

// dynamics 校验并解析现价、期限、利率与波动率，期限与波动率抬升到配置下限。
// 返回的 MarketState 未设置 Strike。
func dynamics(cfg *config.AnalyticsConfig, spot, days float64, rate, vol *float64) (finance.MarketState, error) {
	if !validator.IsPositiveFinite(spot) {
		return finance.MarketState{}, xerrors.ErrInvalidInput.WithDetail("spot must be a positive number, got %v", spot)
	}
	if !validator.IsFinite(days) || days < 0 || days > MaxDays {
		return finance.MarketState{}, xerrors.ErrInvalidInput.WithDetail("days must be in [0, %v], got %v", MaxDays, days)
	}
	r := cfg.RiskFreeRate
	if rate != nil {
		if !validator.IsFinite(*rate) || math.Abs(*rate) > MaxRateAbs {
			return finance.MarketState{}, xerrors.ErrInvalidInput.WithDetail("risk_free_rate must be in [-%v, %v], got %v", MaxRateAbs, MaxRateAbs, *rate)
		}
		r = *rate
	}
	sigma := cfg.DefaultVolatility
	if vol != nil {
		if !validator.IsFinite(*vol) || *vol < 0 || *vol > MaxVolatility {
			return finance.MarketState{}, xerrors.ErrInvalidInput.WithDetail("volatility must be in [0, %v], got %v", MaxVolatility, *vol)
		}
		sigma = *vol
	}
	t, sigma := finance.ClampInputs(days/DaysPerYear, sigma, cfg.MinTimeYears, cfg.MinVolatility)
	return finance.MarketState{Spot: spot, TimeToExpiry: t, RiskFreeRate: r, Volatility: sigma}, nil
}

func marketState(cfg *config.AnalyticsConfig, in MarketInput) (finance.MarketState, error) {
	m, err := dynamics(cfg, in.Spot, in.Days, in.RiskFreeRate, in.Volatility)
	if err != nil {
		return m, err
	}
	if !validator.IsPositiveFinite(in.Strike) {
		return m, xerrors.ErrInvalidInput.WithDetail("strike must be a positive number, got %v", in.Strike)
	}
	m.Strike = in.Strike
	return m, nil
}

// Quote 按分舍入的期权报价。
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (res *QuoteResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.Quote")
	defer span.End()
	defer func() { s.observe("quote", err); tracing.SetError(ctx, err) }()

	cfg := s.cfg.Load()
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	m, err := marketState(cfg, req.MarketInput)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Side: side, Market: m, OptionQuote: roundQuote(finance.Quote(side, m))}, nil
}

// Greeks 希腊值，保留四位小数。
func (s *Service) Greeks(ctx context.Context, req QuoteRequest) (res *GreeksResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.Greeks")
	defer span.End()
	defer func() { s.observe("greeks", err); tracing.SetError(ctx, err) }()

	cfg := s.cfg.Load()
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	m, err := marketState(cfg, req.MarketInput)
	if err != nil {
		return nil, err
	}
	return &GreeksResult{Side: side, Market: m, GreeksSnapshot: roundGreeks(finance.Greeks(side, m))}, nil
}

// Probability 到期价格低于/高于目标价、落入区间的概率，以及 ±1σ/±2σ 价格带。
func (s *Service) Probability(ctx context.Context, req ProbabilityRequest) (res *ProbabilityResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.Probability")
	defer span.End()
	defer func() { s.observe("probability", err); tracing.SetError(ctx, err) }()

	cfg := s.cfg.Load()
	m, err := dynamics(cfg, req.Spot, req.Days, req.RiskFreeRate, req.Volatility)
	if err != nil {
		return nil, err
	}
	spot, t, r, sigma := m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility

	res = &ProbabilityResult{Bands: roundBands(finance.SigmaBands(spot, t, r, sigma))}
	if req.Target != nil {
		x := *req.Target
		if !validator.IsPositiveFinite(x) {
			return nil, xerrors.ErrInvalidInput.WithDetail("target must be a positive number")
		}
		below := money.Ratio(finance.ProbBelow(x, spot, t, r, sigma))
		above := money.Ratio(finance.ProbAbove(x, spot, t, r, sigma))
		density := money.Round(finance.Density(x, spot, t, r, sigma), densityPlaces)
		res.Below, res.Above, res.Density = &below, &above, &density
	}
	if req.Lo != nil || req.Hi != nil {
		if req.Lo == nil || req.Hi == nil {
			return nil, xerrors.ErrInvalidInput.WithDetail("lo and hi must be provided together")
		}
		lo, hi := *req.Lo, *req.Hi
		if !validator.IsPositiveFinite(lo) || !validator.IsPositiveFinite(hi) || lo >= hi {
			return nil, xerrors.ErrInvalidInput.WithDetail("require 0 < lo < hi, got lo=%v hi=%v", lo, hi)
		}
		between := money.Ratio(finance.ProbBetween(lo, hi, spot, t, r, sigma))
		res.Between = &between
	}
	return res, nil
}

// plan 校验通过后的情景参数。
type plan struct {
	side        types.OptionSide
	direction   types.PositionDirection
	market      finance.MarketState
	investment  float64
	implied     bool
	points      int
	confidences []float64
}

func (p plan) key(cfg *config.AnalyticsConfig) string {
	return fmt.Sprintf("cmp:%s:%s:%g:%g:%g:%g:%g:%g:%d:%v:%v:%g:%d",
		p.side, p.direction, p.market.Spot, p.market.Strike, p.market.TimeToExpiry,
		p.market.RiskFreeRate, p.market.Volatility, p.investment, p.points,
		p.confidences, cfg.ReturnTargets, cfg.GridSigmaSpan, cfg.ChartPoints)
}

func newPlan(cfg *config.AnalyticsConfig, sc Scenario) (plan, error) {
	side, err := parseSide(sc.Side)
	if err != nil {
		return plan{}, err
	}
	dir, err := parseDirection(sc.Direction)
	if err != nil {
		return plan{}, err
	}
	if !validator.IsPositiveFinite(sc.Investment) {
		return plan{}, xerrors.ErrInvalidInput.WithDetail("investment must be a positive number, got %v", sc.Investment)
	}
	m, err := marketState(cfg, sc.MarketInput)
	if err != nil {
		return plan{}, err
	}

	p := plan{side: side, direction: dir, market: m, investment: sc.Investment, points: sc.GridPoints}
	switch {
	case p.points == 0:
		p.points = cfg.GridPoints
	case p.points < 2:
		return plan{}, xerrors.ErrInvalidInput.WithDetail("grid_points must be >= 2, got %d", p.points)
	case p.points > cfg.MaxGridPoints:
		return plan{}, xerrors.ErrGridTooLarge.WithDetail("grid_points %d exceeds maximum %d", p.points, cfg.MaxGridPoints)
	}

	p.confidences = cfg.ConfidenceLevels
	if len(sc.ConfidenceLevels) > 0 {
		for _, c := range sc.ConfidenceLevels {
			if !validator.IsProbability(c) {
				return plan{}, xerrors.ErrInvalidConfidence.WithDetail("confidence %v not in (0, 1)", c)
			}
		}
		p.confidences = sc.ConfidenceLevels
	}

	if sc.MarketPrice != nil {
		iv, err := finance.ImpliedVolatility(side, m, *sc.MarketPrice)
		if err != nil {
			return plan{}, err
		}
		p.market.Volatility = max(iv, cfg.MinVolatility)
		p.implied = true
	}
	return p, nil
}

// Compare 计算一个情景的完整对比；相同参数的结果在缓存有效期内复用。
func (s *Service) Compare(ctx context.Context, sc Scenario) (res *Comparison, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.Compare")
	defer span.End()
	defer func() { s.observe("compare", err); tracing.SetError(ctx, err) }()

	cfg := s.cfg.Load()
	p, err := newPlan(cfg, sc)
	if err != nil {
		return nil, err
	}
	tracing.AddTag(ctx, "option.side", string(p.side))
	tracing.AddTag(ctx, "grid.points", p.points)
	return s.compareCached(ctx, cfg, p)
}

func (s *Service) compareCached(ctx context.Context, cfg *config.AnalyticsConfig, p plan) (*Comparison, error) {
	if s.results == nil {
		s.cacheResults.WithLabelValues("bypass").Inc()
		return s.compute(ctx, cfg, p), nil
	}

	var out Comparison
	hit, err := s.results.GetOrLoad(ctx, p.key(cfg), &out, func(ctx context.Context) (any, error) {
		return s.compute(ctx, cfg, p), nil
	})
	if err != nil {
		return nil, xerrors.WrapInternal(err, "load comparison failed")
	}
	if hit {
		s.cacheResults.WithLabelValues("hit").Inc()
	} else {
		s.cacheResults.WithLabelValues("miss").Inc()
	}
	out.Cached = hit
	return &out, nil
}

func (s *Service) compute(ctx context.Context, cfg *config.AnalyticsConfig, p plan) *Comparison {
	defer logging.LogDuration(ctx, "analytics.compute", "side", p.side, "points", p.points)()

	m := p.market
	quote := finance.Quote(p.side, m)
	sizing := finance.SizePositions(p.investment, m.Spot, quote.Price, p.direction)
	in := finance.GridInput{Side: p.side, Market: m, Sizing: sizing}

	grid := finance.BuildPriceGrid(in, finance.PriceAxis(m, cfg.GridSigmaSpan, p.points))
	s.gridPoints.WithLabelValues("compare").Observe(float64(len(grid)))

	report := finance.NewRiskReport(grid, in, quote, finance.RiskConfig{
		ConfidenceLevels: p.confidences,
		ReturnTargets:    cfg.ReturnTargets,
	})

	return &Comparison{
		ID:               idgen.GenComparisonNo(),
		Side:             p.side,
		Direction:        p.direction,
		Market:           m,
		ImpliedFromPrice: p.implied,
		Quote:            roundQuote(quote),
		Greeks:           roundGreeks(finance.Greeks(p.side, m)),
		Bands:            roundBands(finance.SigmaBands(m.Spot, m.TimeToExpiry, m.RiskFreeRate, m.Volatility)),
		Sizing:           roundSizing(sizing),
		Risk:             roundReport(report),
		Chart:            ChartSeries(in, cfg.GridSigmaSpan, cfg.ChartPoints),
	}
}

// CompareBatch 并发计算多个情景，并发度受 batch_parallelism 限制。
// 任一情景失败则整体失败，错误上下文中带有情景下标。
func (s *Service) CompareBatch(ctx context.Context, scenarios []Scenario) ([]*Comparison, error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.CompareBatch")
	defer span.End()

	cfg := s.cfg.Load()
	if len(scenarios) == 0 {
		return nil, xerrors.ErrInvalidInput.WithDetail("batch is empty")
	}
	if len(scenarios) > cfg.MaxBatch {
		err := xerrors.ErrBatchTooLarge.WithDetail("batch size %d exceeds maximum %d", len(scenarios), cfg.MaxBatch)
		tracing.SetError(ctx, err)
		return nil, err
	}
	tracing.AddTag(ctx, "batch.size", len(scenarios))

	out := make([]*Comparison, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.BatchParallelism))
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.Compare(gctx, sc)
			if err != nil {
				if xe, ok := xerrors.FromError(err); ok {
					return xe.WithContext("index", i)
				}
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	return out, nil
}

// EstimateIV 给出市场价时反解隐含波动率，否则按 beta 粗估。
func (s *Service) EstimateIV(ctx context.Context, req IVEstimateRequest) (res *IVEstimate, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.EstimateIV")
	defer span.End()
	defer func() { s.observe("iv_estimate", err); tracing.SetError(ctx, err) }()

	if req.MarketPrice == nil {
		pct := finance.EstimateIVFromBeta(req.Beta)
		return &IVEstimate{Percent: money.Cents(pct), Volatility: money.Ratio(pct / 100), Source: IVSourceBeta}, nil
	}

	cfg := s.cfg.Load()
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	m, err := marketState(cfg, MarketInput{Spot: req.Spot, Strike: req.Strike, Days: req.Days, RiskFreeRate: req.RiskFreeRate})
	if err != nil {
		return nil, err
	}
	iv, err := finance.ImpliedVolatility(side, m, *req.MarketPrice)
	if err != nil {
		return nil, err
	}
	return &IVEstimate{Percent: money.Cents(iv * 100), Volatility: money.Ratio(iv), Source: IVSourceMarket}, nil
}
