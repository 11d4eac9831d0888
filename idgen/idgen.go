// Package idgen 生成分布式唯一 ID，用于请求 ID 与情景对比编号。
// 支持 Snowflake 和 Sonyflake 两种算法，通过配置选择。
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sony/sonyflake"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/logging"
)

var (
	ErrUnsupportedType  = errors.New("unsupported id generator type")
	ErrParseTime        = errors.New("failed to parse start time")
	ErrInvalidMachineID = errors.New("machine_id out of range")
)

const maxRetries = 3

// Generator ID 生成器。
type Generator interface {
	Generate() int64
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

func parseStart(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	st, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrParseTime, err)
	}
	return st, nil
}

// NewSnowflakeGenerator 每毫秒 4096 个 ID，machine_id 取值 [0, 1023]。
func NewSnowflakeGenerator(cfg config.SnowflakeConfig) (Generator, error) {
	st, err := parseStart(cfg.StartTime, time.UnixMilli(snowflake.Epoch))
	if err != nil {
		return nil, err
	}
	if cfg.MachineID < 0 || cfg.MachineID > 1023 {
		return nil, ErrInvalidMachineID
	}
	snowflake.Epoch = st.UnixMilli()

	node, err := snowflake.NewNode(cfg.MachineID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}
	logging.Default().Info("snowflake generator initialized", "machine_id", cfg.MachineID, "epoch", snowflake.Epoch)
	return &snowflakeGenerator{node: node}, nil
}

func (g *snowflakeGenerator) Generate() int64 {
	return g.node.Generate().Int64()
}

type sonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflakeGenerator 每 10ms 256 个 ID，machine_id 取值 [0, 65535]。
func NewSonyflakeGenerator(cfg config.SnowflakeConfig) (Generator, error) {
	st, err := parseStart(cfg.StartTime, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	if cfg.MachineID < 0 || cfg.MachineID > 65535 {
		return nil, ErrInvalidMachineID
	}
	mid := uint16(cfg.MachineID)

	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: st,
		MachineID: func() (uint16, error) { return mid, nil },
	})
	if err != nil {
		return nil, fmt.Errorf("create sonyflake: %w", err)
	}
	logging.Default().Info("sonyflake generator initialized", "machine_id", mid, "start_time", st)
	return &sonyflakeGenerator{sf: sf}, nil
}

func (g *sonyflakeGenerator) Generate() int64 {
	for i := range maxRetries {
		id, err := g.sf.NextID()
		if err == nil {
			return int64(id & 0x7FFFFFFFFFFFFFFF)
		}
		logging.Default().Warn("sonyflake generate failed, retrying", "retry", i+1, "error", err)
		time.Sleep(10 * time.Millisecond)
	}
	logging.Default().Error("sonyflake generate failed after retries")
	return 0
}

// NewGenerator 根据 cfg.Type 选择算法，空值默认 snowflake。
func NewGenerator(cfg config.SnowflakeConfig) (Generator, error) {
	switch cfg.Type {
	case "sonyflake":
		return NewSonyflakeGenerator(cfg)
	case "snowflake", "":
		return NewSnowflakeGenerator(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

var (
	defaultGenerator Generator
	mu               sync.Mutex
)

// Init 设置全局生成器，重复调用时以最后一次为准。
func Init(cfg config.SnowflakeConfig) error {
	g, err := NewGenerator(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultGenerator = g
	mu.Unlock()
	return nil
}

// Default 返回全局生成器，未初始化时以 machine_id=1 的 snowflake 兜底。
func Default() Generator {
	mu.Lock()
	defer mu.Unlock()
	if defaultGenerator == nil {
		g, err := NewSnowflakeGenerator(config.SnowflakeConfig{MachineID: 1})
		if err != nil {
			panic(fmt.Errorf("init default id generator: %w", err))
		}
		defaultGenerator = g
	}
	return defaultGenerator
}

// GenID 使用全局生成器生成 ID。
func GenID() int64 {
	return Default().Generate()
}

// GenRequestID 请求 ID，格式 "REQ" + ID。
func GenRequestID() string {
	return "REQ" + strconv.FormatInt(GenID(), 10)
}

// GenComparisonNo 情景对比编号，格式 "CMP" + ID。
func GenComparisonNo() string {
	return "CMP" + strconv.FormatInt(GenID(), 10)
}
