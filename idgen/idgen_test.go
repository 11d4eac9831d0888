package idgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/wyfcoding/optionlab/config"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SnowflakeConfig
		wantErr error
	}{
		{"default snowflake", config.SnowflakeConfig{MachineID: 3}, nil},
		{"sonyflake", config.SnowflakeConfig{Type: "sonyflake", MachineID: 4000, StartTime: "2024-01-01"}, nil},
		{"unknown type", config.SnowflakeConfig{Type: "uuid"}, ErrUnsupportedType},
		{"bad start", config.SnowflakeConfig{StartTime: "yesterday"}, ErrParseTime},
		{"snowflake machine range", config.SnowflakeConfig{MachineID: 2048}, ErrInvalidMachineID},
		{"sonyflake machine range", config.SnowflakeConfig{Type: "sonyflake", MachineID: -1}, ErrInvalidMachineID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			seen := make(map[int64]bool)
			for range 1000 {
				id := g.Generate()
				if id <= 0 || seen[id] {
					t.Fatalf("bad or duplicate id %d", id)
				}
				seen[id] = true
			}
		})
	}
}

func TestPrefixedIDs(t *testing.T) {
	if err := Init(config.SnowflakeConfig{MachineID: 7}); err != nil {
		t.Fatal(err)
	}
	if id := GenComparisonNo(); !strings.HasPrefix(id, "CMP") || len(id) < 4 {
		t.Errorf("GenComparisonNo = %q", id)
	}
	if a, b := GenRequestID(), GenRequestID(); a == b {
		t.Errorf("request ids collide: %s", a)
	}
}
