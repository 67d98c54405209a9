package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxWeight bounds every heuristic weight. The largest board has 54 windows,
// so heuristic sums stay far below the 1e9 win sentinel.
const MaxWeight = 1_000_000

// Weights are the evaluator's bonuses. Block* values are subtracted for the
// opponent's windows and must stay below their offensive counterpart.
type Weights struct {
	NearWin      int `json:"near_win" yaml:"near_win"`
	Two          int `json:"two" yaml:"two"`
	Three        int `json:"three" yaml:"three"`
	BlockNearWin int `json:"block_near_win" yaml:"block_near_win"`
	BlockTwo     int `json:"block_two" yaml:"block_two"`
	BlockThree   int `json:"block_three" yaml:"block_three"`
	Center       int `json:"center" yaml:"center"`
	CenterEven   int `json:"center_even" yaml:"center_even"`
}

// Depths maps board size to the search ply limit per tier.
type Depths struct {
	Medium     map[int]int `json:"medium" yaml:"medium"`
	Impossible map[int]int `json:"impossible" yaml:"impossible"`
}

type Search struct {
	MaxNodes int `json:"max_nodes" yaml:"max_nodes"`
}

type Worker struct {
	Workers   int `json:"workers" yaml:"workers"`
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

type Config struct {
	HTTPAddr   string  `json:"http_addr" yaml:"http_addr"`
	LogLevel   string  `json:"log_level" yaml:"log_level"`
	LogPretty  bool    `json:"log_pretty" yaml:"log_pretty"`
	RatePerSec float64 `json:"rate_per_sec" yaml:"rate_per_sec"`
	RateBurst  int     `json:"rate_burst" yaml:"rate_burst"`

	Weights Weights `json:"weights" yaml:"weights"`
	Depths  Depths  `json:"depths" yaml:"depths"`
	Search  Search  `json:"search" yaml:"search"`
	Worker  Worker  `json:"worker" yaml:"worker"`
}

func DefaultWeights() Weights {
	return Weights{
		NearWin:      10000,
		Two:          100,
		Three:        10,
		BlockNearWin: 9000,
		BlockTwo:     90,
		BlockThree:   9,
		Center:       5,
		CenterEven:   2,
	}
}

func DefaultDepths() Depths {
	return Depths{
		Medium:     map[int]int{3: 5, 4: 4, 5: 3, 6: 3},
		Impossible: map[int]int{3: 9, 4: 6, 5: 4, 6: 4},
	}
}

func Default() Config {
	return Config{
		HTTPAddr:   ":8080",
		LogLevel:   "info",
		RatePerSec: 20,
		RateBurst:  40,
		Weights:    DefaultWeights(),
		Depths:     DefaultDepths(),
		Search:     Search{MaxNodes: 5_000_000},
		Worker:     Worker{Workers: 4, QueueSize: 64},
	}
}

// Load builds the configuration: defaults, then the YAML (or JSON) file at
// path if it exists, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadEnv(cfg *Config) {
	cfg.HTTPAddr = getenvString("XO_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getenvString("XO_LOG_LEVEL", cfg.LogLevel)
	cfg.RatePerSec = getenvFloat("XO_RATE_PER_SEC", cfg.RatePerSec)
	cfg.RateBurst = getenvInt("XO_RATE_BURST", cfg.RateBurst)
	cfg.Search.MaxNodes = getenvInt("XO_MAX_NODES", cfg.Search.MaxNodes)
	cfg.Worker.Workers = getenvInt("XO_WORKERS", cfg.Worker.Workers)
	cfg.Worker.QueueSize = getenvInt("XO_QUEUE_SIZE", cfg.Worker.QueueSize)

	w := &cfg.Weights
	w.NearWin = getenvInt("W_NEAR_WIN", w.NearWin)
	w.Two = getenvInt("W_TWO", w.Two)
	w.Three = getenvInt("W_THREE", w.Three)
	w.BlockNearWin = getenvInt("W_BLOCK_NEAR_WIN", w.BlockNearWin)
	w.BlockTwo = getenvInt("W_BLOCK_TWO", w.BlockTwo)
	w.BlockThree = getenvInt("W_BLOCK_THREE", w.BlockThree)
	w.Center = getenvInt("W_CENTER", w.Center)
	w.CenterEven = getenvInt("W_CENTER_EVEN", w.CenterEven)
}

func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for _, tier := range []map[int]int{c.Depths.Medium, c.Depths.Impossible} {
		for size, depth := range tier {
			if size < 3 || size > 6 {
				return fmt.Errorf("depth configured for unsupported board size %d", size)
			}
			if depth < 0 {
				return fmt.Errorf("negative search depth %d for board size %d", depth, size)
			}
		}
	}
	for size, medium := range c.Depths.Medium {
		if impossible, ok := c.Depths.Impossible[size]; ok && impossible > 0 && medium > impossible {
			return fmt.Errorf("medium depth %d exceeds impossible depth %d for board size %d", medium, impossible, size)
		}
	}
	if c.Search.MaxNodes < 0 {
		return errors.New("search.max_nodes must not be negative")
	}
	if c.Worker.Workers <= 0 {
		return errors.New("worker.workers must be positive")
	}
	if c.Worker.QueueSize < 0 {
		return errors.New("worker.queue_size must not be negative")
	}
	if c.RatePerSec < 0 || c.RateBurst < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}

func (w Weights) Validate() error {
	all := []int{w.NearWin, w.Two, w.Three, w.BlockNearWin, w.BlockTwo, w.BlockThree, w.Center, w.CenterEven}
	for _, v := range all {
		if v < 0 || v >= MaxWeight {
			return fmt.Errorf("weight %d outside [0, %d)", v, MaxWeight)
		}
	}
	pairs := [3][2]int{{w.NearWin, w.BlockNearWin}, {w.Two, w.BlockTwo}, {w.Three, w.BlockThree}}
	for _, p := range pairs {
		// A disabled feature may be zero on both sides.
		if p[1] >= p[0] && !(p[0] == 0 && p[1] == 0) {
			return fmt.Errorf("block weight %d must be below its offensive weight %d", p[1], p[0])
		}
	}
	return nil
}
