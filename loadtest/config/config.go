package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config は負荷試験のパラメータです。
// Keys をキャッシュサイズより十分大きく取ると、書き込みが
// upperWaterMark を越えてバックグラウンド回収が駆動されます。
type Config struct {
	BaseURL    string
	Keys       int
	ReadRatio  float64
	Rate       int
	Duration   time.Duration
	ValueSize  int
	Output     string
	Timeout    time.Duration
	Name       string
	DisablePUT bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFloatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load は環境変数とフラグから設定を読み込みます。
func Load() *Config {
	var c Config

	defaultBase := envOr("LT_BASE_URL", "http://localhost:8080")
	defaultKeys := parseIntEnv("LT_KEYS", 200_000)
	defaultRead := parseFloatEnv("LT_READ_RATIO", 0.8)
	defaultRate := parseIntEnv("LT_RATE", 100)
	defaultDuration := envOr("LT_DURATION", "30s")
	defaultValueSize := parseIntEnv("LT_VALUE_SIZE", 128)
	defaultOutput := envOr("LT_OUTPUT", "vegeta_results.bin")
	defaultTimeout := envOr("LT_TIMEOUT", "5s")
	defaultName := envOr("LT_NAME", "mixed")
	disablePUT := os.Getenv("LT_DISABLE_PUT") == "1" || os.Getenv("LT_DISABLE_PUT") == "true"

	dur, _ := time.ParseDuration(defaultDuration)
	to, _ := time.ParseDuration(defaultTimeout)

	flag.StringVar(&c.BaseURL, "base-url", defaultBase, "Base URL of the cache server")
	flag.IntVar(&c.Keys, "keys", defaultKeys, "Size of the key space (set above the cache size to drive reclamation)")
	flag.Float64Var(&c.ReadRatio, "read-ratio", defaultRead, "Ratio of read operations")
	flag.IntVar(&c.Rate, "rate", defaultRate, "Requests per second")
	flag.DurationVar(&c.Duration, "duration", dur, "Duration of the load test")
	flag.IntVar(&c.ValueSize, "value-size", defaultValueSize, "Size of each value")
	flag.StringVar(&c.Output, "output", defaultOutput, "Result output file")
	flag.DurationVar(&c.Timeout, "timeout", to, "Request timeout")
	flag.StringVar(&c.Name, "name", defaultName, "Name of the load test")
	flag.BoolVar(&c.DisablePUT, "disable-put", disablePUT, "Disable PUT requests")

	flag.Parse()
	return &c
}
