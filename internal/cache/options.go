package cache

import (
	"github.com/amakane-hakari/suimon/internal/metrics"
)

type logLike interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// TriggerMode は upperWaterMark 超過時の回収実行方法を表します。
type TriggerMode int

const (
	// TriggerWorker は常駐ワーカーを起床させて回収します（既定）。
	TriggerWorker TriggerMode = iota
	// TriggerInline は契機となった put の呼び出し元で同期的に回収します。
	TriggerInline
	// TriggerSpawn は契機ごとに使い捨ての goroutine で回収します。
	TriggerSpawn
)

// Config はキャッシュの設定を表します。
type Config struct {
	Shards          int // 2 の冪推奨。0/未指定なら 16
	InitialCapacity int // 0 なら upperWaterMark の 3/4
	Mode            TriggerMode
	RepassBudget    int // sweep フェーズ 2 の再走査回数。既定 1
	Logger          logLike
	Metrics         metrics.Interface
}

// Option はキャッシュのオプションを設定する関数です。
type Option func(*Config)

// WithLogger はキャッシュのロガーを設定するオプションです。
func WithLogger(l logLike) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics はキャッシュのメトリクスを設定するオプションです。
func WithMetrics(m metrics.Interface) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithShards はキャッシュのシャード数を設定するオプションです。
func WithShards(n int) Option {
	return func(c *Config) { c.Shards = n }
}

// WithInitialCapacity はマップの初期容量ヒントを設定するオプションです。
func WithInitialCapacity(n int) Option {
	return func(c *Config) { c.InitialCapacity = n }
}

// WithTriggerMode は回収の実行方法を設定するオプションです。
func WithTriggerMode(m TriggerMode) Option {
	return func(c *Config) { c.Mode = m }
}

// WithRepassBudget は sweep フェーズ 2 の再走査回数を設定するオプションです。
func WithRepassBudget(n int) Option {
	return func(c *Config) { c.RepassBudget = n }
}
