package attacker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// ResultSummary は負荷試験の結果概要です。
//
// 回収が進むと GET は追い出し済みキーに当たって 404 を返します。これは
// 失敗ではなくこのワークロードの想定内なので、素の成功率とは別に
// キャッシュミスとして数え、ミス込みの実効成功率を併記します。
type ResultSummary struct {
	Requests         uint64                `json:"requests"`
	Rate             float64               `json:"rate_req_per_sec"`
	Success          float64               `json:"success_ratio"`
	CacheMisses      uint64                `json:"cache_misses"`
	EffectiveSuccess float64               `json:"effective_success_ratio"`
	Throughput       float64               `json:"throughput_bytes_per_sec"`
	Latencies        vegeta.LatencyMetrics `json:"latencies"`
	StatusCodes      map[string]int        `json:"status_codes"`
	Errors           []string              `json:"errors"`
	Duration         time.Duration         `json:"duration"`
}

// Runner は 負荷試験を実行するための構造体です。
type Runner struct {
	Rate     int
	Duration time.Duration
	Timeout  time.Duration
	Name     string
	Output   string
}

// isCacheMiss は追い出し済みキーへの GET を表す結果かどうかを返します。
func isCacheMiss(res *vegeta.Result) bool {
	return res.Method == http.MethodGet && res.Code == http.StatusNotFound
}

// succeeded はキャッシュミスを成功側に含めた合否判定です。
func succeeded(res *vegeta.Result) bool {
	return (res.Code >= 200 && res.Code < 400) || isCacheMiss(res)
}

func effectiveRatio(ok, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// Run は 指定されたターゲッターで負荷試験を実行し、結果の概要を返します。
func (r *Runner) Run(targeter vegeta.Targeter) (*ResultSummary, error) {
	rate := vegeta.Rate{Freq: r.Rate, Per: time.Second}
	att := vegeta.NewAttacker(vegeta.Timeout(r.Timeout))

	results := att.Attack(targeter, rate, r.Duration, r.Name)

	var buf bytes.Buffer
	enc := vegeta.NewEncoder(&buf)

	var metrics vegeta.Metrics
	var misses, effectiveOK, total uint64
	for res := range results {
		metrics.Add(res)
		total++
		if isCacheMiss(res) {
			misses++
		}
		if succeeded(res) {
			effectiveOK++
		}
		if err := enc.Encode(res); err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}
	metrics.Close()

	if err := os.WriteFile(r.Output, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}

	summary := &ResultSummary{
		Requests:         metrics.Requests,
		Rate:             metrics.Rate,
		Success:          metrics.Success,
		CacheMisses:      misses,
		EffectiveSuccess: effectiveRatio(effectiveOK, total),
		Throughput:       metrics.Throughput,
		Latencies:        metrics.Latencies,
		StatusCodes:      metrics.StatusCodes,
		Errors:           metrics.Errors,
		Duration:         metrics.Duration,
	}

	reqJSON, _ := json.MarshalIndent(summary, "", " ")
	fmt.Printf("\n=== Summary(JSON) ===\n%s\n", string(reqJSON))

	return summary, nil
}
