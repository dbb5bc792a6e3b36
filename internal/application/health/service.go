package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DBPinger is satisfied by database.Pinger. A nil pinger reports the
// database as disconnected.
type DBPinger interface {
	Ping() error
}

const (
	StatusOK    = "ok"
	StatusIssue = "issue"

	depConnected    = "connected"
	depDisconnected = "disconnected"
	depError        = "error"
)

type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapInMB int `json:"heapInUseMb"`
}

type TrafficInfo struct {
	TotalRequests   int             `json:"totalRequests"`
	SuccessCount    int             `json:"successCount"`
	FailedCount     int             `json:"failedCount"`
	SuccessRate     string          `json:"successRate"`
	AvgResponseTime string          `json:"avgResponseTime,omitempty"`
	LastRequest     json.RawMessage `json:"lastRequest,omitempty"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collector gathers the health report. Engine may be nil, in which case the
// calculator check is skipped.
type Collector struct {
	Rdb    *redis.Client
	DB     DBPinger
	Engine *finance.Engine
}

// probeTerms is a fixed three-year bullet bond; valuing it exercises the
// whole engine path.
var probeTerms = finance.BondTerms{
	FaceValue:  decimal.NewFromInt(1000),
	CouponRate: finance.Percent(decimal.NewFromInt(8)),
	TermYears:  3,
	Frequency:  2,
	IssueDate:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
}

func (h *Collector) Collect(ctx context.Context) Report {
	report := Report{Dependencies: make(map[string]DepStatus)}

	report.Dependencies["database"] = timed(h.DB != nil, func() error { return h.DB.Ping() })
	report.Dependencies["redis"] = timed(h.Rdb != nil, func() error { return h.Rdb.Ping(ctx).Err() })
	if h.Engine != nil {
		report.Dependencies["calculator"] = timed(true, func() error {
			_, err := h.Engine.ProcessBond(probeTerms)
			return err
		})
	}

	startMs := time.Now().UnixMilli()
	if report.Dependencies["redis"].Status == depConnected {
		report.Traffic, startMs = h.traffic(ctx, startMs)
	} else {
		report.Traffic.SuccessRate = "100"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc >> 20), HeapInMB: int(m.HeapInuse >> 20)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	report.Status = StatusOK
	for _, dep := range report.Dependencies {
		if dep.Status != depConnected {
			report.Status = StatusIssue
		}
	}
	return report
}

func timed(configured bool, ping func() error) DepStatus {
	if !configured {
		return DepStatus{Status: depDisconnected}
	}
	start := time.Now()
	if err := ping(); err != nil {
		return DepStatus{Status: depError}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: depConnected, PingMs: &ms}
}

func (h *Collector) traffic(ctx context.Context, nowMs int64) (TrafficInfo, int64) {
	vals, _ := h.Rdb.MGet(ctx,
		middleware.KeyReqTotal,
		middleware.KeyReqErrors,
		middleware.KeyResTime,
		middleware.KeyResCount,
		middleware.KeyStartTime,
		middleware.KeyLastReq,
	).Result()
	get := func(i int) string {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				return s
			}
		}
		return ""
	}

	startMs := nowMs
	if t, err := strconv.ParseInt(get(4), 10, 64); err == nil {
		startMs = t
	} else {
		h.Rdb.Set(ctx, middleware.KeyStartTime, nowMs, 0)
	}

	var t TrafficInfo
	t.TotalRequests, _ = strconv.Atoi(get(0))
	t.FailedCount, _ = strconv.Atoi(get(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	t.SuccessRate = "100"
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(get(2), 64)
	if count, _ := strconv.Atoi(get(3)); count > 0 {
		t.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := get(5); last != "" && json.Valid([]byte(last)) {
		t.LastRequest = json.RawMessage(last)
	}
	return t, startMs
}
