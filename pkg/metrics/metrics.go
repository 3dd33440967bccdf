package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds performance metrics for the application
type Metrics struct {
	// Request metrics
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`

	// Response time metrics
	AverageResponseTime time.Duration `json:"average_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`

	// Feed cache metrics
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	// Upstream fetch metrics
	FetchCalls       int64         `json:"fetch_calls"`
	FetchFailures    int64         `json:"fetch_failures"`
	FetchFallbacks   int64         `json:"fetch_fallbacks"`
	StaleFetchesDrop int64         `json:"stale_fetches_dropped"`
	AverageFetchTime time.Duration `json:"average_fetch_time"`

	// Mint metrics
	MintAttempts    int64 `json:"mint_attempts"`
	MintRejections  int64 `json:"mint_rejections"`
	MintSettlements int64 `json:"mint_settlements"`

	// Concurrency metrics
	ActiveRequests int64 `json:"active_requests"`

	// Internal fields for calculations
	totalResponseTime time.Duration
	totalFetchTime    time.Duration
	mutex             sync.RWMutex
}

// MetricsCollector provides thread-safe metrics collection
type MetricsCollector struct {
	metrics   *Metrics
	startTime time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: &Metrics{
			MinResponseTime: time.Duration(^uint64(0) >> 1), // Max duration
		},
		startTime: time.Now(),
	}
}

// RecordRequest records a new request
func (mc *MetricsCollector) RecordRequest() {
	atomic.AddInt64(&mc.metrics.TotalRequests, 1)
	atomic.AddInt64(&mc.metrics.ActiveRequests, 1)
}

// RecordRequestComplete records request completion
func (mc *MetricsCollector) RecordRequestComplete(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.metrics.ActiveRequests, -1)

	if success {
		atomic.AddInt64(&mc.metrics.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&mc.metrics.FailedRequests, 1)
	}

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	mc.metrics.totalResponseTime += duration

	if duration < mc.metrics.MinResponseTime {
		mc.metrics.MinResponseTime = duration
	}
	if duration > mc.metrics.MaxResponseTime {
		mc.metrics.MaxResponseTime = duration
	}

	totalRequests := atomic.LoadInt64(&mc.metrics.TotalRequests)
	if totalRequests > 0 {
		mc.metrics.AverageResponseTime = mc.metrics.totalResponseTime / time.Duration(totalRequests)
	}
}

// RecordCacheHit records a feed cache hit
func (mc *MetricsCollector) RecordCacheHit() {
	atomic.AddInt64(&mc.metrics.CacheHits, 1)
}

// RecordCacheMiss records a feed cache miss
func (mc *MetricsCollector) RecordCacheMiss() {
	atomic.AddInt64(&mc.metrics.CacheMisses, 1)
}

// RecordFetch records an upstream feed fetch attempt
func (mc *MetricsCollector) RecordFetch(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.metrics.FetchCalls, 1)

	if !success {
		atomic.AddInt64(&mc.metrics.FetchFailures, 1)
	}

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	mc.metrics.totalFetchTime += duration

	totalFetches := atomic.LoadInt64(&mc.metrics.FetchCalls)
	if totalFetches > 0 {
		mc.metrics.AverageFetchTime = mc.metrics.totalFetchTime / time.Duration(totalFetches)
	}
}

// RecordFallback records a fall-through to synthetic or static card data
func (mc *MetricsCollector) RecordFallback() {
	atomic.AddInt64(&mc.metrics.FetchFallbacks, 1)
}

// RecordStaleFetchDropped records a fetch result discarded by the ordering guard
func (mc *MetricsCollector) RecordStaleFetchDropped() {
	atomic.AddInt64(&mc.metrics.StaleFetchesDrop, 1)
}

// RecordMintAttempt records a mint request reaching the simulator
func (mc *MetricsCollector) RecordMintAttempt() {
	atomic.AddInt64(&mc.metrics.MintAttempts, 1)
}

// RecordMintRejection records a mint request rejected by preconditions
func (mc *MetricsCollector) RecordMintRejection() {
	atomic.AddInt64(&mc.metrics.MintRejections, 1)
}

// RecordMintSettlement records a settled mint
func (mc *MetricsCollector) RecordMintSettlement() {
	atomic.AddInt64(&mc.metrics.MintSettlements, 1)
}

// GetMetrics returns a copy of current metrics
func (mc *MetricsCollector) GetMetrics() *Metrics {
	mc.metrics.mutex.RLock()
	defer mc.metrics.mutex.RUnlock()

	return &Metrics{
		TotalRequests:       atomic.LoadInt64(&mc.metrics.TotalRequests),
		SuccessfulRequests:  atomic.LoadInt64(&mc.metrics.SuccessfulRequests),
		FailedRequests:      atomic.LoadInt64(&mc.metrics.FailedRequests),
		AverageResponseTime: mc.metrics.AverageResponseTime,
		MinResponseTime:     mc.metrics.MinResponseTime,
		MaxResponseTime:     mc.metrics.MaxResponseTime,
		CacheHits:           atomic.LoadInt64(&mc.metrics.CacheHits),
		CacheMisses:         atomic.LoadInt64(&mc.metrics.CacheMisses),
		FetchCalls:          atomic.LoadInt64(&mc.metrics.FetchCalls),
		FetchFailures:       atomic.LoadInt64(&mc.metrics.FetchFailures),
		FetchFallbacks:      atomic.LoadInt64(&mc.metrics.FetchFallbacks),
		StaleFetchesDrop:    atomic.LoadInt64(&mc.metrics.StaleFetchesDrop),
		AverageFetchTime:    mc.metrics.AverageFetchTime,
		MintAttempts:        atomic.LoadInt64(&mc.metrics.MintAttempts),
		MintRejections:      atomic.LoadInt64(&mc.metrics.MintRejections),
		MintSettlements:     atomic.LoadInt64(&mc.metrics.MintSettlements),
		ActiveRequests:      atomic.LoadInt64(&mc.metrics.ActiveRequests),
	}
}

// GetUptime returns the uptime since metrics collection started
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetCacheHitRatio returns the cache hit ratio as a percentage
func (mc *MetricsCollector) GetCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&mc.metrics.CacheHits)
	misses := atomic.LoadInt64(&mc.metrics.CacheMisses)
	total := hits + misses

	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// GetSuccessRate returns the request success rate as a percentage
func (mc *MetricsCollector) GetSuccessRate() float64 {
	successful := atomic.LoadInt64(&mc.metrics.SuccessfulRequests)
	total := atomic.LoadInt64(&mc.metrics.TotalRequests)

	if total == 0 {
		return 0.0
	}
	return float64(successful) / float64(total) * 100.0
}

// Reset resets all metrics
func (mc *MetricsCollector) Reset() {
	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	atomic.StoreInt64(&mc.metrics.TotalRequests, 0)
	atomic.StoreInt64(&mc.metrics.SuccessfulRequests, 0)
	atomic.StoreInt64(&mc.metrics.FailedRequests, 0)
	atomic.StoreInt64(&mc.metrics.CacheHits, 0)
	atomic.StoreInt64(&mc.metrics.CacheMisses, 0)
	atomic.StoreInt64(&mc.metrics.FetchCalls, 0)
	atomic.StoreInt64(&mc.metrics.FetchFailures, 0)
	atomic.StoreInt64(&mc.metrics.FetchFallbacks, 0)
	atomic.StoreInt64(&mc.metrics.StaleFetchesDrop, 0)
	atomic.StoreInt64(&mc.metrics.MintAttempts, 0)
	atomic.StoreInt64(&mc.metrics.MintRejections, 0)
	atomic.StoreInt64(&mc.metrics.MintSettlements, 0)
	atomic.StoreInt64(&mc.metrics.ActiveRequests, 0)

	mc.metrics.AverageResponseTime = 0
	mc.metrics.MinResponseTime = time.Duration(^uint64(0) >> 1)
	mc.metrics.MaxResponseTime = 0
	mc.metrics.AverageFetchTime = 0
	mc.metrics.totalResponseTime = 0
	mc.metrics.totalFetchTime = 0

	mc.startTime = time.Now()
}
