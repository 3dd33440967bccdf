package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents the health status of a dependency
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single dependency check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// HealthService checks the service's external dependencies: the snapshot
// database and the Solana RPC endpoint. Both are optional at runtime (the
// feed degrades without them), so a failed check reports degraded service
// rather than taking readiness down.
type HealthService struct {
	db     *mongo.Database
	solana *SolanaClient
}

// NewHealthService creates a health service. db may be nil when MongoDB is
// not configured.
func NewHealthService(db *mongo.Database, solana *SolanaClient) *HealthService {
	return &HealthService{
		db:     db,
		solana: solana,
	}
}

// CheckDatabase pings MongoDB and verifies basic command access
func (h *HealthService) CheckDatabase() *HealthCheck {
	start := time.Now()
	check := &HealthCheck{
		Service:   "mongodb",
		Timestamp: start,
	}

	if h.db == nil {
		check.Status = HealthStatusDegraded
		check.Message = "not configured; feed snapshot persistence disabled"
		check.ResponseTime = time.Since(start)
		return check
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.db.Client().Ping(ctx, nil); err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = fmt.Sprintf("ping failed: %v", err)
		check.ResponseTime = time.Since(start)
		return check
	}

	var result bson.M
	if err := h.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&result); err != nil {
		check.Status = HealthStatusDegraded
		check.Message = fmt.Sprintf("database stats failed: %v", err)
		check.ResponseTime = time.Since(start)
		return check
	}

	check.Status = HealthStatusHealthy
	check.Message = "all checks passed"
	check.ResponseTime = time.Since(start)
	return check
}

// CheckRPC verifies the Solana RPC endpoint used by the mint settler
func (h *HealthService) CheckRPC() *HealthCheck {
	start := time.Now()
	check := &HealthCheck{
		Service:   "solana_rpc",
		Timestamp: start,
	}

	if h.solana == nil {
		check.Status = HealthStatusDegraded
		check.Message = "not configured"
		check.ResponseTime = time.Since(start)
		return check
	}

	if err := h.solana.IsHealthy(); err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
		check.ResponseTime = time.Since(start)
		return check
	}

	check.Status = HealthStatusHealthy
	check.Message = "blockhash available"
	check.ResponseTime = time.Since(start)
	return check
}

// GetDetailedHealth returns all dependency checks
func (h *HealthService) GetDetailedHealth() map[string]*HealthCheck {
	return map[string]*HealthCheck{
		"database":   h.CheckDatabase(),
		"solana_rpc": h.CheckRPC(),
	}
}

// OverallStatus folds the dependency checks into one service status. The
// feed works without either dependency, so the worst we self-report from a
// dependency failure is degraded.
func (h *HealthService) OverallStatus() HealthStatus {
	for _, check := range h.GetDetailedHealth() {
		if check.Status != HealthStatusHealthy {
			return HealthStatusDegraded
		}
	}
	return HealthStatusHealthy
}
