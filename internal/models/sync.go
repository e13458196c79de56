package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetType identifies a marketplace destination for a sync run
type TargetType string

const (
	TargetOzon      TargetType = "OZON"
	TargetMarketFBS TargetType = "MARKET_FBS"
	TargetMarketDBS TargetType = "MARKET_DBS"
)

// Valid reports whether t is a known sync target
func (t TargetType) Valid() bool {
	switch t {
	case TargetOzon, TargetMarketFBS, TargetMarketDBS:
		return true
	}
	return false
}

// RunStatus represents the status of a sync run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// TriggerType represents what triggered the sync
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerScheduled TriggerType = "SCHEDULED"
)

// TargetReport summarizes the outcome of one target within a sync run
type TargetReport struct {
	Target          TargetType `json:"target"`
	OffersSeen      int        `json:"offersSeen"`
	StocksSubmitted int        `json:"stocksSubmitted"`
	StockBatches    int        `json:"stockBatches"`
	InStock         int        `json:"inStock"`
	PricesSubmitted int        `json:"pricesSubmitted"`
	PriceBatches    int        `json:"priceBatches"`
	Error           string     `json:"error,omitempty"`
}

// SyncRun represents one full synchronization pass across the configured targets
type SyncRun struct {
	ID           uuid.UUID      `json:"id"`
	Status       RunStatus      `json:"status"`
	TriggeredBy  TriggerType    `json:"triggeredBy"`
	FeedRecords  int            `json:"feedRecords"`
	Targets      []TargetReport `json:"targets"`
	StartedAt    time.Time      `json:"startedAt"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
}
