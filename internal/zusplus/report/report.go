// Package report aggregates in-process usage counters for the protected
// administrative report. The numbers reset with the process; long-term
// analytics are out of scope.
package report

import (
	"sync/atomic"
	"time"
)

// Collector counts application activity since start.
type Collector struct {
	startedAt time.Time

	projections     atomic.Int64
	recommendations atomic.Int64
	chatMessages    atomic.Int64
	logins          atomic.Int64
	verifications   atomic.Int64
}

// NewCollector starts a collector with all counters at zero.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now().UTC()}
}

func (c *Collector) AddProjection()     { c.projections.Add(1) }
func (c *Collector) AddRecommendation() { c.recommendations.Add(1) }
func (c *Collector) AddChatMessage()    { c.chatMessages.Add(1) }
func (c *Collector) AddLogin()          { c.logins.Add(1) }
func (c *Collector) AddVerification()   { c.verifications.Add(1) }

// Report is a point-in-time snapshot of the counters.
type Report struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Since           time.Time `json:"since"`
	Projections     int64     `json:"projections"`
	Recommendations int64     `json:"recommendations"`
	ChatMessages    int64     `json:"chat_messages"`
	Logins          int64     `json:"logins"`
	Verifications   int64     `json:"verifications"`
}

// Snapshot reads all counters at once.
func (c *Collector) Snapshot() Report {
	return Report{
		GeneratedAt:     time.Now().UTC(),
		Since:           c.startedAt,
		Projections:     c.projections.Load(),
		Recommendations: c.recommendations.Load(),
		ChatMessages:    c.chatMessages.Load(),
		Logins:          c.logins.Load(),
		Verifications:   c.verifications.Load(),
	}
}
