// Package queue defines the activity events exchanged over RabbitMQ and the
// worker-side consumer that records them.
package queue

import (
	"fmt"
	"strings"
	"time"
)

// EventType names a domain event.
type EventType string

const (
	ZoneSubmitted     EventType = "zone.submitted"
	ZoneApproved      EventType = "zone.approved"
	ZoneRejected      EventType = "zone.rejected"
	ZoneDeleted       EventType = "zone.deleted"
	TaskCreated       EventType = "task.created"
	TaskStatusChanged EventType = "task.status_changed"
	TaskDeleted       EventType = "task.deleted"
	ReportSubmitted   EventType = "report.submitted"
)

// ActivityEvent is one user action. Zero-valued ids are omitted from the
// payload.
type ActivityEvent struct {
	Type       EventType `json:"type"`
	ActorID    uint64    `json:"actor_id"`
	ActorRole  string    `json:"actor_role,omitempty"`
	ZoneID     uint64    `json:"zone_id,omitempty"`
	TaskID     uint64    `json:"task_id,omitempty"`
	ReportID   uint64    `json:"report_id,omitempty"`
	CityID     uint64    `json:"city_id,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Line renders the event as a single log line.
func (e ActivityEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | actor_id=%d", e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.ActorID)
	if e.ActorRole != "" {
		fmt.Fprintf(&b, " | role=%s", e.ActorRole)
	}
	for _, f := range []struct {
		name string
		v    uint64
	}{{"zone_id", e.ZoneID}, {"task_id", e.TaskID}, {"report_id", e.ReportID}, {"city_id", e.CityID}} {
		if f.v != 0 {
			fmt.Fprintf(&b, " | %s=%d", f.name, f.v)
		}
	}
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&b, " | %s -> %s", e.From, e.To)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " | detail=%q", e.Detail)
	}
	b.WriteByte('\n')
	return b.String()
}
