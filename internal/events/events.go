// Package events publishes coordination lifecycle events to NATS so
// downstream consumers (model sync, inspection workflows, dashboards) can
// react to geometry changes without polling the daemon.
//
// Events are published to subjects under a configurable prefix:
//
//	{prefix}.element.routed
//	{prefix}.collision.detected
//	{prefix}.element.adjusted
//	{prefix}.hanger.created
//
// A nil *Publisher is safe to call and publishes nothing, so the daemon
// wires one unconditionally and enables it from configuration.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "mep.coordination"

// Subject suffixes under the configured prefix.
const (
	subjectElementRouted     = "element.routed"
	subjectCollisionDetected = "collision.detected"
	subjectElementAdjusted   = "element.adjusted"
	subjectHangerCreated     = "hanger.created"
)

// ElementRouted reports one planned path.
type ElementRouted struct {
	Kind      string    `json:"kind"`
	System    string    `json:"system,omitempty"`
	Level     string    `json:"level,omitempty"`
	Points    int       `json:"points"`
	LengthM   float64   `json:"length_m"`
	Pattern   string    `json:"pattern,omitempty"`
	Warnings  int       `json:"warnings"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// CollisionsDetected reports one detection batch.
type CollisionsDetected struct {
	Level     string         `json:"level"`
	Pairs     int            `json:"pairs"`
	Classes   map[string]int `json:"classes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ElementAdjusted reports one displaced element after conflict resolution.
type ElementAdjusted struct {
	ElementID string    `json:"element_id"`
	Type      string    `json:"adjustment_type"`
	Reason    string    `json:"adjustment_reason"`
	Timestamp time.Time `json:"timestamp"`
}

// HangersCreated reports one placement batch. Integrated batches carry the
// member element ids and the shared space id.
type HangersCreated struct {
	ElementIDs []string  `json:"element_ids,omitempty"`
	SpaceID    string    `json:"space_id,omitempty"`
	Count      int       `json:"count"`
	Integrated bool      `json:"integrated"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes coordination events over a NATS connection. The
// connection is owned by the caller; Publisher never closes it.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// NewPublisher creates a publisher over an established NATS connection.
// An empty prefix falls back to DefaultSubjectPrefix.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{nc: nc, prefix: prefix}
}

// ElementRouted publishes an element.routed event.
func (p *Publisher) ElementRouted(ev ElementRouted) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return p.publish(subjectElementRouted, ev)
}

// CollisionsDetected publishes a collision.detected event.
func (p *Publisher) CollisionsDetected(ev CollisionsDetected) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return p.publish(subjectCollisionDetected, ev)
}

// ElementAdjusted publishes an element.adjusted event.
func (p *Publisher) ElementAdjusted(ev ElementAdjusted) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return p.publish(subjectElementAdjusted, ev)
}

// HangersCreated publishes a hanger.created event.
func (p *Publisher) HangersCreated(ev HangersCreated) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return p.publish(subjectHangerCreated, ev)
}

// publish marshals the payload and publishes it under the prefix. Nil
// publishers and publishers without a connection are no-ops.
func (p *Publisher) publish(suffix string, payload any) error {
	if p == nil || p.nc == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", suffix, err)
	}

	if err := p.nc.Publish(p.prefix+"."+suffix, data); err != nil {
		return fmt.Errorf("publish %s event: %w", suffix, err)
	}
	return nil
}
