// Package events carries admin-audit fan-out over an in-process bus so
// handlers never block on activity-log writes.
package events

import (
	"github.com/asaskevich/EventBus"
)

const TopicActivity = "evercart.activity"

// ActivityEvent describes one admin action for the audit trail.
type ActivityEvent struct {
	OperatorID int64
	Operator   string
	OperatorIP string
	Action     string
	Details    string
	Status     string
}

var bus = EventBus.New()

// PublishActivity emits an audit event; delivery is asynchronous.
func PublishActivity(ev ActivityEvent) {
	bus.Publish(TopicActivity, ev)
}

// SubscribeActivity registers an async audit sink.
func SubscribeActivity(fn func(ev ActivityEvent)) error {
	return bus.SubscribeAsync(TopicActivity, fn, false)
}
