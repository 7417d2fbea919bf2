// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// VisitEvent is published by the traffic-logging middleware for every
// observed page view.  It carries enough for downstream consumers to
// persist or aggregate the visit without touching the request again.
type VisitEvent struct {
    Path      string `json:"path"`
    IP        string `json:"ip"`
    UserAgent string `json:"user_agent"`
    Referer   string `json:"referer"`
    VisitedAt string `json:"visited_at"`
}

// VisitQueueName is the durable queue the events travel through.
const VisitQueueName = "visit.recorded"
