package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status values published on the bridge status topic.
const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonUnexpected = "unexpected_disconnect"
	reasonShutdown   = "graceful_shutdown"
)

// Status is the retained document published on the bridge status topic.
//
// Example:
//
//	{"status":"offline","client_id":"catt-4f1c...","reason":"graceful_shutdown","timestamp":"2026-01-02T03:04:05Z"}
type Status struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// buildStatusPayload renders a status document.
func buildStatusPayload(status, clientID, reason string) string {
	b, err := json.Marshal(Status{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return status
	}
	return string(b)
}

// buildOnlinePayload creates the payload for online status messages.
func buildOnlinePayload(clientID string) string {
	return buildStatusPayload(statusOnline, clientID, "")
}

// buildOfflinePayload creates the payload for graceful offline status.
func buildOfflinePayload(clientID string) string {
	return buildStatusPayload(statusOffline, clientID, reasonShutdown)
}

// ValidatePublishTopic checks a topic name for publishing.
//
// Publish topics must be non-empty, must not carry the '+' or '#' wildcards
// and must not contain a NUL character.
func ValidatePublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards are not allowed in %q", ErrInvalidTopic, topic)
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: NUL in topic", ErrInvalidTopic)
	}
	return nil
}

// ValidateFilter checks a subscription topic filter.
//
// '#' is only valid as the whole last level and '+' only as a whole level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case level == "#":
			if i != len(levels)-1 {
				return fmt.Errorf("%w: '#' must be the last level in %q", ErrInvalidTopic, filter)
			}
		case level == "+":
		case strings.ContainsAny(level, "+#"):
			return fmt.Errorf("%w: wildcard must occupy a whole level in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}
