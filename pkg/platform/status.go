package platform

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Status is the consensus platform status a node reports on its metrics
// endpoint.
type Status int

const (
	StatusNoValue Status = iota
	StatusStartingUp
	StatusActive
	StatusBehind
	StatusFreezing
	StatusFreezeComplete
	StatusReplayingEvents
	StatusObserving
	StatusChecking
	StatusReconnectComplete
	// StatusCatastrophicFailure is terminal: polling for any other
	// target stops immediately when it is observed.
	StatusCatastrophicFailure
)

var statusNames = map[Status]string{
	StatusNoValue:             "NO_VALUE",
	StatusStartingUp:          "STARTING_UP",
	StatusActive:              "ACTIVE",
	StatusBehind:              "BEHIND",
	StatusFreezing:            "FREEZING",
	StatusFreezeComplete:      "FREEZE_COMPLETE",
	StatusReplayingEvents:     "REPLAYING_EVENTS",
	StatusObserving:           "OBSERVING",
	StatusChecking:            "CHECKING",
	StatusReconnectComplete:   "RECONNECT_COMPLETE",
	StatusCatastrophicFailure: "CATASTROPHIC_FAILURE",
}

// String returns the platform status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// StatusMetricPrefix is the metric line the platform exports its status on.
const StatusMetricPrefix = "platform_PlatformStatus"

// ParseStatusFromMetrics scans a Prometheus text exposition body for the
// platform status metric and returns the reported status. An absent or
// unparseable status line is an error the caller treats as transient.
func ParseStatusFromMetrics(body string) (Status, error) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, StatusMetricPrefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return StatusNoValue, fmt.Errorf("malformed status line %q", line)
		}
		value, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return StatusNoValue, fmt.Errorf("malformed status value in %q: %w", line, err)
		}
		status := Status(int(value))
		if _, known := statusNames[status]; !known {
			return StatusNoValue, fmt.Errorf("unknown platform status code %d", int(value))
		}
		return status, nil
	}
	return StatusNoValue, fmt.Errorf("metric %s not found", StatusMetricPrefix)
}
