package panel

import (
	"fmt"
	"strings"
)

// Trace is an ordered, append-only sequence of diagnostic lines built up
// across the steps of one adapter call and returned with the result. It is a
// flat human-readable record for display and audit, not a structured log.
type Trace []string

// Infof appends an INFO line.
func (t *Trace) Infof(format string, args ...interface{}) {
	*t = append(*t, "INFO: "+fmt.Sprintf(format, args...))
}

// Warnf appends a WARN line.
func (t *Trace) Warnf(format string, args ...interface{}) {
	*t = append(*t, "WARN: "+fmt.Sprintf(format, args...))
}

// Errorf appends an ERROR line.
func (t *Trace) Errorf(format string, args ...interface{}) {
	*t = append(*t, "ERROR: "+fmt.Sprintf(format, args...))
}

// Extend appends another trace, preserving its order.
func (t *Trace) Extend(other Trace) {
	*t = append(*t, other...)
}

// Contains reports whether any line contains the given substring.
func (t Trace) Contains(substr string) bool {
	for _, line := range t {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
