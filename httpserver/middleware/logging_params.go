/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-lookupcache/log"
)

// timeSlots accumulates integer values (usually milliseconds) of request processing stages, e.g. "lookup_ms".
type timeSlots map[string]int64

func (ts timeSlots) EncodeLogfObject(enc logf.FieldEncoder) error {
	for name, val := range ts {
		enc.EncodeFieldInt64(name, val)
	}
	return nil
}

// LoggingParams is put into the request context by the Logging middleware.
// Handlers use it to enrich the "response completed" log line, e.g. with the source of a looked up user.
type LoggingParams struct {
	fields    []log.Field
	timeSlots timeSlots
}

// ExtendFields appends fields to the "response completed" log line.
func (lp *LoggingParams) ExtendFields(fields ...log.Field) {
	lp.fields = append(lp.fields, fields...)
}

// AddTimeSlotInt adds val to the named slot. Slots are logged in the "time_slots" group of slow requests only.
func (lp *LoggingParams) AddTimeSlotInt(name string, val int64) {
	if lp.timeSlots == nil {
		lp.timeSlots = timeSlots{}
	}
	lp.timeSlots[name] += val
}

// AddTimeSlotDurationInMs is AddTimeSlotInt for a duration in milliseconds.
func (lp *LoggingParams) AddTimeSlotDurationInMs(name string, dur time.Duration) {
	lp.AddTimeSlotInt(name, dur.Milliseconds())
}
