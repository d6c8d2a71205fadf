package normalize

import (
	"fmt"
	"strings"
	"time"
)

// cfUnitSeconds maps CF time units to their length in seconds.
var cfUnitSeconds = map[string]float64{
	"seconds": 1,
	"second":  1,
	"secs":    1,
	"sec":     1,
	"s":       1,
	"minutes": 60,
	"minute":  60,
	"mins":    60,
	"min":     60,
	"hours":   3600,
	"hour":    3600,
	"hrs":     3600,
	"hr":      3600,
	"h":       3600,
	"days":    86400,
	"day":     86400,
	"d":       86400,
}

var cfEpochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2 15:4:5",
	"2006-1-2",
}

// DecodeCFTime converts raw CF-convention time values ("<units> since
// <epoch>") into concrete timestamps.
func DecodeCFTime(values []float64, units string) ([]time.Time, error) {
	secs, epoch, err := parseCFUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(values))
	for i, v := range values {
		out[i] = epoch.Add(time.Duration(v * secs * float64(time.Second)))
	}
	return out, nil
}

// parseCFUnits splits a CF time-units string into a unit length and epoch,
// e.g. "seconds since 2017-11-29 00:00:00 UTC".
func parseCFUnits(units string) (float64, time.Time, error) {
	fields := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(fields) != 2 {
		return 0, time.Time{}, fmt.Errorf("cf time: units %q missing 'since'", units)
	}
	secs, ok := cfUnitSeconds[strings.ToLower(strings.TrimSpace(fields[0]))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("cf time: unsupported unit %q", fields[0])
	}
	epochStr := strings.TrimSpace(fields[1])
	epochStr = strings.TrimSuffix(epochStr, " UTC")
	for _, layout := range cfEpochLayouts {
		if epoch, err := time.ParseInLocation(layout, epochStr, time.UTC); err == nil {
			return secs, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("cf time: cannot parse epoch %q", epochStr)
}
