// Package stations compares model output against observation records and
// computes the usual skill metrics.
package stations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Station is a named observation location.
type Station struct {
	Name string
	Lon  float64
	Lat  float64
}

// ReadStations parses a station list CSV with a name,lon,lat header.
// Unknown columns are silently skipped.
func ReadStations(r io.Reader) ([]Station, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read station headers: %w", err)
	}

	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"name", "lon", "lat"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("station file is missing the %q column", col)
		}
	}

	var out []Station
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("station file line %d: %w", line, err)
		}
		lon, err := strconv.ParseFloat(row[idx["lon"]], 64)
		if err != nil {
			return nil, fmt.Errorf("station file line %d: bad lon: %w", line, err)
		}
		lat, err := strconv.ParseFloat(row[idx["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("station file line %d: bad lat: %w", line, err)
		}
		out = append(out, Station{
			Name: strings.TrimSpace(row[idx["name"]]),
			Lon:  lon,
			Lat:  lat,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("station file has no rows")
	}
	return out, nil
}

// ReadSeries parses an observation record CSV with a time,value header.
// Timestamps are RFC 3339; empty values become a gap and are dropped.
func ReadSeries(r io.Reader) ([]time.Time, []float64, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read series headers: %w", err)
	}

	timeCol, valueCol := -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "time":
			timeCol = i
		case "value":
			valueCol = i
		}
	}
	if timeCol < 0 || valueCol < 0 {
		return nil, nil, fmt.Errorf("series file needs time and value columns, got %v", headers)
	}

	var times []time.Time
	var values []float64
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("series file line %d: %w", line, err)
		}
		raw := strings.TrimSpace(row[valueCol])
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[timeCol]))
		if err != nil {
			return nil, nil, fmt.Errorf("series file line %d: bad time: %w", line, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("series file line %d: bad value: %w", line, err)
		}
		times = append(times, ts)
		values = append(values, v)
	}
	return times, values, nil
}

// Align pairs observed and simulated samples that share a timestamp, to the
// second. Unmatched samples on either side are dropped.
func Align(obsTimes []time.Time, obs []float64, simTimes []time.Time, sim []float64) (pairedObs, pairedSim []float64) {
	byUnix := make(map[int64]float64, len(simTimes))
	for i, t := range simTimes {
		byUnix[t.Unix()] = sim[i]
	}
	for i, t := range obsTimes {
		if s, ok := byUnix[t.Unix()]; ok {
			pairedObs = append(pairedObs, obs[i])
			pairedSim = append(pairedSim, s)
		}
	}
	return pairedObs, pairedSim
}
