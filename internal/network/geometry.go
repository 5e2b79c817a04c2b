package network

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// parseWKTLineString decodes a "LINESTRING(lon lat, lon lat, ...)" string
// into a line. Returns nil for anything that is not a well-formed linestring;
// bad vertices are skipped rather than failing the whole geometry.
func parseWKTLineString(wkt string) orb.LineString {
	wkt = strings.TrimSpace(wkt)
	if !strings.HasPrefix(strings.ToUpper(wkt), "LINESTRING") {
		return nil
	}
	open := strings.Index(wkt, "(")
	end := strings.LastIndex(wkt, ")")
	if open < 0 || end < open {
		return nil
	}

	var line orb.LineString
	for _, part := range strings.Split(wkt[open+1:end], ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(fields[0], 64)
		lat, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		line = append(line, orb.Point{lon, lat})
	}
	return line
}

// lineLengthMeters sums the haversine distances between consecutive vertices.
func lineLengthMeters(line orb.LineString) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += geo.Distance(line[i-1], line[i])
	}
	return total
}

// interpolateOnLine walks the line accumulating segment lengths and linearly
// interpolates the crossing point at targetM from the start. Callers must
// pass a line of at least 2 vertices; targetM beyond the line's length yields
// the final vertex.
func interpolateOnLine(line orb.LineString, targetM float64) orb.Point {
	acc := 0.0
	for i := 1; i < len(line); i++ {
		a := line[i-1]
		b := line[i]
		d := geo.Distance(a, b)
		if acc+d >= targetM {
			f := 0.0
			if d > 0 {
				f = (targetM - acc) / d
			}
			return orb.Point{
				a[0] + (b[0]-a[0])*f,
				a[1] + (b[1]-a[1])*f,
			}
		}
		acc += d
	}
	return line[len(line)-1]
}

// clamp constrains a value between min and max
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
