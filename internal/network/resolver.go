package network

import "github.com/paulmach/orb"

// Resolve maps a directed edge pair and a progress fraction to a geographic
// point. Resolution degrades progressively: cached polyline, then a straight
// line between the two nodes, then the bare source-node coordinate (vehicle
// shown stationary), then nothing — in which case ok is false and the caller
// drops the vehicle from the frame. Resolution failures are expected and
// never an error.
func (c *GeometryCache) Resolve(source, target string, progress float64) (orb.Point, bool) {
	if cached, ok := c.lines[EdgeKey(source, target)]; ok {
		return walk(cached.line, cached.lengthM, progress)
	}

	a, okA := c.nodes[source]
	b, okB := c.nodes[target]
	if okA && okB {
		line := orb.LineString{a, b}
		return walk(line, lineLengthMeters(line), progress)
	}
	if okA {
		return a, true
	}
	return orb.Point{}, false
}

// walk interpolates along the line by arc-length fraction. A degenerate
// zero-length line yields no point.
func walk(line orb.LineString, lengthM, progress float64) (orb.Point, bool) {
	if lengthM <= 0 {
		return orb.Point{}, false
	}
	progress = clamp(progress, 0, 1)
	if progress == 1 {
		return line[len(line)-1], true
	}
	return interpolateOnLine(line, progress*lengthM), true
}
