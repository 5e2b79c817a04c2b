package network

import (
	"log"

	"github.com/paulmach/orb"
)

// polyline is a decoded edge geometry with its arc length precomputed, so
// resolution never re-walks the line to measure it.
type polyline struct {
	line    orb.LineString
	lengthM float64
}

// GeometryCache indexes decoded edge polylines by directed endpoint pair and
// node coordinates by id. It is a pure function of the network payload: build
// it once per network load and share it read-only.
type GeometryCache struct {
	lines map[string]polyline
	nodes map[string]orb.Point
}

// BuildGeometryCache decodes every edge of the network. Explicit geometry
// (coordinate list, then WKT) wins; otherwise a two-point straight line is
// synthesized from the endpoint nodes when both have known coordinates.
// Edges that resolve to fewer than 2 vertices are excluded entirely. The
// first edge seen for a directed pair wins; duplicates are not merged.
func BuildGeometryCache(net *Network) *GeometryCache {
	c := &GeometryCache{
		lines: make(map[string]polyline, len(net.Edges)),
		nodes: make(map[string]orb.Point, len(net.Nodes)),
	}

	for _, n := range net.Nodes {
		if n.Lat != nil && n.Lon != nil {
			c.nodes[n.ID] = orb.Point{*n.Lon, *n.Lat}
		}
	}

	skipped := 0
	for _, e := range net.Edges {
		key := EdgeKey(e.Source, e.Target)
		if _, exists := c.lines[key]; exists {
			continue
		}
		line := c.decodeEdge(e)
		if len(line) < 2 {
			skipped++
			continue
		}
		c.lines[key] = polyline{line: line, lengthM: lineLengthMeters(line)}
	}

	log.Printf("Geometry: cached %d edge polylines, %d node coordinates (%d edges unresolvable)",
		len(c.lines), len(c.nodes), skipped)
	return c
}

func (c *GeometryCache) decodeEdge(e Edge) orb.LineString {
	if len(e.Coordinates) >= 2 {
		line := make(orb.LineString, 0, len(e.Coordinates))
		for _, coord := range e.Coordinates {
			line = append(line, orb.Point{coord.Lon, coord.Lat})
		}
		return line
	}
	if e.GeometryWKT != nil {
		if line := parseWKTLineString(*e.GeometryWKT); len(line) >= 2 {
			return line
		}
	}
	// Synthesize a straight line between the endpoint nodes
	a, okA := c.nodes[e.Source]
	b, okB := c.nodes[e.Target]
	if okA && okB {
		return orb.LineString{a, b}
	}
	return nil
}

// NodePoint returns the cached coordinate for a node id.
func (c *GeometryCache) NodePoint(id string) (orb.Point, bool) {
	p, ok := c.nodes[id]
	return p, ok
}

// Polyline returns the decoded polyline for a directed edge pair.
func (c *GeometryCache) Polyline(source, target string) (orb.LineString, bool) {
	p, ok := c.lines[EdgeKey(source, target)]
	if !ok {
		return nil, false
	}
	return p.line, true
}

// Len reports how many edge polylines the cache holds.
func (c *GeometryCache) Len() int {
	return len(c.lines)
}
