package network

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func testNetwork() *Network {
	wkt := "LINESTRING(0 0, 0 0.001)"
	return &Network{
		Nodes: []Node{
			{ID: "S1", Kind: "station", Lat: f(28.6448), Lon: f(77.2167)},
			{ID: "J1", Kind: "junction", Lat: f(28.6460), Lon: f(77.2200)},
			{ID: "S2", Kind: "station", Lat: f(28.6472), Lon: f(77.2230)},
			{ID: "X1", Kind: "signal"}, // no coordinates
		},
		Edges: []Edge{
			{Source: "A", Target: "B", GeometryWKT: &wkt},
			{Source: "S1", Target: "J1"}, // synthesized from node coords
			{Source: "S1", Target: "X1"}, // target unknown: only source fallback
			{Source: "X1", Target: "S1"}, // source unknown: unresolvable via nodes
		},
	}
}

func TestResolveMidpointOfPolyline(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	p, ok := c.Resolve("A", "B", 0.5)
	if !ok {
		t.Fatal("expected edge A|B to resolve")
	}
	if math.Abs(p[1]-0.0005) > 1e-6 || math.Abs(p[0]) > 1e-9 {
		t.Errorf("Resolve(A, B, 0.5) = %v, expected ~(lon 0, lat 0.0005)", p)
	}
}

func TestResolveEndpoints(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	p0, ok := c.Resolve("A", "B", 0)
	if !ok || p0[1] != 0 {
		t.Errorf("progress 0 should yield the first vertex, got %v ok=%v", p0, ok)
	}
	p1, ok := c.Resolve("A", "B", 1)
	if !ok || p1[1] != 0.001 {
		t.Errorf("progress 1 should yield exactly the final vertex, got %v ok=%v", p1, ok)
	}
}

func TestResolveClampsProgress(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	pNeg, ok := c.Resolve("A", "B", -3)
	if !ok || pNeg[1] != 0 {
		t.Errorf("negative progress should clamp to start, got %v", pNeg)
	}
	pBig, ok := c.Resolve("A", "B", 7)
	if !ok || pBig[1] != 0.001 {
		t.Errorf("progress > 1 should clamp to end, got %v", pBig)
	}
}

func TestResolveSynthesizedStraightLine(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	p, ok := c.Resolve("S1", "J1", 0.5)
	if !ok {
		t.Fatal("edge with both node coordinates should resolve")
	}
	if math.Abs(p[1]-28.6454) > 1e-4 || math.Abs(p[0]-77.21835) > 1e-4 {
		t.Errorf("straight-line midpoint = %v", p)
	}
}

func TestResolveUnknownEdgeFallsBackToNodes(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	// J1 -> S2 was never declared as an edge, but both nodes are known
	p, ok := c.Resolve("J1", "S2", 0)
	if !ok {
		t.Fatal("unknown edge with known endpoints should resolve via straight line")
	}
	if p[1] != 28.6460 {
		t.Errorf("progress 0 on fallback line = %v, expected J1's coordinate", p)
	}
}

func TestResolveSourceOnlyFallback(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	// X1 has no coordinates; the vehicle pins to S1 regardless of progress
	for _, progress := range []float64{0, 0.5, 1} {
		p, ok := c.Resolve("S1", "X1", progress)
		if !ok {
			t.Fatalf("source-only fallback should resolve at progress %v", progress)
		}
		if p[1] != 28.6448 || p[0] != 77.2167 {
			t.Errorf("source-only fallback = %v, expected S1's coordinate", p)
		}
	}
}

func TestResolveNothingResolvable(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	if _, ok := c.Resolve("X1", "NOPE", 0.5); ok {
		t.Error("edge with no resolvable geometry should not produce a point")
	}
}

func TestResolveZeroLengthEdge(t *testing.T) {
	lat, lon := 28.0, 77.0
	net := &Network{
		Nodes: []Node{
			{ID: "P", Lat: &lat, Lon: &lon},
			{ID: "Q", Lat: &lat, Lon: &lon}, // identical coordinate
		},
		Edges: []Edge{{Source: "P", Target: "Q"}},
	}
	c := BuildGeometryCache(net)

	if _, ok := c.Resolve("P", "Q", 0.5); ok {
		t.Error("zero-length edge must yield no renderable point")
	}
}

func TestBuildExcludesUnresolvableEdges(t *testing.T) {
	c := BuildGeometryCache(testNetwork())

	// S1->X1 and X1->S1 cannot form a 2-point line, A|B and S1|J1 can
	if c.Len() != 2 {
		t.Errorf("cache holds %d polylines, expected 2", c.Len())
	}
	if _, ok := c.Polyline("S1", "X1"); ok {
		t.Error("edge without 2 usable points must be excluded from the cache")
	}
}

func TestFirstEdgeWinsForDuplicateKey(t *testing.T) {
	first := "LINESTRING(0 0, 0 0.001)"
	second := "LINESTRING(10 10, 10 11)"
	net := &Network{
		Edges: []Edge{
			{Source: "A", Target: "B", GeometryWKT: &first},
			{Source: "A", Target: "B", GeometryWKT: &second},
		},
	}
	c := BuildGeometryCache(net)

	p, ok := c.Resolve("A", "B", 0)
	if !ok || p[0] != 0 {
		t.Errorf("duplicate directed key should keep the first geometry, got %v", p)
	}
}
