package network

// Network is the static rail network payload served by the telemetry backend
// at GET /network. Loaded once at startup.
type Network struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a station, junction or signal with an optional coordinate.
// Nodes may arrive without coordinates; they are unusable for geometry
// fallback but still valid endpoints.
type Node struct {
	ID   string   `json:"id"`
	Kind string   `json:"type"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Name string   `json:"name"`
}

// Edge is a directed track segment. Geometry arrives either as an ordered
// coordinate list or a WKT LINESTRING string; both are optional.
type Edge struct {
	Source      string       `json:"source"`
	Target      string       `json:"target"`
	LengthM     *float64     `json:"length"`
	MaxSpeedKMH *float64     `json:"max_speed"`
	Coordinates []Coordinate `json:"coordinates"`
	GeometryWKT *string      `json:"geometry_wkt"`
}

// Coordinate is a single (lat, lon) vertex of an edge geometry.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EdgeKey builds the directed lookup key for an edge's polyline.
func EdgeKey(source, target string) string {
	return source + "|" + target
}
