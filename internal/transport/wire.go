package transport

import (
	"encoding/json"
	"fmt"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/alerts"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

// wireTrain is a vehicle row as the backend emits it, both on GET /trains
// and inside push "state" messages. Older backend builds use "id" instead of
// "train_id".
type wireTrain struct {
	TrainID  string `json:"train_id"`
	ID       string `json:"id"`
	Edge     *struct {
		U string `json:"u"`
		V string `json:"v"`
	} `json:"edge"`
	Progress    float64 `json:"progress"`
	SpeedMPS    float64 `json:"speed_mps"`
	EdgeLengthM float64 `json:"edge_length_m"`
	Status      string  `json:"status"`
	DelayMin    int     `json:"delay_min"`
}

func (w wireTrain) toVehicleState() telemetry.VehicleState {
	id := w.TrainID
	if id == "" {
		id = w.ID
	}
	v := telemetry.VehicleState{
		ID:          id,
		Progress:    w.Progress,
		SpeedMPS:    w.SpeedMPS,
		EdgeLengthM: w.EdgeLengthM,
		Status:      telemetry.ParseStatus(w.Status),
		DelayMin:    w.DelayMin,
	}
	if v.Progress < 0 {
		v.Progress = 0
	}
	if v.Progress > 1 {
		v.Progress = 1
	}
	if w.Edge != nil && w.Edge.U != "" && w.Edge.V != "" {
		v.Edge = telemetry.EdgeRef{U: w.Edge.U, V: w.Edge.V}
		v.HasEdge = true
	}
	return v
}

func decodeVehicles(trains []wireTrain) []telemetry.VehicleState {
	out := make([]telemetry.VehicleState, 0, len(trains))
	for _, w := range trains {
		v := w.toVehicleState()
		if v.ID == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// wireAlert is a proximity alert as carried in push "alerts" messages.
type wireAlert struct {
	Pair struct {
		A string `json:"a"`
		B string `json:"b"`
	} `json:"pair"`
	Severity         string   `json:"severity"`
	DistanceM        float64  `json:"distance_m"`
	RelativeSpeedMPS float64  `json:"relative_speed_mps"`
	SameEdge         bool     `json:"same_edge"`
	OppositeEdge     bool     `json:"opposite_edge"`
	Suggestions      []string `json:"suggestions"`
}

func decodeAlerts(raw []wireAlert) []alerts.Alert {
	out := make([]alerts.Alert, 0, len(raw))
	for _, w := range raw {
		if w.Pair.A == "" || w.Pair.B == "" {
			continue
		}
		sev := alerts.Severity(w.Severity)
		switch sev {
		case alerts.SeverityInfo, alerts.SeverityWarn, alerts.SeverityCritical:
		default:
			sev = alerts.SeverityInfo
		}
		out = append(out, alerts.Alert{
			PairKey:          alerts.PairKey(w.Pair.A, w.Pair.B),
			TrainA:           w.Pair.A,
			TrainB:           w.Pair.B,
			Severity:         sev,
			DistanceM:        w.DistanceM,
			RelativeSpeedMPS: w.RelativeSpeedMPS,
			SameEdge:         w.SameEdge,
			OppositeEdge:     w.OppositeEdge,
			Suggestions:      w.Suggestions,
		})
	}
	return out
}

// pushMessage is the envelope on the websocket channel. Data stays raw until
// the type is known so one bad payload cannot poison another kind.
type pushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// handlePushMessage decodes a single channel message and applies it. Errors
// are returned per message; the caller logs and drops without closing the
// channel.
func (s *Session) handlePushMessage(raw []byte) error {
	var msg pushMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("malformed envelope: %w", err)
	}

	switch msg.Type {
	case "state":
		var data struct {
			Trains []wireTrain `json:"trains"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("malformed state payload: %w", err)
		}
		s.applySnapshot(decodeVehicles(data.Trains))
	case "alerts":
		var data []wireAlert
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("malformed alerts payload: %w", err)
		}
		s.applyAlerts(decodeAlerts(data))
	default:
		// plan/decision broadcasts and future kinds are not ours to handle
	}
	return nil
}
