package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/network"
	"github.com/Raaaghavagrawal/railway-traffic-optimizer/internal/telemetry"
)

// Client talks to the telemetry backend's HTTP surface: the static network,
// the poll fallback, the fast position feed, and the simple control actions.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given backend base URL.
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// envelope is the {success, error?} wrapper on control responses.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FetchNetwork loads the static network from GET /network.
func (c *Client) FetchNetwork(ctx context.Context) (*network.Network, error) {
	var net network.Network
	if err := c.getJSON(ctx, "/network", &net); err != nil {
		return nil, fmt.Errorf("failed to fetch network: %w", err)
	}
	return &net, nil
}

// FetchTrains reads the poll fallback feed at GET /trains.
func (c *Client) FetchTrains(ctx context.Context) ([]telemetry.VehicleState, error) {
	var data struct {
		Trains []wireTrain `json:"trains"`
	}
	if err := c.getJSON(ctx, "/trains", &data); err != nil {
		return nil, fmt.Errorf("failed to fetch trains: %w", err)
	}
	return decodeVehicles(data.Trains), nil
}

// OverlayPosition is a single vehicle on the fast position feed.
type OverlayPosition struct {
	TrainID   string  `json:"train_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Color     string  `json:"color"`
	Progress  float64 `json:"progress"`
	Direction string  `json:"direction"`
}

// OverlayRoute is a drawn route polyline accompanying the fast feed.
type OverlayRoute struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Color       string       `json:"color"`
}

// OverlayFrame is one cycle of the fast-poll feed.
type OverlayFrame struct {
	Positions []OverlayPosition
	Routes    []OverlayRoute
	FetchedAt time.Time
}

// FetchTrainPositions reads the independent fast feed at GET /train_positions.
func (c *Client) FetchTrainPositions(ctx context.Context) (*OverlayFrame, error) {
	var data struct {
		Success bool              `json:"success"`
		Error   string            `json:"error"`
		Data    []OverlayPosition `json:"data"`
		Routes  []OverlayRoute    `json:"routes"`
	}
	if err := c.getJSON(ctx, "/train_positions", &data); err != nil {
		return nil, fmt.Errorf("failed to fetch train positions: %w", err)
	}
	if !data.Success {
		return nil, fmt.Errorf("train positions feed refused: %s", data.Error)
	}
	return &OverlayFrame{Positions: data.Data, Routes: data.Routes, FetchedAt: time.Now()}, nil
}

// FetchTrainPosition performs the one-off locate lookup at
// GET /train/:id/position.
func (c *Client) FetchTrainPosition(ctx context.Context, trainID string) (lat, lon float64, err error) {
	var data struct {
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	}
	path := "/train/" + url.PathEscape(trainID) + "/position"
	if err := c.getJSON(ctx, path, &data); err != nil {
		return 0, 0, fmt.Errorf("failed to locate train %s: %w", trainID, err)
	}
	if !data.Success {
		return 0, 0, fmt.Errorf("failed to locate train %s: %s", trainID, data.Error)
	}
	return data.Position.Lat, data.Position.Lon, nil
}

// Reset asks the backend to reset the running simulation.
func (c *Client) Reset(ctx context.Context) error {
	return c.postControl(ctx, "/reset", nil)
}

// Reseed asks the backend to reseed its train set.
func (c *Client) Reseed(ctx context.Context) error {
	return c.postControl(ctx, "/simulate/reseed", nil)
}

// InjectDelay adds delay minutes to one train.
func (c *Client) InjectDelay(ctx context.Context, trainID string, delayMin int) error {
	body := map[string]interface{}{
		"train_id":  trainID,
		"delay_min": delayMin,
	}
	return c.postControl(ctx, "/delay", body)
}

// SimulateByTrainNo restarts the simulation around a single dataset train.
func (c *Client) SimulateByTrainNo(ctx context.Context, trainNo string) error {
	return c.postControl(ctx, "/simulate/by_train_no?train_no="+url.QueryEscape(trainNo), nil)
}

// TrainSummary is one row of a train search result.
type TrainSummary struct {
	TrainNo     string `json:"Train_No"`
	TrainName   string `json:"Train_Name"`
	Source      string `json:"Source_Station_Name"`
	Destination string `json:"Destination_Station_Name"`
}

// SearchTrains queries the dataset by train number or name.
func (c *Client) SearchTrains(ctx context.Context, query string) ([]TrainSummary, error) {
	var data struct {
		Trains []TrainSummary `json:"trains"`
	}
	if err := c.getJSON(ctx, "/train/search?q="+url.QueryEscape(query), &data); err != nil {
		return nil, fmt.Errorf("failed to search trains: %w", err)
	}
	return data.Trains, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) postControl(ctx context.Context, path string, body interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("control action rejected: %s", env.Error)
	}
	return nil
}
