// Package bus carries control signals between the HTTP surface and the
// engine over explicit typed channels, one per message kind, with an
// enumerated subscriber list instead of an ambient global event bus.
package bus

import "sync"

// Playback toggles extrapolation on or off.
type Playback struct {
	Playing bool
}

// HighlightRoute asks the map to emphasize an ordered node sequence.
type HighlightRoute struct {
	NodeIDs []string
}

// LocateVehicle asks for a one-off position fetch and camera recenter.
type LocateVehicle struct {
	VehicleID string
}

const subscriberBuffer = 8

// Bus fans each published message out to every subscriber of that kind.
// Publishing never blocks: a subscriber that has fallen behind misses the
// message, which is acceptable for view-control signals.
type Bus struct {
	mu        sync.Mutex
	playback  []chan Playback
	highlight []chan HighlightRoute
	locate    []chan LocateVehicle
}

func New() *Bus {
	return &Bus{}
}

// SubscribePlayback registers a new playback listener.
func (b *Bus) SubscribePlayback() <-chan Playback {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Playback, subscriberBuffer)
	b.playback = append(b.playback, ch)
	return ch
}

// SubscribeHighlight registers a new route-highlight listener.
func (b *Bus) SubscribeHighlight() <-chan HighlightRoute {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan HighlightRoute, subscriberBuffer)
	b.highlight = append(b.highlight, ch)
	return ch
}

// SubscribeLocate registers a new locate-vehicle listener.
func (b *Bus) SubscribeLocate() <-chan LocateVehicle {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan LocateVehicle, subscriberBuffer)
	b.locate = append(b.locate, ch)
	return ch
}

// PublishPlayback delivers a playback toggle to all subscribers.
func (b *Bus) PublishPlayback(msg Playback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.playback {
		select {
		case ch <- msg:
		default:
		}
	}
}

// PublishHighlight delivers a route highlight to all subscribers.
func (b *Bus) PublishHighlight(msg HighlightRoute) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.highlight {
		select {
		case ch <- msg:
		default:
		}
	}
}

// PublishLocate delivers a locate request to all subscribers.
func (b *Bus) PublishLocate(msg LocateVehicle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.locate {
		select {
		case ch <- msg:
		default:
		}
	}
}
