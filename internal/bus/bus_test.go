package bus

import "testing"

func TestFanOutToAllSubscribers(t *testing.T) {
	b := New()
	first := b.SubscribePlayback()
	second := b.SubscribePlayback()

	b.PublishPlayback(Playback{Playing: false})

	for i, ch := range []<-chan Playback{first, second} {
		select {
		case msg := <-ch:
			if msg.Playing {
				t.Errorf("subscriber %d: got Playing=true, expected false", i)
			}
		default:
			t.Errorf("subscriber %d: no message delivered", i)
		}
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := New()
	_ = b.SubscribeLocate() // never drained

	// more messages than the subscriber buffer holds; must not deadlock
	for i := 0; i < subscriberBuffer*3; i++ {
		b.PublishLocate(LocateVehicle{VehicleID: "EXP1"})
	}
}

func TestKindsAreIndependent(t *testing.T) {
	b := New()
	highlight := b.SubscribeHighlight()

	b.PublishPlayback(Playback{Playing: true})
	b.PublishLocate(LocateVehicle{VehicleID: "EXP1"})

	select {
	case <-highlight:
		t.Error("highlight subscriber received a message of another kind")
	default:
	}

	b.PublishHighlight(HighlightRoute{NodeIDs: []string{"S1", "J1", "S2"}})
	select {
	case msg := <-highlight:
		if len(msg.NodeIDs) != 3 {
			t.Errorf("highlight carries %d nodes, expected 3", len(msg.NodeIDs))
		}
	default:
		t.Error("highlight message not delivered")
	}
}
