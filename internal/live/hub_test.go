package live

import (
	"sync"
	"testing"
)

func TestHubDeliversToEventSubscribersOnly(t *testing.T) {
	hub := NewHub()

	var got []Update
	unsubscribe := hub.Subscribe("ev1", func(u Update) { got = append(got, u) })
	defer unsubscribe()

	var other []Update
	defer hub.Subscribe("ev2", func(u Update) { other = append(other, u) })()

	hub.Publish(Update{EventID: "ev1", SeatsBooked: 3})
	hub.Publish(Update{EventID: "ev1", SeatsBooked: 4})

	if len(got) != 2 || got[1].SeatsBooked != 4 {
		t.Fatalf("ev1 subscriber got %v", got)
	}
	if len(other) != 0 {
		t.Fatalf("ev2 subscriber got foreign updates: %v", other)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	count := 0
	unsubscribe := hub.Subscribe("ev1", func(Update) { count++ })

	hub.Publish(Update{EventID: "ev1", SeatsBooked: 1})
	unsubscribe()
	hub.Publish(Update{EventID: "ev1", SeatsBooked: 2})

	if count != 1 {
		t.Fatalf("subscriber called %d times, want 1", count)
	}
	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestHubConcurrentPublish(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	count := 0
	defer hub.Subscribe("ev1", func(Update) {
		mu.Lock()
		count++
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Publish(Update{EventID: "ev1", SeatsBooked: n})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 20 {
		t.Fatalf("subscriber called %d times, want 20", count)
	}
}
