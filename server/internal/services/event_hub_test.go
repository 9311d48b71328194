package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

func events(seqs ...uint64) []ledger.Event {
	out := make([]ledger.Event, 0, len(seqs))
	for _, s := range seqs {
		out = append(out, ledger.Event{Seq: s, Type: ledger.EventVaultCreated})
	}
	return out
}

func TestEventHub_Publish(t *testing.T) {
	hub := services.NewEventHub(4)
	a := hub.Subscribe()
	b := hub.Subscribe()
	require.Equal(t, 2, hub.Len())

	hub.Publish(events(1, 2))

	for _, sub := range []*services.Subscription{a, b} {
		assert.Equal(t, uint64(1), (<-sub.C).Seq)
		assert.Equal(t, uint64(2), (<-sub.C).Seq)
	}
}

func TestEventHub_SlowSubscriberDropped(t *testing.T) {
	hub := services.NewEventHub(2)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.Publish(events(1, 2))
	<-fast.C
	<-fast.C
	hub.Publish(events(3))

	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, uint64(3), (<-fast.C).Seq)

	// Канал отключенного подписчика закрыт после буферизованных событий.
	var got []uint64
	for ev := range slow.C {
		got = append(got, ev.Seq)
	}
	assert.Equal(t, []uint64{1, 2}, got)
}

func TestEventHub_Unsubscribe(t *testing.T) {
	hub := services.NewEventHub(0)
	sub := hub.Subscribe()
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Zero(t, hub.Len())
	hub.Publish(events(1))
}
