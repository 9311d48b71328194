package services

import (
	"sync"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/metrics"
)

// DefaultSubscriberBuffer - емкость очереди подписчика по умолчанию.
const DefaultSubscriberBuffer = 256

// Subscription - подписка на зафиксированные события реестра.
// Канал C закрывается при отписке или если подписчик не успевает читать.
type Subscription struct {
	C  <-chan ledger.Event
	id uint64
	ch chan ledger.Event
}

// EventHub рассылает зафиксированные события подписчикам (поток websocket).
// Publish не блокируется: переполненный подписчик отключается.
type EventHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	buffer int
}

// NewEventHub создает рассыльщик событий. buffer <= 0 означает DefaultSubscriberBuffer.
func NewEventHub(buffer int) *EventHub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &EventHub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

// Subscribe регистрирует нового подписчика.
func (h *EventHub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan ledger.Event, h.buffer)
	sub := &Subscription{C: ch, id: h.nextID, ch: ch}
	h.subs[sub.id] = sub
	metrics.StreamSubscribed(1)
	return sub
}

// Unsubscribe удаляет подписчика и закрывает его канал. Повторный вызов безопасен.
func (h *EventHub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(sub)
}

// Publish рассылает события всем подписчикам в порядке номеров.
func (h *EventHub) Publish(events []ledger.Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		for _, ev := range events {
			select {
			case sub.ch <- ev:
			default:
				logging.Warnf("[EventHub] Подписчик %d не успевает, отключаем", sub.id)
				h.drop(sub)
			}
			if _, ok := h.subs[sub.id]; !ok {
				break
			}
		}
	}
}

// Len возвращает число подписчиков.
func (h *EventHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *EventHub) drop(sub *Subscription) {
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
	metrics.StreamSubscribed(-1)
}
