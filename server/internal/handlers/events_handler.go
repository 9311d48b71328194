package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// EventFeed - источник событий: журнал зафиксированного реестра и поток новых событий.
type EventFeed interface {
	Current() *ledger.Ledger
	Hub() *services.EventHub
}

var _ EventFeed = (*services.LedgerService)(nil)

const (
	eventsTag         = "EventsHandler"
	defaultEventsPage = 100
	maxEventsPage     = 1000

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventsHandler отдает журнал событий и поток новых событий по websocket.
type EventsHandler struct {
	feed     EventFeed
	upgrader websocket.Upgrader
}

// NewEventsHandler создает новый экземпляр EventsHandler.
func NewEventsHandler(feed EventFeed) *EventsHandler {
	return &EventsHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// List обрабатывает GET /api/events?after=&limit=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	after, ok := uintQuery(w, r, "after", 0)
	if !ok {
		return
	}
	limit, ok := uintQuery(w, r, "limit", defaultEventsPage)
	if !ok {
		return
	}
	if limit == 0 || limit > maxEventsPage {
		limit = maxEventsPage
	}
	events := h.feed.Current().Events().Since(after, int(limit))
	writeOK(w, http.StatusOK, services.EventDTOs(events))
}

// Stream обрабатывает GET /api/events/stream?after=. Сначала отправляются
// события журнала с номером больше after, затем новые по мере фиксации.
// Каждое сообщение - одно событие в JSON.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	after, ok := uintQuery(w, r, "after", 0)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Infof("[%s] Ошибка установки websocket: %v", eventsTag, err)
		return
	}
	defer conn.Close()

	// Подписка до чтения журнала: события между ними придут и из журнала,
	// и из канала, повторы отбрасываются по номеру.
	hub := h.feed.Hub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(ctx, cancel, conn)

	last := after
	for {
		backlog := h.feed.Current().Events().Since(last, maxEventsPage)
		if len(backlog) == 0 {
			break
		}
		for _, ev := range backlog {
			if err = writeEvent(conn, ev); err != nil {
				return
			}
			last = ev.Seq
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		case ev, open := <-sub.C:
			if !open {
				// Подписчик отстал и отключен.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "slow consumer"), time.Now().Add(time.Second))
				return
			}
			if ev.Seq <= last {
				continue
			}
			if err = writeEvent(conn, ev); err != nil {
				return
			}
			last = ev.Seq
		case <-ticker.C:
			if err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev ledger.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(services.EventDTO(ev)); err != nil {
		logging.Debugf("[%s] Ошибка отправки события #%d: %v", eventsTag, ev.Seq, err)
		return err
	}
	return nil
}

// readPump читает входящие кадры ради pong и закрытия соединения клиентом.
func readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
