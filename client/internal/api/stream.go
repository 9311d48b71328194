package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

// streamURL переводит базовый адрес сервера в адрес websocket потока.
func (c *httpClient) streamURL(after uint64) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("ошибка разбора URL сервера: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("неподдерживаемая схема URL: %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/events/stream"
	u.RawQuery = url.Values{"after": {strconv.FormatUint(after, 10)}}.Encode()
	return u.String(), nil
}

// StreamEvents подключается к потоку событий и передает каждое событие в fn.
// Возвращает nil при отмене ctx.
func (c *httpClient) StreamEvents(ctx context.Context, after uint64, fn func(models.Event) error) error {
	endpoint, err := c.streamURL(after)
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.authToken != "" {
		header.Set("Authorization", "Bearer "+c.authToken)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("ошибка подключения к потоку событий: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev models.Event
		if err = conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("поток событий закрыт сервером: %d %s", closeErr.Code, closeErr.Text)
			}
			return fmt.Errorf("ошибка чтения потока событий: %w", err)
		}
		if err = fn(ev); err != nil {
			return err
		}
	}
}
