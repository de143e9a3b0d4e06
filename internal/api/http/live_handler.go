package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"job-board/internal/domain"
	"job-board/internal/render"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const liveWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are handled by the CORS middleware.
		return true
	},
}

// handleLive drives a session over a websocket. Typing ("input") goes
// through the session debouncer; submit, select, sort and page apply
// immediately. Every change of the session is pushed back as a view frame.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.Live")
	defer span.End()

	id := r.PathValue("id")
	ctx, stop := context.WithCancel(context.WithoutCancel(r.Context()))
	defer stop()

	updates, unsubscribe, err := h.listings.Subscribe(ctx, id)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	defer unsubscribe()

	view, err := h.listings.View(ctx, id)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade live session", "session_id", id, "error", err)
		return
	}
	defer conn.Close()
	h.logger.Info("live session connected", "session_id", id, "remote", r.RemoteAddr)

	out := make(chan LiveUpdate, 8)
	out <- LiveUpdate{Type: "view", View: render.Listing(view)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer conn.Close()
		for {
			var frame LiveUpdate
			select {
			case <-ctx.Done():
				return
			case v, ok := <-updates:
				if !ok {
					h.closeLive(conn, id)
					stop()
					return
				}
				frame = LiveUpdate{Type: "view", View: render.Listing(v)}
			case frame = <-out:
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Warn("live session write failed", "session_id", id, "error", err)
				stop()
				return
			}
		}
	}()

	send := func(u LiveUpdate) {
		select {
		case out <- u:
		case <-ctx.Done():
		}
	}

	limiter := rate.NewLimiter(h.live.Rate, h.live.Burst)
	for {
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("live session read failed", "session_id", id, "error", err)
			}
			break
		}
		if !limiter.Allow() {
			send(LiveUpdate{Type: "error", Message: "too many messages"})
			continue
		}
		if u, ok := h.dispatchLive(ctx, id, msg); ok {
			send(u)
		}
	}

	stop()
	wg.Wait()
	h.logger.Info("live session disconnected", "session_id", id)
}

// closeLive tells the client its session is gone and starts the close
// handshake.
func (h *Handler) closeLive(conn *websocket.Conn, id string) {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := conn.WriteJSON(LiveUpdate{Type: "closed", Message: "session closed"}); err != nil {
		h.logger.Warn("live session write failed", "session_id", id, "error", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
		time.Now().Add(liveWriteWait))
}

// dispatchLive applies one client frame. Changes reach the client through
// the session subscription; the returned frame, if any, is sent in
// addition.
func (h *Handler) dispatchLive(ctx context.Context, id string, msg LiveMessage) (LiveUpdate, bool) {
	var err error
	switch msg.Type {
	case "input":
		err = h.listings.Input(ctx, id, msg.Criteria.ToCriteria())
	case "submit", "select":
		_, err = h.listings.ApplyFilters(ctx, id, msg.Criteria.ToCriteria())
	case "sort":
		mode, perr := domain.ParseSortMode(msg.Sort)
		if perr != nil {
			return LiveUpdate{Type: "error", Message: perr.Error()}, true
		}
		_, err = h.listings.ChangeSort(ctx, id, mode)
	case "page":
		var applied bool
		_, applied, err = h.listings.ChangePage(ctx, id, msg.Page)
		if err == nil && !applied {
			return LiveUpdate{Type: "ignored", Message: "page out of range"}, true
		}
	default:
		return LiveUpdate{Type: "error", Message: "unknown message type " + msg.Type}, true
	}
	if err != nil {
		return LiveUpdate{Type: "error", Message: err.Error()}, true
	}
	return LiveUpdate{}, false
}
