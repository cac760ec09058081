package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"ucraft/internal/chat"
	"ucraft/internal/gateway/session"
	"ucraft/internal/metrics"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type chatWSOutbound struct {
	Type    string      `json:"type"`
	Text    string      `json:"text,omitempty"`
	Turns   []chat.Turn `json:"turns,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ChatHandler streams the concierge conversation over a websocket: the full
// transcript on connect, then one "chunk" frame per fragment and a "done"
// frame per completed response.
type ChatHandler struct {
	reg     *session.Registry
	timeout time.Duration

	pongWait  time.Duration
	writeWait time.Duration
}

func NewChatHandler(reg *session.Registry, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		reg:       reg,
		timeout:   timeout,
		pongWait:  chatWSPongWait,
		writeWait: chatWSWriteWait,
	}
}

func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	app, ok := h.reg.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker((h.pongWait * 9) / 10)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushChatWS(writeCh, chatWSOutbound{Type: "transcript", Turns: app.Chat.Transcript()})

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if in.Type != "send" {
			_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
			continue
		}
		// No reads happen while a response streams, so stretch the read
		// deadline to outlast the full turn; the normal pong window resumes
		// once the turn finishes.
		_ = conn.SetReadDeadline(time.Now().Add(h.timeout + h.pongWait))
		h.handleSend(ctx, app, in.Text, writeCh)
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}

func (h *ChatHandler) handleSend(ctx context.Context, app *session.App, text string, writeCh chan chatWSOutbound) {
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	delivered, err := app.Chat.Send(callCtx, text, func(chunk string) {
		pushChatWS(writeCh, chatWSOutbound{Type: "chunk", Text: chunk})
	})
	switch {
	case errors.Is(err, chat.ErrBusy):
		pushChatWS(writeCh, chatWSOutbound{Type: "error", Message: "a reply is still being written"})
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		pushChatWS(writeCh, chatWSOutbound{Type: "error", Message: "message is empty"})
		return
	}
	if delivered {
		metrics.ChatMessage("success")
	} else {
		metrics.ChatMessage("error")
	}
	pushChatWS(writeCh, chatWSOutbound{Type: "done"})
}

func pushChatWS(ch chan chatWSOutbound, out chatWSOutbound) {
	select {
	case ch <- out:
	default:
		log.Printf("chat ws outbound buffer full, dropping %s frame", out.Type)
	}
}
