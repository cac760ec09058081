package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucraft/internal/chat"
	"ucraft/internal/gateway/session"
	"ucraft/internal/llm"
	"ucraft/internal/preview"
)

type slowChatClient struct {
	delay time.Duration
}

func (c slowChatClient) StreamChat(ctx context.Context, _ llm.ChatRequest, sink func(string)) error {
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	sink("답변입니다.")
	return nil
}

func (c slowChatClient) GenerateImage(context.Context, llm.ImageRequest) (llm.ImageResult, error) {
	return llm.ImageResult{}, llm.NewError(llm.KindTransport, nil)
}
func (c slowChatClient) Name() string { return "slow" }
func (c slowChatClient) Close() error { return nil }

// A response that takes longer than the pong window must not cost the
// connection: the read deadline is stretched for the duration of the turn.
func TestChatSurvivesTurnLongerThanPongWindow(t *testing.T) {
	cli := slowChatClient{delay: 200 * time.Millisecond}
	reg := session.NewRegistry(time.Hour, func(string) (*preview.Session, *chat.Session) {
		return preview.NewSession(cli), chat.NewSession(cli)
	})
	t.Cleanup(reg.Close)
	app := reg.Create()

	h := NewChatHandler(reg, 2*time.Second)
	h.pongWait = 50 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(h.Handle))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session_id=" + app.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	readUntilDone := func() {
		for {
			var f chatWSOutbound
			require.NoError(t, conn.ReadJSON(&f))
			if f.Type == "done" {
				return
			}
		}
	}

	var transcript chatWSOutbound
	require.NoError(t, conn.ReadJSON(&transcript))
	assert.Equal(t, "transcript", transcript.Type)

	require.NoError(t, conn.WriteJSON(chatWSInbound{Type: "send", Text: "첫 질문"}))
	readUntilDone()

	// The second turn only works if the connection outlived the first one.
	require.NoError(t, conn.WriteJSON(chatWSInbound{Type: "send", Text: "두번째 질문"}))
	readUntilDone()

	require.Len(t, app.Chat.Transcript(), 5)
}
