package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ucraft/internal/llm"
)

const (
	// Model is the conversational model behind the concierge overlay.
	Model = "gemini-3-flash-preview"

	systemInstruction = "당신은 'U Craft 인테리어'의 총괄 실장입니다. 친절하고 신뢰감 있는 태도로 답변하세요. " +
		"답변은 3문장 이내로 핵심만 전달하며, 구체적인 견적은 [시공 상담 신청] 메뉴를 통해 현장 실측이 필요하다고 안내하세요."

	greeting = "반갑습니다. U Craft 총괄 실장입니다. 시공 관련 궁금한 점을 무엇이든 물어보세요. 🏠"
)

var (
	// ErrBusy rejects a send while a response is still streaming in.
	ErrBusy = errors.New("chat: a send is already in flight")
	// ErrEmptyMessage is the empty-input guard.
	ErrEmptyMessage = errors.New("chat: message is empty")
)

type Turn struct {
	Role llm.Role `json:"role"`
	Text string   `json:"text"`
}

// Session keeps the transcript of one visitor conversation and grows the
// latest assistant turn chunk by chunk while a response streams in. One
// outstanding request at a time; a second Send is rejected, not queued.
type Session struct {
	client llm.Client

	mu      sync.Mutex
	turns   []Turn
	loading bool
}

func NewSession(client llm.Client) *Session {
	return &Session{
		client: client,
		turns:  []Turn{{Role: llm.RoleModel, Text: greeting}},
	}
}

// Send appends the user turn plus an assistant placeholder, then streams the
// response into the placeholder, invoking sink once per fragment. Provider
// failures never surface as errors: a zero-chunk failure replaces the
// placeholder with a classified message, while partial text is kept as is.
// Only guard violations return an error; delivered reports whether the
// provider stream completed cleanly.
func (s *Session) Send(ctx context.Context, userText string, sink func(chunk string)) (delivered bool, _ error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return false, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return false, ErrBusy
	}
	s.loading = true
	s.turns = append(s.turns,
		Turn{Role: llm.RoleUser, Text: userText},
		Turn{Role: llm.RoleModel, Text: ""},
	)
	req := llm.ChatRequest{
		Model:             Model,
		SystemInstruction: systemInstruction,
		// Context for the provider: everything before the placeholder.
		Turns: historyTurns(s.turns[:len(s.turns)-1]),
	}
	s.mu.Unlock()

	err := s.client.StreamChat(ctx, req, func(chunk string) {
		s.appendChunk(chunk)
		if sink != nil {
			sink(chunk)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		last := &s.turns[len(s.turns)-1]
		if last.Text == "" {
			// Nothing streamed; substitute the canned message. Partial
			// output, had any arrived, would be better than none and is
			// kept untouched.
			last.Text = chatErrorMessage(err)
			if sink != nil {
				sink(last.Text)
			}
		}
	}
	return err == nil, nil
}

func (s *Session) appendChunk(chunk string) {
	s.mu.Lock()
	s.turns[len(s.turns)-1].Text += chunk
	s.mu.Unlock()
}

// Transcript returns a copy of all turns, oldest first.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func historyTurns(turns []Turn) []llm.Turn {
	out := make([]llm.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Turn{Role: t.Role, Text: t.Text})
	}
	return out
}

// chatErrorMessage folds the error taxonomy down to the two messages the
// overlay shows: credential guidance or a generic connectivity notice.
func chatErrorMessage(err error) string {
	switch llm.KindOf(err) {
	case llm.KindInvalidCredential, llm.KindMissingCredential:
		return "API 키가 만료되었습니다. 관리자에게 문의하거나 잠시 후 다시 시도해 주세요."
	default:
		return "서비스 연결이 지연되고 있습니다. 잠시 후 다시 질문해 주세요."
	}
}
