package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucraft/internal/llm"
)

type scriptedClient struct {
	chunks   []string
	err      error
	failMid  bool
	requests []llm.ChatRequest
	release  chan struct{}
}

func (c *scriptedClient) StreamChat(_ context.Context, req llm.ChatRequest, sink func(string)) error {
	c.requests = append(c.requests, req)
	if c.release != nil {
		<-c.release
	}
	for i, chunk := range c.chunks {
		sink(chunk)
		if c.failMid && i == len(c.chunks)-1 {
			return c.err
		}
	}
	return c.err
}

func (c *scriptedClient) GenerateImage(context.Context, llm.ImageRequest) (llm.ImageResult, error) {
	return llm.ImageResult{}, errors.New("not implemented")
}
func (c *scriptedClient) Name() string { return "scripted" }
func (c *scriptedClient) Close() error { return nil }

func TestSessionSeedsGreeting(t *testing.T) {
	s := NewSession(&scriptedClient{})
	turns := s.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, llm.RoleModel, turns[0].Role)
	assert.NotEmpty(t, turns[0].Text)
}

func TestSendStreamsIntoPlaceholder(t *testing.T) {
	cli := &scriptedClient{chunks: []string{"견적은 ", "현장 실측 후 ", "안내드립니다."}}
	s := NewSession(cli)

	var streamed []string
	delivered, err := s.Send(context.Background(), "욕실 리모델링 견적이 궁금해요", func(c string) {
		streamed = append(streamed, c)
	})
	require.NoError(t, err)
	assert.True(t, delivered)

	assert.Len(t, streamed, 3)
	turns := s.Transcript()
	require.Len(t, turns, 3)
	assert.Equal(t, llm.RoleUser, turns[1].Role)
	assert.Equal(t, "견적은 현장 실측 후 안내드립니다.", turns[2].Text)
	assert.False(t, s.Loading())
}

func TestSendIncludesPriorHistory(t *testing.T) {
	cli := &scriptedClient{chunks: []string{"ok"}}
	s := NewSession(cli)

	_, err := s.Send(context.Background(), "first question", nil)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "second question", nil)
	require.NoError(t, err)

	require.Len(t, cli.requests, 2)
	second := cli.requests[1]
	// greeting + q1 + a1 + q2, without the new placeholder.
	require.Len(t, second.Turns, 4)
	assert.Equal(t, "second question", second.Turns[3].Text)
	assert.Equal(t, Model, second.Model)
	assert.NotEmpty(t, second.SystemInstruction)
}

func TestSendGuards(t *testing.T) {
	cli := &scriptedClient{chunks: []string{"ok"}, release: make(chan struct{})}
	s := NewSession(cli)

	_, err := s.Send(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	done := make(chan error, 1)
	go func() {
		_, sendErr := s.Send(context.Background(), "hello", nil)
		done <- sendErr
	}()
	for !s.Loading() {
		time.Sleep(time.Millisecond)
	}
	_, err = s.Send(context.Background(), "again", nil)
	assert.ErrorIs(t, err, ErrBusy)
	close(cli.release)
	require.NoError(t, <-done)
}

func TestZeroChunkFailureSubstitutesCannedMessage(t *testing.T) {
	cli := &scriptedClient{err: llm.NewError(llm.KindInvalidCredential, errors.New("expired"))}
	s := NewSession(cli)

	var streamed []string
	delivered, err := s.Send(context.Background(), "hello", func(c string) { streamed = append(streamed, c) })
	require.NoError(t, err)
	assert.False(t, delivered)

	turns := s.Transcript()
	last := turns[len(turns)-1]
	assert.Contains(t, last.Text, "API 키가 만료")
	require.Len(t, streamed, 1)
	assert.Equal(t, last.Text, streamed[0])
}

func TestPartialStreamPreservedOnFailure(t *testing.T) {
	cli := &scriptedClient{
		chunks:  []string{"부분 ", "응답"},
		err:     llm.NewError(llm.KindTransport, errors.New("reset")),
		failMid: true,
	}
	s := NewSession(cli)

	delivered, err := s.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.False(t, delivered)

	turns := s.Transcript()
	assert.Equal(t, "부분 응답", turns[len(turns)-1].Text)
}

func TestGenericFailureMessage(t *testing.T) {
	cli := &scriptedClient{err: llm.NewError(llm.KindOverloaded, nil)}
	s := NewSession(cli)
	delivered, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.False(t, delivered)
	turns := s.Transcript()
	assert.Contains(t, turns[len(turns)-1].Text, "서비스 연결이 지연")
}
