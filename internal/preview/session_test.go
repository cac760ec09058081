package preview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucraft/internal/assets"
	"ucraft/internal/llm"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []llm.ImageRequest
	results  []llm.ImageResult
	errs     []error
	calls    int
	block    chan struct{}
}

func (f *fakeClient) GenerateImage(_ context.Context, req llm.ImageRequest) (llm.ImageResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return llm.ImageResult{}, err
	}
	res := llm.ImageResult{Data: []byte("img"), MIMEType: "image/png"}
	if i < len(f.results) {
		res = f.results[i]
	}
	return res, nil
}

func (f *fakeClient) StreamChat(context.Context, llm.ChatRequest, func(string)) error {
	return nil
}
func (f *fakeClient) Name() string { return "fake" }
func (f *fakeClient) Close() error { return nil }

type fakeFetcher struct {
	img  assets.Image
	err  error
	hits int
}

func (f *fakeFetcher) Fetch(context.Context, string) (assets.Image, error) {
	f.hits++
	return f.img, f.err
}

func TestGenerateGuardEmptyPrompt(t *testing.T) {
	cli := &fakeClient{}
	s := NewSession(cli)
	s.SetPrompt("   \n ")

	err := s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNothingToGenerate)
	assert.Equal(t, StateIdle, s.Snapshot().State)
	assert.Zero(t, cli.calls)
}

func TestGenerateSuccessAppendsHistory(t *testing.T) {
	cli := &fakeClient{}
	var events []Event
	s := NewSession(cli, WithNotify(func(e Event) { events = append(events, e) }))
	s.SetPrompt("bright living room")

	require.NoError(t, s.Generate(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "image/png", snap.Current.MIMEType)

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, 1, h[0].Seq)
	assert.Equal(t, "bright living room", h[0].Prompt)
	assert.NotEmpty(t, h[0].ID)

	require.Len(t, events, 1)
	assert.Equal(t, StateSuccess, events[0].State)
	require.NotNil(t, events[0].Item)
}

func TestSequenceNumbersAndOrdering(t *testing.T) {
	cli := &fakeClient{}
	s := NewSession(cli)

	for i := 0; i < 3; i++ {
		s.SetPrompt("room variant")
		require.NoError(t, s.Generate(context.Background()))
	}

	h := s.History()
	require.Len(t, h, 3)
	// Newest first, sequence numbers 1..N in creation order.
	assert.Equal(t, 3, h[0].Seq)
	assert.Equal(t, 2, h[1].Seq)
	assert.Equal(t, 1, h[2].Seq)
}

func TestGenerateBusyGuard(t *testing.T) {
	cli := &fakeClient{block: make(chan struct{})}
	s := NewSession(cli)
	s.SetPrompt("x")

	done := make(chan error, 1)
	go func() { done <- s.Generate(context.Background()) }()

	// Wait until the first call flips the session to Loading.
	for s.Snapshot().State != StateLoading {
		time.Sleep(time.Millisecond)
	}
	err := s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(cli.block)
	require.NoError(t, <-done)
}

func TestGenerateClassifiedError(t *testing.T) {
	cli := &fakeClient{errs: []error{llm.NewError(llm.KindRateLimited, errors.New("429"))}}
	s := NewSession(cli)
	s.SetPrompt("x")

	err := s.Generate(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, llm.KindRateLimited, snap.ErrorKind)
	assert.Equal(t, llm.KindRateLimited.UserMessage(), snap.ErrorMessage)
}

func TestGenerateSafetyBlockDistinctMessage(t *testing.T) {
	cli := &fakeClient{errs: []error{llm.NewError(llm.KindContentBlocked, nil)}}
	s := NewSession(cli)
	s.SetPrompt("x")

	_ = s.Generate(context.Background())
	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, llm.KindContentBlocked, snap.ErrorKind)
	assert.NotEqual(t, llm.KindNoImage.UserMessage(), snap.ErrorMessage)
}

func TestGenerateErrorClearedOnNextCall(t *testing.T) {
	cli := &fakeClient{errs: []error{llm.NewError(llm.KindOverloaded, nil), nil}}
	s := NewSession(cli)
	s.SetPrompt("x")

	_ = s.Generate(context.Background())
	require.Equal(t, StateError, s.Snapshot().State)

	require.NoError(t, s.Generate(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	assert.Empty(t, snap.ErrorMessage)
}

func TestReferenceFetchFailureDegradesToTextOnly(t *testing.T) {
	cli := &fakeClient{}
	fetch := &fakeFetcher{err: errors.New("404")}
	s := NewSession(cli, WithFetcher(fetch))
	s.SetPrompt("keep my floor plan")
	s.SetReferenceURL("https://example.com/room.jpg")

	require.NoError(t, s.Generate(context.Background()))
	assert.Equal(t, 1, fetch.hits)
	assert.Equal(t, StateSuccess, s.Snapshot().State)

	// The attempted request was text-only.
	require.Len(t, cli.requests, 1)
	require.Len(t, cli.requests[0].Parts, 1)
	assert.NotEmpty(t, cli.requests[0].Parts[0].Text)
}

func TestReferenceOnlyGenerationAllowed(t *testing.T) {
	cli := &fakeClient{}
	fetch := &fakeFetcher{img: assets.Image{Data: []byte{1}, MIMEType: "image/png"}}
	s := NewSession(cli, WithFetcher(fetch))
	s.SetReferenceURL("https://example.com/room.jpg")

	require.NoError(t, s.Generate(context.Background()))
	require.Len(t, cli.requests, 1)
	assert.Len(t, cli.requests[0].Parts, 2)
}

func TestRefinementOneShot(t *testing.T) {
	cli := &fakeClient{}
	s := NewSession(cli)
	s.SetPrompt("first pass")
	require.NoError(t, s.Generate(context.Background()))

	require.NoError(t, s.ToggleRefine(true))
	s.SetRefinePrompt("warmer lighting")
	require.NoError(t, s.Generate(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Refining)
	assert.Empty(t, snap.RefinePrompt)
	assert.Len(t, s.History(), 2)

	// The refinement request conditioned on the previous image.
	require.Len(t, cli.requests, 2)
	assert.NotEmpty(t, cli.requests[1].Parts[0].Data)
}

func TestToggleRefineRequiresResult(t *testing.T) {
	s := NewSession(&fakeClient{})
	assert.ErrorIs(t, s.ToggleRefine(true), ErrNoResult)
}

func TestRefineGuardEmptyRefinePrompt(t *testing.T) {
	cli := &fakeClient{}
	s := NewSession(cli)
	s.SetPrompt("base")
	require.NoError(t, s.Generate(context.Background()))
	require.NoError(t, s.ToggleRefine(true))

	err := s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNothingToGenerate)
	assert.True(t, s.Snapshot().Refining)
}

func TestRestorePurity(t *testing.T) {
	cli := &fakeClient{}
	s := NewSession(cli)

	s.SetPrompt("first")
	require.NoError(t, s.Configure(Facets{StyleID: "Nordic", ToneID: "Beige & Wood", AngleID: "corner", Tier: TierUltra}))
	require.NoError(t, s.Generate(context.Background()))

	s.SetPrompt("second")
	require.NoError(t, s.Configure(Facets{StyleID: "Modern", ToneID: "Light Grey", AngleID: "eye_level", Tier: TierStandard}))
	require.NoError(t, s.Generate(context.Background()))

	h := s.History()
	require.Len(t, h, 2)
	first := h[1]
	require.Equal(t, 1, first.Seq)

	require.NoError(t, s.Restore(first.ID))

	snap := s.Snapshot()
	assert.Equal(t, first.Facets, snap.Facets)
	assert.Equal(t, "first", snap.Prompt)
	assert.False(t, snap.Refining)
	assert.Empty(t, snap.ErrorMessage)
	require.NotNil(t, snap.Current)
	assert.Equal(t, first.Image.Data, snap.Current.Data)

	// History is not reordered and no client call happened.
	after := s.History()
	require.Len(t, after, 2)
	assert.Equal(t, h[0].ID, after[0].ID)
	assert.Equal(t, 2, cli.calls)

	// Sequence numbering continues from the max, not from the restored item.
	s.SetPrompt("third")
	require.NoError(t, s.Generate(context.Background()))
	assert.Equal(t, 3, s.History()[0].Seq)
}

func TestRestoreUnknownItem(t *testing.T) {
	s := NewSession(&fakeClient{})
	assert.ErrorIs(t, s.Restore("nope"), ErrItemNotFound)
}

func TestArchiverReceivesEveryResult(t *testing.T) {
	cli := &fakeClient{}
	var archived []HistoryItem
	s := NewSession(cli, WithArchiver(func(item HistoryItem) { archived = append(archived, item) }))
	s.SetPrompt("x")
	require.NoError(t, s.Generate(context.Background()))
	require.NoError(t, s.Generate(context.Background()))
	require.Len(t, archived, 2)
	assert.Equal(t, 1, archived[0].Seq)
	assert.Equal(t, 2, archived[1].Seq)
}

func TestResultDataURI(t *testing.T) {
	r := Result{Data: []byte{1, 2}, MIMEType: "image/png"}
	assert.Equal(t, "data:image/png;base64,AQI=", r.DataURI())
}
