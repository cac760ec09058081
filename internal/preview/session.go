package preview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ucraft/internal/assets"
	"ucraft/internal/llm"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

var (
	// ErrBusy rejects a generate while one is already in flight.
	ErrBusy = errors.New("preview: generation already in flight")
	// ErrNothingToGenerate is the empty-prompt guard; session state is untouched.
	ErrNothingToGenerate = errors.New("preview: empty prompt and no reference image")
	// ErrNoResult guards refinement mode entry before any result exists.
	ErrNoResult = errors.New("preview: no result to refine")
	// ErrItemNotFound reports an unknown history item id.
	ErrItemNotFound = errors.New("preview: history item not found")
)

// Result is one generated image.
type Result struct {
	Data     []byte
	MIMEType string
}

func (r Result) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", r.MIMEType, base64.StdEncoding.EncodeToString(r.Data))
}

// HistoryItem is an immutable gallery entry: the generated image plus a
// snapshot of the inputs that produced it. Seq starts at 1 and never
// recurs, even across restores.
type HistoryItem struct {
	ID        string
	Seq       int
	Image     Result
	Prompt    string
	Facets    Facets
	CreatedAt time.Time
}

// Event is the "a new result is ready to present" signal the UI layer
// subscribes to in place of scroll-into-view.
type Event struct {
	State   State
	Item    *HistoryItem
	ErrKind llm.Kind
	Message string
}

// Fetcher abstracts the reference-image download so tests can fake it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (assets.Image, error)
}

// Archiver receives a copy of every successful generation, off the session
// lock. Used to persist images to object storage; failures are the
// archiver's problem, never the session's.
type Archiver func(item HistoryItem)

// Session owns the preview workflow: the active facet selection, the
// in-flight request lifecycle, the refinement sub-mode and the gallery.
// One generation may be outstanding at a time; the second caller gets ErrBusy.
type Session struct {
	client  llm.Client
	fetch   Fetcher
	notify  func(Event)
	archive Archiver

	mu           sync.Mutex
	state        State
	errKind      llm.Kind
	errMsg       string
	refining     bool
	facets       Facets
	prompt       string
	refinePrompt string
	referenceURL string
	current      *Result
	history      []HistoryItem
	nextSeq      int
}

type SessionOption func(*Session)

func WithFetcher(f Fetcher) SessionOption { return func(s *Session) { s.fetch = f } }
func WithNotify(fn func(Event)) SessionOption {
	return func(s *Session) { s.notify = fn }
}
func WithArchiver(a Archiver) SessionOption { return func(s *Session) { s.archive = a } }

func NewSession(client llm.Client, opts ...SessionOption) *Session {
	s := &Session{
		client:  client,
		state:   StateIdle,
		nextSeq: 1,
		facets: Facets{
			StyleID: Styles[0].ID,
			ToneID:  ColorTones[0].ID,
			AngleID: ViewAngles[0].ID,
			Tier:    TierStandard,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure replaces the facet selection. Rejected wholesale when any id is
// outside its catalog.
func (s *Session) Configure(f Facets) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.facets = f
	s.mu.Unlock()
	return nil
}

func (s *Session) SetPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

func (s *Session) SetRefinePrompt(text string) {
	s.mu.Lock()
	s.refinePrompt = text
	s.mu.Unlock()
}

func (s *Session) SetReferenceURL(url string) {
	s.mu.Lock()
	s.referenceURL = url
	s.mu.Unlock()
}

// ToggleRefine enters or leaves refinement mode. Entering requires a current
// result; leaving clears the refinement prompt.
func (s *Session) ToggleRefine(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		if s.current == nil {
			return ErrNoResult
		}
		s.refining = true
		return nil
	}
	s.refining = false
	s.refinePrompt = ""
	return nil
}

// Generate runs one generation cycle. Guards never touch session state; any
// provider failure is classified and stored as the session's Error state
// (and also returned for the caller's logging). No automatic retry.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}

	activePrompt := s.prompt
	if s.refining {
		activePrompt = s.refinePrompt
	}
	hasReference := !s.refining && strings.TrimSpace(s.referenceURL) != ""
	if strings.TrimSpace(activePrompt) == "" && !hasReference && !s.refining {
		s.mu.Unlock()
		return ErrNothingToGenerate
	}
	if s.refining && strings.TrimSpace(activePrompt) == "" {
		s.mu.Unlock()
		return ErrNothingToGenerate
	}

	in := BuildInput{
		Facets:   s.facets,
		Prompt:   activePrompt,
		Refining: s.refining,
	}
	if s.refining {
		prev := llm.ImageResult{Data: s.current.Data, MIMEType: s.current.MIMEType}
		in.Previous = &prev
	}
	refURL := s.referenceURL

	s.state = StateLoading
	s.errKind = llm.KindUnknown
	s.errMsg = ""
	s.mu.Unlock()

	// Outside the lock from here: snapshot reads stay responsive while the
	// provider call is outstanding.
	if hasReference && s.fetch != nil {
		img, err := s.fetch.Fetch(ctx, refURL)
		if err != nil {
			// Degrade to text-only rather than failing the generation.
			log.Printf("preview: reference fetch failed, proceeding text-only: %v", err)
		} else {
			in.Reference = &img
		}
	}

	req, err := Build(in)
	if err == nil {
		var res llm.ImageResult
		res, err = s.client.GenerateImage(ctx, req)
		if err == nil {
			s.finishSuccess(in, res)
			return nil
		}
	}
	s.finishError(err)
	return err
}

func (s *Session) finishSuccess(in BuildInput, res llm.ImageResult) {
	s.mu.Lock()
	result := Result{Data: res.Data, MIMEType: res.MIMEType}
	item := HistoryItem{
		ID:        uuid.NewString(),
		Seq:       s.nextSeq,
		Image:     result,
		Prompt:    in.Prompt,
		Facets:    in.Facets,
		CreatedAt: time.Now(),
	}
	s.nextSeq++
	s.current = &result
	s.history = append([]HistoryItem{item}, s.history...)
	// Refinement is a one-shot action; a successful pass returns the
	// session to normal viewing.
	s.refining = false
	s.refinePrompt = ""
	s.state = StateSuccess
	notify := s.notify
	archive := s.archive
	s.mu.Unlock()

	if archive != nil {
		archive(item)
	}
	if notify != nil {
		notify(Event{State: StateSuccess, Item: &item})
	}
}

func (s *Session) finishError(err error) {
	kind := llm.KindOf(err)
	s.mu.Lock()
	s.state = StateError
	s.errKind = kind
	s.errMsg = kind.UserMessage()
	msg := s.errMsg
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(Event{State: StateError, ErrKind: kind, Message: msg})
	}
}

// Restore overwrites the current result and facet selection with the
// snapshot held in the history item. A pure state write: nothing is
// re-generated and the gallery ordering is untouched.
func (s *Session) Restore(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.history {
		if item.ID != itemID {
			continue
		}
		img := item.Image
		s.current = &img
		s.facets = item.Facets
		s.prompt = item.Prompt
		s.refining = false
		s.refinePrompt = ""
		s.state = StateSuccess
		s.errKind = llm.KindUnknown
		s.errMsg = ""
		return nil
	}
	return ErrItemNotFound
}

// History returns the gallery, newest first.
func (s *Session) History() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

// Item looks a gallery entry up by id.
func (s *Session) Item(itemID string) (HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.history {
		if item.ID == itemID {
			return item, true
		}
	}
	return HistoryItem{}, false
}

// Snapshot is the read model handlers serialize.
type Snapshot struct {
	State        State
	Refining     bool
	Facets       Facets
	Prompt       string
	RefinePrompt string
	ReferenceURL string
	ErrorKind    llm.Kind
	ErrorMessage string
	Current      *Result
	HistoryLen   int
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:        s.state,
		Refining:     s.refining,
		Facets:       s.facets,
		Prompt:       s.prompt,
		RefinePrompt: s.refinePrompt,
		ReferenceURL: s.referenceURL,
		ErrorKind:    s.errKind,
		ErrorMessage: s.errMsg,
		HistoryLen:   len(s.history),
	}
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	return snap
}

