package view

import "sync"

// View names one screen of the client shell. The set is closed; unknown
// values are rejected at the transport boundary, not here.
type View string

const (
	Home           View = "HOME"
	ProjectList    View = "PROJECT_LIST"
	ProjectDetail  View = "PROJECT_DETAIL"
	Process        View = "PROCESS"
	Consultation   View = "CONSULTATION"
	About          View = "ABOUT"
	AIPreview      View = "AI_PREVIEW"
	AdminLogin     View = "ADMIN_LOGIN"
	AdminDashboard View = "ADMIN_DASHBOARD"
	EstimateDetail View = "ESTIMATE_DETAIL"
)

var allViews = map[View]struct{}{
	Home: {}, ProjectList: {}, ProjectDetail: {}, Process: {},
	Consultation: {}, About: {}, AIPreview: {}, AdminLogin: {},
	AdminDashboard: {}, EstimateDetail: {},
}

func (v View) Valid() bool {
	_, ok := allViews[v]
	return ok
}

// Router is the stack-based navigation state machine. The history is never
// empty and the current view is always the last element. Navigate and GoBack
// cannot fail; popping past the initial view is a silent no-op.
type Router struct {
	mu      sync.Mutex
	history []View

	// onNavigate fires after every push, replacing the shell's
	// scroll-to-top behavior with an observable signal.
	onNavigate func(View)
}

func NewRouter() *Router {
	return &Router{history: []View{Home}}
}

// SetNotify registers the navigation observer. Pass nil to clear.
func (r *Router) SetNotify(fn func(View)) {
	r.mu.Lock()
	r.onNavigate = fn
	r.mu.Unlock()
}

// Navigate pushes v and makes it current. Re-navigating to the current view
// pushes a duplicate entry on purpose: going back then returns to the same
// screen, matching the shell's behavior.
func (r *Router) Navigate(v View) {
	r.mu.Lock()
	r.history = append(r.history, v)
	fn := r.onNavigate
	r.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// GoBack pops the current view. With only the initial entry left it does
// nothing.
func (r *Router) GoBack() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) > 1 {
		r.history = r.history[:len(r.history)-1]
	}
	return r.history[len(r.history)-1]
}

func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// History returns a copy of the stack, oldest first.
func (r *Router) History() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]View, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}
