// Package modal serializes user confirmation and input requests through one
// process-wide arbiter, replacing blocking native dialogs. Callers anywhere
// can ask for a confirm or a prompt without holding a reference to any UI
// component; the UI host renders the active request and feeds the answer
// back.
package modal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes the two request shapes.
type Kind int

const (
	// KindConfirm resolves to yes/no.
	KindConfirm Kind = iota
	// KindPrompt resolves to a line of text, or nothing on cancel.
	KindPrompt
)

// Options describes a request to present.
type Options struct {
	Title       string
	Message     string
	Placeholder string // prompt only
	Initial     string // prompt only: pre-filled input
	Danger      bool   // style hint for destructive confirms
}

// Request is a pending dialog. The host renders the active request and
// answers it through Resolve or Cancel.
type Request struct {
	ID   string
	Kind Kind
	Options

	done chan answer
}

type answer struct {
	ok   bool
	text string
}

// Arbiter owns the single visible dialog slot. Requests issued while
// another is open queue FIFO behind it; no caller's pending result is ever
// dropped or overwritten. With no host attached every request resolves
// immediately to its safe default: confirms fail closed (false), prompts
// fail empty.
type Arbiter struct {
	mu     sync.Mutex
	notify func()
	hosted bool
	active *Request
	queue  []*Request
}

// NewArbiter returns an arbiter with no host attached.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// AttachHost registers the UI host. notify is invoked (outside the
// arbiter's lock) whenever the active request changes so the host can
// re-render; it must be safe to call from any goroutine.
func (a *Arbiter) AttachHost(notify func()) {
	a.mu.Lock()
	a.hosted = true
	a.notify = notify
	a.mu.Unlock()
}

// DetachHost deregisters the host and resolves every outstanding request to
// its safe default so no caller is left waiting.
func (a *Arbiter) DetachHost() {
	a.mu.Lock()
	a.hosted = false
	a.notify = nil
	pending := a.queue
	a.queue = nil
	active := a.active
	a.active = nil
	a.mu.Unlock()

	if active != nil {
		active.done <- answer{}
	}
	for _, req := range pending {
		req.done <- answer{}
	}
}

// Confirm presents a yes/no dialog and blocks until the user answers, the
// context is cancelled, or the host goes away. Every call resolves; the
// default on any abnormal path is false.
func (a *Arbiter) Confirm(ctx context.Context, opts Options) bool {
	ans := a.ask(ctx, KindConfirm, opts)
	return ans.ok
}

// Prompt presents a text input dialog. ok is false when the user cancelled
// or the request fell back to its default.
func (a *Arbiter) Prompt(ctx context.Context, opts Options) (string, bool) {
	ans := a.ask(ctx, KindPrompt, opts)
	return ans.text, ans.ok
}

func (a *Arbiter) ask(ctx context.Context, kind Kind, opts Options) answer {
	req := &Request{
		ID:      uuid.NewString(),
		Kind:    kind,
		Options: opts,
		done:    make(chan answer, 1),
	}

	a.mu.Lock()
	if !a.hosted {
		a.mu.Unlock()
		return answer{}
	}
	var notify func()
	if a.active == nil {
		a.active = req
		notify = a.notify
	} else {
		a.queue = append(a.queue, req)
	}
	a.mu.Unlock()

	if notify != nil {
		notify()
	}

	select {
	case ans := <-req.done:
		return ans
	case <-ctx.Done():
		a.withdraw(req)
		return answer{}
	}
}

// withdraw removes a request whose caller stopped waiting and, if it was
// active, promotes the next one.
func (a *Arbiter) withdraw(req *Request) {
	a.mu.Lock()
	var notify func()
	if a.active == req {
		notify = a.promoteLocked()
	} else {
		for i, queued := range a.queue {
			if queued == req {
				a.queue = append(a.queue[:i], a.queue[i+1:]...)
				break
			}
		}
	}
	a.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Active returns the request the host should render, or nil.
func (a *Arbiter) Active() *Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Resolve answers the active request. Stale ids (a request already
// withdrawn or resolved) are ignored.
func (a *Arbiter) Resolve(id string, ok bool, text string) {
	a.finish(id, answer{ok: ok, text: text})
}

// Cancel answers the active request with its safe default.
func (a *Arbiter) Cancel(id string) {
	a.finish(id, answer{})
}

func (a *Arbiter) finish(id string, ans answer) {
	a.mu.Lock()
	if a.active == nil || a.active.ID != id {
		a.mu.Unlock()
		return
	}
	req := a.active
	notify := a.promoteLocked()
	a.mu.Unlock()

	req.done <- ans
	if notify != nil {
		notify()
	}
}

// promoteLocked pops the queue into the active slot. Callers hold the lock;
// the returned notify callback must be invoked after releasing it.
func (a *Arbiter) promoteLocked() func() {
	if len(a.queue) > 0 {
		a.active = a.queue[0]
		a.queue = a.queue[1:]
	} else {
		a.active = nil
	}
	return a.notify
}
