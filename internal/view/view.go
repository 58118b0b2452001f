// Package view implements the portfolio view: it owns the one-time load of the
// profile document and renders whichever state the load has reached.
package view

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonathan/portfolio/internal/loader"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/jonathan/portfolio/internal/types"
	"go.uber.org/zap"
)

// State is the load state of a View.
type State int

const (
	// StateLoading is the initial state; the document is absent.
	StateLoading State = iota
	// StateLoaded holds the document. Terminal.
	StateLoaded
	// StateFailed holds the load error. Terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNotInitialized is returned by Wait when Initialize was never called.
var ErrNotInitialized = errors.New("view not initialized")

// Snapshot is a consistent copy of a View's state.
type Snapshot struct {
	State   State
	Profile *types.ProfileDocument
	Err     error
}

// Options configures a View.
type Options struct {
	Logger   *zap.Logger
	Renderer *rendering.Renderer
	Contact  rendering.Contact
	// RetryPath is rendered as the retry button target on the failure page.
	RetryPath string
	// RefreshSeconds is passed to the loading page.
	RefreshSeconds int
}

// View is a single mounted portfolio page. The profile is loaded at most once
// per View; a retry means mounting a new View.
type View struct {
	id       uuid.UUID
	source   loader.Source
	logger   *zap.Logger
	renderer *rendering.Renderer
	opts     Options

	once        sync.Once
	initialized atomic.Bool
	done        chan struct{}
	cancel      context.CancelFunc

	mu      sync.RWMutex
	mounted bool
	state   State
	profile *types.ProfileDocument
	err     error
}

// New creates a View in the loading state. The renderer defaults to the embedded templates.
func New(source loader.Source, opts Options) (*View, error) {
	if source == nil {
		return nil, errors.New("view: nil source")
	}
	renderer := opts.Renderer
	if renderer == nil {
		r, err := rendering.New()
		if err != nil {
			return nil, err
		}
		renderer = r
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New()
	return &View{
		id:       id,
		source:   source,
		logger:   logger.With(zap.String("mount_id", id.String())),
		renderer: renderer,
		opts:     opts,
		done:     make(chan struct{}),
		cancel:   func() {},
		mounted:  true,
		state:    StateLoading,
	}, nil
}

// ID returns the mount id of the view.
func (v *View) ID() uuid.UUID {
	return v.id
}

// Initialize starts the one retrieval of the profile document. Only the first
// call has an effect; later calls and renders never trigger another fetch.
func (v *View) Initialize(ctx context.Context) {
	v.once.Do(func() {
		loadCtx, cancel := context.WithCancel(ctx)

		v.mu.Lock()
		v.cancel = cancel
		mounted := v.mounted
		v.mu.Unlock()

		v.initialized.Store(true)
		if !mounted {
			cancel()
			close(v.done)
			return
		}

		v.logger.Debug("Loading profile document")
		go v.load(loadCtx)
	})
}

func (v *View) load(ctx context.Context) {
	defer close(v.done)

	doc, err := v.source.FetchProfile(ctx)
	if err != nil {
		v.onLoadFailure(err)
		return
	}
	v.onLoadSuccess(doc)
}

func (v *View) onLoadSuccess(doc *types.ProfileDocument) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		v.logger.Debug("Discarding profile document for closed view")
		return
	}
	if v.state != StateLoading {
		return
	}
	v.state = StateLoaded
	v.profile = doc
	v.logger.Info("Profile document loaded",
		zap.String("name", doc.About.Name),
		zap.Int("skills", len(doc.Skills)),
		zap.Int("projects", len(doc.Projects)),
		zap.Int("work_experience", len(doc.WorkExperience)))
}

func (v *View) onLoadFailure(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		v.logger.Debug("Discarding load error for closed view", zap.Error(err))
		return
	}
	if v.state != StateLoading {
		return
	}
	v.state = StateFailed
	v.err = err
	v.logger.Error("Error loading profile document",
		zap.String("kind", errorKind(err)),
		zap.Error(err))
}

// Close unmounts the view. An in-flight load is cancelled and its result is
// dropped. Close is safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	v.mounted = false
	cancel := v.cancel
	v.mu.Unlock()

	cancel()
}

// Wait blocks until the load has settled or ctx is done.
func (v *View) Wait(ctx context.Context) error {
	if !v.initialized.Load() {
		return ErrNotInitialized
	}
	select {
	case <-v.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{State: v.state, Profile: v.profile, Err: v.err}
}

// State returns the current load state.
func (v *View) State() State {
	return v.Snapshot().State
}

// Render writes the page for the current state to w.
func (v *View) Render(w io.Writer) error {
	return v.RenderSnapshot(w, v.Snapshot())
}

// RenderSnapshot writes the page for snap to w, so callers that already
// inspected a snapshot render exactly that state.
func (v *View) RenderSnapshot(w io.Writer, snap Snapshot) error {
	return v.renderer.Render(w, v.Page(snap))
}

// Page builds the rendering model for a snapshot.
func (v *View) Page(snap Snapshot) rendering.Page {
	page := rendering.Page{
		Contact:        v.opts.Contact,
		RetryPath:      v.opts.RetryPath,
		RefreshSeconds: v.opts.RefreshSeconds,
	}
	switch snap.State {
	case StateLoaded:
		page.Kind = rendering.KindLoaded
		page.Profile = snap.Profile
	case StateFailed:
		page.Kind = rendering.KindFailed
		page.ErrorKind = errorKind(snap.Err)
	default:
		page.Kind = rendering.KindLoading
	}
	return page
}

// errorKind classifies err for logs and the failure page.
func errorKind(err error) string {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return string(loadErr.Kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(loader.KindFetch)
	}
	return "unknown"
}
