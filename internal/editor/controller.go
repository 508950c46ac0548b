package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cvflow/cvflow-cli/internal/cvflow"

	"go.uber.org/zap"
)

// DebounceInterval is the quiet period after the last content edit before
// an autosave is issued.
const DebounceInterval = 2 * time.Second

// Store is the document-store surface the controller needs. *cvflow.Client
// satisfies it; tests inject fakes.
type Store interface {
	CreateCV(ctx context.Context, title, templateID string) (*cvflow.CV, error)
	GetCV(ctx context.Context, id string) (*cvflow.CV, error)
	UpdateCV(ctx context.Context, id string, update *cvflow.CVUpdate) (*cvflow.CV, error)
	AutosaveContent(ctx context.Context, id string, content cvflow.Content) error
	DownloadPreview(ctx context.Context, id string) ([]byte, error)
}

// Controller owns one CV's draft state for the duration of an editing
// session. Content edits are coalesced into a single autosave after
// DebounceInterval of quiescence; title commits persist immediately.
// At most one persist request is in flight for the document at any time.
type Controller struct {
	store  Store
	logger *zap.Logger

	// ctx covers background autosaves issued by the debounce timer.
	ctx context.Context

	// Debounce overrides DebounceInterval when set before the first edit.
	Debounce time.Duration

	// OnStatusChange, when set, is invoked on every save-status transition.
	// It runs with the controller locked: it must be fast and must not call
	// back into the Controller.
	OnStatusChange func(SaveStatus)

	// slot is the single persist slot. Holding it is what guarantees no
	// overlapping writes for the document id.
	slot chan struct{}

	mu      sync.Mutex
	id      string
	created bool
	title   string
	content cvflow.Content
	status  SaveStatus
	timer   *time.Timer
	closed  bool

	// gen counts content edits; savedGen is the last generation persisted.
	// They decide whether a finished persist leaves the document clean.
	gen      uint64
	savedGen uint64
}

// Open starts an editing session. The sentinel id cvflow.NewCVID allocates
// a fresh document first, using templateID (empty means the store default);
// the session then continues against the assigned id (Created reports true
// so the caller can navigate to it). Any create or load failure is returned
// as-is: the caller must fall back to its listing view instead of
// presenting a broken editor.
func Open(ctx context.Context, store Store, logger *zap.Logger, id, templateID string) (*Controller, error) {
	c := &Controller{
		store:  store,
		logger: logger,
		ctx:    ctx,
		slot:   make(chan struct{}, 1),
		status: StatusSaved,
	}

	if id == cvflow.NewCVID {
		cv, err := store.CreateCV(ctx, "", templateID)
		if err != nil {
			return nil, fmt.Errorf("creating cv: %w", err)
		}

		c.created = true
		c.adopt(cv)
		logger.Debug("created cv", zap.String("cv_id", cv.ID))

		return c, nil
	}

	cv, err := store.GetCV(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading cv %s: %w", id, err)
	}

	c.adopt(cv)

	return c, nil
}

func (c *Controller) adopt(cv *cvflow.CV) {
	c.id = cv.ID
	c.title = cv.Title
	c.content = cv.Content
	if c.content == nil {
		c.content = cvflow.Content{}
	}
}

func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Created reports whether this session allocated a new document.
func (c *Controller) Created() bool {
	return c.created
}

func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

func (c *Controller) Content() cvflow.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *Controller) Status() SaveStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetContent records a content edit. The snapshot is treated as immutable
// from here on. Each call restarts the debounce window; only the trailing
// edit after a full quiet period is written out.
func (c *Controller) SetContent(content cvflow.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.content = content
	c.gen++
	c.setStatusLocked(StatusUnsaved)
	c.restartTimerLocked()
}

// CommitTitle applies a title edit. Empty and unchanged values (after
// trimming) are rejected without a request, so the caller reverts its edit
// buffer. A committed title persists immediately, without the debounce.
func (c *Controller) CommitTitle(ctx context.Context, title string) (bool, error) {
	trimmed := strings.TrimSpace(title)

	c.mu.Lock()
	if c.closed || trimmed == "" || trimmed == c.title {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	c.slot <- struct{}{}
	defer func() { <-c.slot }()

	c.mu.Lock()
	if c.closed || trimmed == c.title {
		c.mu.Unlock()
		return false, nil
	}
	id := c.id
	c.setStatusLocked(StatusUnsaved)
	c.setStatusLocked(StatusSaving)
	c.mu.Unlock()

	_, err := c.store.UpdateCV(ctx, id, &cvflow.CVUpdate{Title: &trimmed})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.setStatusLocked(StatusUnsaved)
		return false, fmt.Errorf("renaming cv %s: %w", id, err)
	}

	c.title = trimmed
	c.settleStatusLocked()

	return true, nil
}

// Save persists pending content immediately, cancelling any armed debounce
// timer first so only a single request is issued. A failed save leaves the
// document unsaved; there is no automatic retry.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.status != StatusUnsaved {
		c.mu.Unlock()
		return nil
	}
	c.stopTimerLocked()
	c.mu.Unlock()

	c.slot <- struct{}{}
	defer func() { <-c.slot }()

	return c.persist(ctx)
}

// Download fetches the rendered artifact. It is a best-effort side
// operation: failures never touch the save status.
func (c *Controller) Download(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	data, err := c.store.DownloadPreview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("downloading cv %s: %w", id, err)
	}

	return data, nil
}

// Close tears the session down. Any armed debounce timer is cancelled, so
// no write is ever issued after Close returns; a persist already in flight
// simply runs to completion.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimerLocked()
}

// flush is the debounce timer's target.
func (c *Controller) flush() {
	c.mu.Lock()
	c.timer = nil
	if c.closed || c.status == StatusSaved {
		c.mu.Unlock()
		return
	}
	if c.status == StatusSaving {
		// A persist holds the slot right now. Re-arm so a content edit
		// pending behind it still gets its autosave cycle.
		c.restartTimerLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	select {
	case c.slot <- struct{}{}:
	default:
		// A persist is already in flight. Re-arm instead of overlapping;
		// the pending edit is picked up by the next cycle.
		c.mu.Lock()
		if !c.closed {
			c.restartTimerLocked()
		}
		c.mu.Unlock()
		return
	}
	defer func() { <-c.slot }()

	if err := c.persist(c.ctx); err != nil {
		c.logger.Warn("autosave failed", zap.String("cv_id", c.ID()), zap.Error(err))
	}
}

// persist issues one autosave for the latest content snapshot. The caller
// must hold the persist slot.
func (c *Controller) persist(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.status != StatusUnsaved {
		c.mu.Unlock()
		return nil
	}
	id, snapshot, gen := c.id, c.content, c.gen
	c.setStatusLocked(StatusSaving)
	c.mu.Unlock()

	err := c.store.AutosaveContent(ctx, id, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.status == StatusSaving {
			c.setStatusLocked(StatusUnsaved)
		}
		return fmt.Errorf("autosaving cv %s: %w", id, err)
	}

	c.savedGen = gen
	c.settleStatusLocked()

	return nil
}

// settleStatusLocked resolves the status after a successful persist: saved
// when no newer content edit arrived in the meantime, otherwise the newer
// edit keeps the document unsaved and a debounce cycle persists it. A timer
// that fired into the busy persist slot is gone, so re-arm here when none
// is left.
func (c *Controller) settleStatusLocked() {
	if c.gen == c.savedGen {
		c.setStatusLocked(StatusSaved)
		return
	}

	c.setStatusLocked(StatusUnsaved)
	if !c.closed && c.timer == nil {
		c.restartTimerLocked()
	}
}

func (c *Controller) setStatusLocked(status SaveStatus) {
	if c.status == status {
		return
	}

	c.status = status
	if c.OnStatusChange != nil {
		c.OnStatusChange(status)
	}
}

func (c *Controller) restartTimerLocked() {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.debounce(), c.flush)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) debounce() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}

	return DebounceInterval
}
