package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cvflow/cvflow-cli/internal/cvflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDebounce = 40 * time.Millisecond

type autosaveCall struct {
	id      string
	content cvflow.Content
}

type updateCall struct {
	id     string
	update *cvflow.CVUpdate
}

type fakeStore struct {
	mu sync.Mutex

	cv        *cvflow.CV
	createErr error
	getErr    error

	autosaves        []autosaveCall
	autosaveErr      error
	autosaveAttempts int
	// autosaveGate, when set, blocks AutosaveContent until it is closed.
	autosaveGate chan struct{}

	updates   []updateCall
	updateErr error
	// updateGate, when set, blocks UpdateCV until it is closed.
	updateGate chan struct{}

	downloads   int
	downloadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cv: &cvflow.CV{
			CVSummary: cvflow.CVSummary{ID: "doc-42", Title: "My CV", TemplateID: "olive"},
			Content:   cvflow.Content{"summary": "hello"},
		},
	}
}

func (s *fakeStore) CreateCV(_ context.Context, _, _ string) (*cvflow.CV, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.cv, nil
}

func (s *fakeStore) GetCV(_ context.Context, id string) (*cvflow.CV, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if id != s.cv.ID {
		return nil, errors.New("not found")
	}
	return s.cv, nil
}

func (s *fakeStore) UpdateCV(_ context.Context, id string, update *cvflow.CVUpdate) (*cvflow.CV, error) {
	s.mu.Lock()
	gate := s.updateGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updates = append(s.updates, updateCall{id: id, update: update})
	return s.cv, nil
}

func (s *fakeStore) AutosaveContent(_ context.Context, id string, content cvflow.Content) error {
	s.mu.Lock()
	gate := s.autosaveGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.autosaveAttempts++
	if s.autosaveErr != nil {
		return s.autosaveErr
	}
	s.autosaves = append(s.autosaves, autosaveCall{id: id, content: content})
	return nil
}

func (s *fakeStore) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autosaveAttempts
}

func (s *fakeStore) DownloadPreview(_ context.Context, _ string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloads++
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return []byte("%PDF"), nil
}

func (s *fakeStore) autosaveCalls() []autosaveCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]autosaveCall(nil), s.autosaves...)
}

func (s *fakeStore) updateCalls() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updates...)
}

func openTestController(t *testing.T, store *fakeStore) *Controller {
	t.Helper()

	ctrl, err := Open(context.Background(), store, zap.NewNop(), "doc-42", "")
	require.NoError(t, err)
	ctrl.Debounce = testDebounce
	t.Cleanup(ctrl.Close)

	return ctrl
}

func waitForStatus(t *testing.T, ctrl *Controller, want SaveStatus) {
	t.Helper()

	require.Eventually(t, func() bool {
		return ctrl.Status() == want
	}, time.Second, time.Millisecond, "status never became %s", want)
}

func TestOpenLoadsExistingDocument(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	assert.Equal(t, "doc-42", ctrl.ID())
	assert.Equal(t, "My CV", ctrl.Title())
	assert.False(t, ctrl.Created())
	assert.Equal(t, StatusSaved, ctrl.Status())
}

func TestOpenCreatesDocumentForSentinelID(t *testing.T) {
	store := newFakeStore()

	ctrl, err := Open(context.Background(), store, zap.NewNop(), cvflow.NewCVID, "")
	require.NoError(t, err)
	defer ctrl.Close()

	assert.True(t, ctrl.Created())
	assert.Equal(t, "doc-42", ctrl.ID())
}

func TestOpenReturnsLoadError(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("backend down")

	_, err := Open(context.Background(), store, zap.NewNop(), "doc-42", "")
	require.Error(t, err)
}

func TestOpenReturnsCreateError(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("backend down")

	_, err := Open(context.Background(), store, zap.NewNop(), cvflow.NewCVID, "")
	require.Error(t, err)
}

func TestDebounceCoalescesBurstIntoOneAutosave(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "a"})
	ctrl.SetContent(cvflow.Content{"summary": "ab"})
	ctrl.SetContent(cvflow.Content{"summary": "abc"})

	waitForStatus(t, ctrl, StatusSaved)

	calls := store.autosaveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "doc-42", calls[0].id)
	assert.Equal(t, "abc", calls[0].content.Summary())
}

func TestEachEditRestartsTheDebounceWindow(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	// Keep editing at intervals shorter than the debounce; nothing may be
	// written until the burst stops.
	for i := 0; i < 4; i++ {
		ctrl.SetContent(cvflow.Content{"summary": "draft"})
		time.Sleep(testDebounce / 2)
	}

	require.Empty(t, store.autosaveCalls())

	waitForStatus(t, ctrl, StatusSaved)
	assert.Len(t, store.autosaveCalls(), 1)
}

func TestCloseCancelsPendingAutosave(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "never persisted"})
	ctrl.Close()

	time.Sleep(3 * testDebounce)

	assert.Empty(t, store.autosaveCalls())
}

func TestManualSaveCancelsTimerAndIssuesOneRequest(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "manual"})
	require.NoError(t, ctrl.Save(context.Background()))

	assert.Equal(t, StatusSaved, ctrl.Status())

	// Even after the window in which the timer would have fired, there is
	// still only the manual request.
	time.Sleep(3 * testDebounce)
	assert.Len(t, store.autosaveCalls(), 1)
}

func TestManualSaveWithoutPendingEditIsANoop(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	require.NoError(t, ctrl.Save(context.Background()))
	assert.Empty(t, store.autosaveCalls())
}

func TestStatusRoundTripForSingleEdit(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	var mu sync.Mutex
	var transitions []SaveStatus
	ctrl.OnStatusChange = func(status SaveStatus) {
		mu.Lock()
		transitions = append(transitions, status)
		mu.Unlock()
	}

	ctrl.SetContent(cvflow.Content{"summary": "one edit"})
	waitForStatus(t, ctrl, StatusSaved)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []SaveStatus{StatusUnsaved, StatusSaving, StatusSaved}, transitions)
}

func TestAutosaveFailureRevertsToUnsavedWithoutRetry(t *testing.T) {
	store := newFakeStore()
	store.autosaveErr = errors.New("store unavailable")
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "doomed"})
	require.Eventually(t, func() bool {
		return store.attempts() == 1
	}, time.Second, time.Millisecond)
	waitForStatus(t, ctrl, StatusUnsaved)

	// No automatic retry without a new edit or manual save.
	time.Sleep(3 * testDebounce)
	assert.Equal(t, StatusUnsaved, ctrl.Status())
	assert.Equal(t, 1, store.attempts())

	// A manual save retries naturally.
	store.mu.Lock()
	store.autosaveErr = nil
	store.mu.Unlock()
	require.NoError(t, ctrl.Save(context.Background()))
	assert.Len(t, store.autosaveCalls(), 1)
}

func TestEditDuringInFlightSaveIsNotLost(t *testing.T) {
	store := newFakeStore()
	gate := make(chan struct{})
	store.autosaveGate = gate
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "first"})
	waitForStatus(t, ctrl, StatusSaving)

	// A new edit while the first persist hangs in flight.
	ctrl.SetContent(cvflow.Content{"summary": "second"})
	assert.Equal(t, StatusUnsaved, ctrl.Status())

	close(gate)
	store.mu.Lock()
	store.autosaveGate = nil
	store.mu.Unlock()

	waitForStatus(t, ctrl, StatusSaved)

	calls := store.autosaveCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].content.Summary())
	assert.Equal(t, "second", calls[1].content.Summary())
}

func TestTitleCommitGuard(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)
	ctx := context.Background()

	committed, err := ctrl.CommitTitle(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, committed)

	committed, err = ctrl.CommitTitle(ctx, " My CV ")
	require.NoError(t, err)
	assert.False(t, committed, "unchanged after trim must not commit")

	assert.Empty(t, store.updateCalls())
	assert.Equal(t, "My CV", ctrl.Title())

	committed, err = ctrl.CommitTitle(ctx, "Senior Gopher CV ")
	require.NoError(t, err)
	assert.True(t, committed)

	calls := store.updateCalls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].update.Title)
	assert.Equal(t, "Senior Gopher CV", *calls[0].update.Title)
	assert.Equal(t, "Senior Gopher CV", ctrl.Title())
	assert.Equal(t, StatusSaved, ctrl.Status())
}

func TestTitleCommitFailureRevertsStatus(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("store unavailable")
	ctrl := openTestController(t, store)

	_, err := ctrl.CommitTitle(context.Background(), "Another title")
	require.Error(t, err)
	assert.Equal(t, StatusUnsaved, ctrl.Status())
	assert.Equal(t, "My CV", ctrl.Title())
}

func TestTitleCommitKeepsPendingContentUnsaved(t *testing.T) {
	store := newFakeStore()
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "pending"})
	_, err := ctrl.CommitTitle(context.Background(), "Renamed")
	require.NoError(t, err)

	// The content edit is still awaiting its debounce; the successful
	// title persist must not claim the document is fully saved.
	status := ctrl.Status()
	assert.Contains(t, []SaveStatus{StatusUnsaved, StatusSaving, StatusSaved}, status)

	waitForStatus(t, ctrl, StatusSaved)
	require.Len(t, store.autosaveCalls(), 1)
}

func TestContentEditPendingBehindTitleCommitIsAutosaved(t *testing.T) {
	store := newFakeStore()
	gate := make(chan struct{})
	store.updateGate = gate
	ctrl := openTestController(t, store)
	ctx := context.Background()

	ctrl.SetContent(cvflow.Content{"summary": "pending behind rename"})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.CommitTitle(ctx, "Renamed")
		done <- err
	}()
	waitForStatus(t, ctrl, StatusSaving)

	// Let the debounce timer fire while the title persist hangs in flight.
	time.Sleep(3 * testDebounce)

	close(gate)
	store.mu.Lock()
	store.updateGate = nil
	store.mu.Unlock()

	require.NoError(t, <-done)
	waitForStatus(t, ctrl, StatusSaved)

	calls := store.autosaveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pending behind rename", calls[0].content.Summary())
}

func TestFailedTitleCommitDoesNotStrandPendingContent(t *testing.T) {
	store := newFakeStore()
	gate := make(chan struct{})
	store.updateGate = gate
	store.updateErr = errors.New("store unavailable")
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "still needs saving"})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.CommitTitle(context.Background(), "Renamed")
		done <- err
	}()
	waitForStatus(t, ctrl, StatusSaving)
	time.Sleep(3 * testDebounce)

	close(gate)
	store.mu.Lock()
	store.updateGate = nil
	store.mu.Unlock()

	require.Error(t, <-done)
	assert.Equal(t, "My CV", ctrl.Title())

	// The content edit keeps its own autosave cycle.
	waitForStatus(t, ctrl, StatusSaved)
	calls := store.autosaveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "still needs saving", calls[0].content.Summary())
}

func TestDownloadFailureDoesNotTouchStatus(t *testing.T) {
	store := newFakeStore()
	store.downloadErr = errors.New("renderer down")
	ctrl := openTestController(t, store)

	ctrl.SetContent(cvflow.Content{"summary": "dirty"})

	_, err := ctrl.Download(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusUnsaved, ctrl.Status())
}

func TestCreateThenEditEndToEnd(t *testing.T) {
	store := newFakeStore()

	ctrl, err := Open(context.Background(), store, zap.NewNop(), cvflow.NewCVID, "")
	require.NoError(t, err)
	ctrl.Debounce = testDebounce
	defer ctrl.Close()

	require.Equal(t, "doc-42", ctrl.ID())

	ctrl.SetContent(cvflow.Content{"summary": "typed into the editor"})
	assert.Equal(t, StatusUnsaved, ctrl.Status())

	waitForStatus(t, ctrl, StatusSaved)

	calls := store.autosaveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "doc-42", calls[0].id)
	assert.Equal(t, "typed into the editor", calls[0].content.Summary())
}
