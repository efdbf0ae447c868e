package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

// ClassSnapshot is a point-in-time copy of the class store.
type ClassSnapshot struct {
	Classes []dto.Class
	Current *dto.Class
	FocusID dto.ID
	Status  Status
	Err     error
}

// ClassStore holds the teacher's classes plus one focused class whose roster
// is kept current.
type ClassStore struct {
	gateway   ClassGateway
	tokens    TokenSource
	validator Validator
	logger    zerolog.Logger

	mu          sync.RWMutex
	epoch       uint64
	classes     []dto.Class
	current     *dto.Class
	focusID     dto.ID
	focusCancel context.CancelFunc
	status      Status
	err         error
}

// Class store actions.
type (
	classesLoaded struct{ classes []dto.Class }
	classLoaded   struct{ class dto.Class }
	classAdded    struct{ class dto.Class }
	classRemoved  struct{ id dto.ID }
	rosterReduced struct{ classID, studentID dto.ID }
)

// NewClassStore builds an empty class store.
func NewClassStore(gw ClassGateway, tokens TokenSource, validator Validator, logger zerolog.Logger) *ClassStore {
	return &ClassStore{
		gateway:   gw,
		tokens:    tokens,
		validator: validator,
		logger:    logger.With().Str("component", "class_store").Logger(),
		classes:   []dto.Class{},
		status:    StatusIdle,
	}
}

// Snapshot returns a deep copy of the store state.
func (s *ClassStore) Snapshot() ClassSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := ClassSnapshot{
		Classes: cloneClasses(s.classes),
		FocusID: s.focusID,
		Status:  s.status,
		Err:     s.err,
	}
	if s.current != nil {
		current := s.current.Clone()
		snap.Current = &current
	}
	return snap
}

// Lookup returns the cached class, preferring the focused copy.
func (s *ClassStore) Lookup(id dto.ID) (dto.Class, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current != nil && s.current.ID == id {
		return s.current.Clone(), true
	}
	for _, c := range s.classes {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return dto.Class{}, false
}

// Fetch replaces the collection with the server list.
func (s *ClassStore) Fetch(ctx context.Context) ([]dto.Class, error) {
	token, err := requireToken(s.tokens, "classes.list")
	if err != nil {
		return nil, err
	}

	epoch := s.begin()
	classes, err := s.gateway.ListClasses(ctx, token)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return nil, err
	}
	if !s.dispatch(epoch, classesLoaded{classes: classes}) {
		return nil, ErrStale
	}

	s.logger.Debug().Int("count", len(classes)).Msg("classes fetched")
	return cloneClasses(classes), nil
}

// Get loads one class. The matching list entry is refreshed, and so is the
// current slot when it is focused on id at response time. With nothing
// focused, Get focuses id.
func (s *ClassStore) Get(ctx context.Context, id dto.ID) (dto.Class, error) {
	id, err := requireID(id)
	if err != nil {
		return dto.Class{}, err
	}
	token, err := requireToken(s.tokens, "classes.get")
	if err != nil {
		return dto.Class{}, err
	}

	s.claimFocus(id)
	epoch := s.begin()
	class, err := s.gateway.GetClass(ctx, token, id)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Class{}, err
	}
	if class.ID == "" {
		class.ID = id
	}
	if !s.dispatch(epoch, classLoaded{class: class}) {
		return dto.Class{}, ErrStale
	}
	return class.Clone(), nil
}

// Open focuses the class view on id and loads it. The returned view's
// context is cancelled when focus moves elsewhere or the view is closed, so
// requests made on its behalf stop when the user navigates away.
func (s *ClassStore) Open(ctx context.Context, id dto.ID) (*View, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}

	viewCtx, cancel := context.WithCancel(ctx)
	view := &View{id: id, ctx: viewCtx, cancel: cancel, store: s}

	s.mu.Lock()
	if s.focusCancel != nil {
		s.focusCancel()
	}
	if s.focusID != id {
		s.current = nil
	}
	s.focusID = id
	s.focusCancel = cancel
	s.mu.Unlock()

	if _, err := s.Get(viewCtx, id); err != nil {
		return view, err
	}
	return view, nil
}

// Close drops the focused class and cancels its view.
func (s *ClassStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropFocusLocked()
}

// Create validates req and appends the created class.
func (s *ClassStore) Create(ctx context.Context, req dto.ClassRequest) (dto.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.Class{}, err
	}
	token, err := requireToken(s.tokens, "classes.create")
	if err != nil {
		return dto.Class{}, err
	}

	epoch := s.begin()
	class, err := s.gateway.CreateClass(ctx, token, req)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Class{}, err
	}
	if !s.dispatch(epoch, classAdded{class: class}) {
		return dto.Class{}, ErrStale
	}

	s.logger.Info().Str("class_id", class.ID.String()).Msg("class created")
	return class.Clone(), nil
}

// Update validates req and replaces the class in the list and, when focused,
// the current slot.
func (s *ClassStore) Update(ctx context.Context, id dto.ID, req dto.ClassRequest) (dto.Class, error) {
	id, err := requireID(id)
	if err != nil {
		return dto.Class{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.Class{}, err
	}
	token, err := requireToken(s.tokens, "classes.update")
	if err != nil {
		return dto.Class{}, err
	}

	epoch := s.begin()
	class, err := s.gateway.UpdateClass(ctx, token, id, req)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Class{}, err
	}
	if class.ID == "" {
		class.ID = id
	}
	if !s.dispatch(epoch, classLoaded{class: class}) {
		return dto.Class{}, ErrStale
	}
	return class.Clone(), nil
}

// Delete removes a class, clearing the current slot if it was selected.
func (s *ClassStore) Delete(ctx context.Context, id dto.ID) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	token, err := requireToken(s.tokens, "classes.delete")
	if err != nil {
		return err
	}

	epoch := s.begin()
	if err := s.gateway.DeleteClass(ctx, token, id); err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return err
	}
	if !s.dispatch(epoch, classRemoved{id: id}) {
		return ErrStale
	}

	s.logger.Info().Str("class_id", id.String()).Msg("class deleted")
	return nil
}

// Enroll submits a batch of student ids. On success the embedded class from
// the response is applied, or the class is fetched again when the response
// carries none, and the class list is refreshed so list counts stay in step.
// Once the API has accepted the batch Enroll succeeds: a failed class fetch
// falls back to the cached class plus the submitted ids, and a failed list
// refresh is recorded on the store.
func (s *ClassStore) Enroll(ctx context.Context, classID dto.ID, studentIDs []dto.ID) (dto.Class, error) {
	classID, err := requireID(classID)
	if err != nil {
		return dto.Class{}, err
	}
	token, err := requireToken(s.tokens, "classes.enroll")
	if err != nil {
		return dto.Class{}, err
	}

	epoch := s.begin()
	updated, err := s.gateway.AddStudentsToClass(ctx, token, classID, studentIDs)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Class{}, err
	}

	if updated != nil && updated.ID == "" {
		updated.ID = classID
	}

	var class dto.Class
	if updated != nil && updated.ID == classID {
		class = updated.Clone()
		if !s.dispatch(epoch, classLoaded{class: class}) {
			return dto.Class{}, ErrStale
		}
	} else {
		class, err = s.Get(ctx, classID)
		if err != nil {
			s.logger.Warn().Err(err).Str("class_id", classID.String()).Msg("class refresh after enrollment failed, applying the batch locally")
			known, _ := s.Lookup(classID)
			known.ID = classID
			class = known.WithStudents(studentIDs...)
			if !s.dispatch(epoch, classLoaded{class: class}) {
				return dto.Class{}, ErrStale
			}
		}
	}

	if _, err := s.Fetch(ctx); err != nil {
		s.logger.Warn().Err(err).Str("class_id", classID.String()).Msg("class list refresh after enrollment failed")
	}

	s.logger.Info().
		Str("class_id", classID.String()).
		Int("submitted", len(studentIDs)).
		Int("student_count", class.StudentCount()).
		Msg("students enrolled")
	return class, nil
}

// RemoveStudent removes one enrollment and filters the roster of both the
// current slot and the list entry.
func (s *ClassStore) RemoveStudent(ctx context.Context, classID, studentID dto.ID) error {
	classID, err := requireID(classID)
	if err != nil {
		return err
	}
	studentID, err = requireID(studentID)
	if err != nil {
		return err
	}
	token, err := requireToken(s.tokens, "classes.unenroll")
	if err != nil {
		return err
	}

	epoch := s.begin()
	if err := s.gateway.RemoveStudentFromClass(ctx, token, classID, studentID); err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return err
	}
	if !s.dispatch(epoch, rosterReduced{classID: classID, studentID: studentID}) {
		return ErrStale
	}

	s.logger.Info().Str("class_id", classID.String()).Str("student_id", studentID.String()).Msg("student removed from class")
	return nil
}

// Roster lists the enrolled students of a class without touching the store.
func (s *ClassStore) Roster(ctx context.Context, classID dto.ID) ([]dto.EnrolledStudent, error) {
	classID, err := requireID(classID)
	if err != nil {
		return nil, err
	}
	token, err := requireToken(s.tokens, "classes.roster")
	if err != nil {
		return nil, err
	}
	return s.gateway.ListClassStudents(ctx, token, classID)
}

// Recent returns up to n classes, newest first.
func (s *ClassStore) Recent(n int) []dto.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.RecentClasses(s.classes, n)
}

// Search returns the classes whose name, subject or description contains query.
func (s *ClassStore) Search(query string) []dto.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.Class, 0, len(s.classes))
	for _, c := range s.classes {
		if c.Matches(query) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Reset returns the store to its initial state, cancels any open view and
// discards in-flight responses.
func (s *ClassStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.dropFocusLocked()
	s.classes = []dto.Class{}
	s.status = StatusIdle
	s.err = nil
}

func (s *ClassStore) claimFocus(id dto.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focusID == "" {
		s.focusID = id
	}
}

func (s *ClassStore) dropFocusLocked() {
	if s.focusCancel != nil {
		s.focusCancel()
		s.focusCancel = nil
	}
	s.focusID = ""
	s.current = nil
}

func (s *ClassStore) begin() uint64 {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	s.dispatch(epoch, requestStarted{})
	return epoch
}

// dispatch applies an action if no reset happened since epoch was taken.
func (s *ClassStore) dispatch(epoch uint64, action interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug().Msg("discarding response for a reset store")
		return false
	}

	switch a := action.(type) {
	case requestStarted:
		s.status = StatusLoading
		s.err = nil
		return true
	case requestFailed:
		s.status = StatusFailed
		s.err = a.err
		return true
	case classesLoaded:
		s.classes = cloneClasses(a.classes)
	case classLoaded:
		for i := range s.classes {
			if s.classes[i].ID == a.class.ID {
				s.classes[i] = s.classes[i].Merge(a.class)
			}
		}
		if s.focusID == a.class.ID {
			current := a.class.Clone()
			s.current = &current
		}
	case classAdded:
		s.classes = append(s.classes, a.class.Clone())
	case classRemoved:
		kept := s.classes[:0:0]
		for _, c := range s.classes {
			if c.ID != a.id {
				kept = append(kept, c)
			}
		}
		s.classes = kept
		if s.focusID == a.id {
			s.dropFocusLocked()
		}
	case rosterReduced:
		if s.current != nil && s.current.ID == a.classID {
			current := s.current.WithoutStudent(a.studentID)
			s.current = &current
		}
		for i := range s.classes {
			if s.classes[i].ID == a.classID {
				s.classes[i] = s.classes[i].WithoutStudent(a.studentID)
			}
		}
	default:
		return false
	}

	s.status = StatusSucceeded
	s.err = nil
	return true
}

// View is a handle on the focused class.
type View struct {
	id     dto.ID
	ctx    context.Context
	cancel context.CancelFunc
	store  *ClassStore
}

// ID returns the class the view is focused on.
func (v *View) ID() dto.ID {
	return v.id
}

// Context is cancelled when the view loses focus.
func (v *View) Context() context.Context {
	return v.ctx
}

// Active reports whether the view still holds focus.
func (v *View) Active() bool {
	return v.ctx.Err() == nil
}

// Class returns the focused class while the view is active.
func (v *View) Class() (dto.Class, bool) {
	if !v.Active() {
		return dto.Class{}, false
	}
	snap := v.store.Snapshot()
	if snap.Current == nil || snap.Current.ID != v.id {
		return dto.Class{}, false
	}
	return *snap.Current, true
}

// Refresh reloads the focused class using the view's context.
func (v *View) Refresh() (dto.Class, error) {
	if err := v.ctx.Err(); err != nil {
		return dto.Class{}, err
	}
	return v.store.Get(v.ctx, v.id)
}

// Close releases focus if the view still holds it.
func (v *View) Close() {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if v.ctx.Err() == nil && v.store.focusID == v.id {
		v.store.dropFocusLocked()
	}
	v.cancel()
}
