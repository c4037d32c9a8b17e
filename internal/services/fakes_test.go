package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"calport/internal/domain"
)

// In-memory fakes shared by the service tests in this package.

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	events        map[string]*domain.Event
	configs       map[string]*domain.RecurrenceConfig // keyed by config ID
	interactions  []*domain.EventInteraction          // rows created through CreateWithSeries
	affectedUsers []string                            // returned by DeleteWithInstances
	createErr     error
	deleteErr     error

	lastCancelledBy *string
	lastMessage     string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:  make(map[string]*domain.Event),
		configs: make(map[string]*domain.RecurrenceConfig),
	}
}

func (f *fakeEventRepo) add(events ...*domain.Event) {
	for _, e := range events {
		f.events[e.ID] = e
	}
}

func (f *fakeEventRepo) CreateWithSeries(ctx context.Context, base *domain.Event, config *domain.RecurrenceConfig, instances []*domain.Event, interactions []*domain.EventInteraction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events[base.ID] = base
	if config != nil {
		f.configs[config.ID] = config
		// Mirror the repository's COALESCE join: base events surface the
		// config id as their series id.
		id := config.ID
		base.SeriesID = &id
	}
	for _, inst := range instances {
		f.events[inst.ID] = inst
	}
	f.interactions = append(f.interactions, interactions...)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListRefsByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByIDsFiltered(ctx context.Context, ids []string, filter domain.EventFilter) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		e, ok := f.events[id]
		if !ok {
			continue
		}
		if e.StartTime.Before(filter.From) || e.StartTime.After(filter.To) {
			continue
		}
		if filter.Search != "" && !containsFold(e.Name, filter.Search) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeEventRepo) ListInstanceIDsBySeries(ctx context.Context, seriesID string) ([]string, error) {
	var out []string
	for _, e := range f.events {
		if e.Kind == domain.EventKindRecurringInstance && e.SeriesID != nil && *e.SeriesID == seriesID {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeEventRepo) ListOwnedIDs(ctx context.Context, ownerID string) ([]string, error) {
	var out []string
	for _, e := range f.events {
		if e.OwnerID == ownerID {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeEventRepo) ListIDsByCalendarIDs(ctx context.Context, calendarIDs []string) ([]string, error) {
	set := make(map[string]bool, len(calendarIDs))
	for _, id := range calendarIDs {
		set[id] = true
	}
	var out []string
	for _, e := range f.events {
		if e.CalendarID != nil && set[*e.CalendarID] {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeEventRepo) DeleteWithInstances(ctx context.Context, eventID string, seriesID *string, cancelledBy *string, message string) (*domain.SeriesDeletion, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.lastCancelledBy = cancelledBy
	f.lastMessage = message
	deleted := 0
	for id, e := range f.events {
		if id == eventID || (seriesID != nil && e.SeriesID != nil && *e.SeriesID == *seriesID && e.Kind == domain.EventKindRecurringInstance) {
			delete(f.events, id)
			deleted++
		}
	}
	if deleted == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.SeriesDeletion{Deleted: deleted, AffectedUserIDs: f.affectedUsers}, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// fakeConfigRepo is an in-memory RecurrenceConfigRepository for tests.
type fakeConfigRepo struct {
	configs map[string]*domain.RecurrenceConfig // keyed by config ID
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[string]*domain.RecurrenceConfig)}
}

func (f *fakeConfigRepo) add(c *domain.RecurrenceConfig) {
	f.configs[c.ID] = c
}

func (f *fakeConfigRepo) GetByID(ctx context.Context, id string) (*domain.RecurrenceConfig, error) {
	if c, ok := f.configs[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConfigRepo) GetByEventID(ctx context.Context, eventID string) (*domain.RecurrenceConfig, error) {
	for _, c := range f.configs {
		if c.EventID == eventID {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConfigRepo) UpdateSchedule(ctx context.Context, id string, schedule domain.Schedule, endDate *time.Time) (*domain.RecurrenceConfig, error) {
	c, ok := f.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Schedule = schedule
	c.EndDate = endDate
	c.UpdatedAt = time.Now()
	return c, nil
}

// fakeInteractionRepo is an in-memory EventInteractionRepository for tests.
type fakeInteractionRepo struct {
	rows      []*domain.EventInteraction
	createErr error
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{}
}

func (f *fakeInteractionRepo) add(rows ...*domain.EventInteraction) {
	f.rows = append(f.rows, rows...)
}

func (f *fakeInteractionRepo) CreateBatch(ctx context.Context, interactions []*domain.EventInteraction) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, in := range interactions {
		for _, existing := range f.rows {
			if existing.EventID == in.EventID && existing.UserID == in.UserID && existing.Type == in.Type {
				return domain.ErrConflict
			}
		}
	}
	f.rows = append(f.rows, interactions...)
	return nil
}

func (f *fakeInteractionRepo) GetByID(ctx context.Context, id string) (*domain.EventInteraction, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInteractionRepo) GetByEventUserType(ctx context.Context, eventID, userID string, typ domain.InteractionType) (*domain.EventInteraction, error) {
	for _, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID && r.Type == typ {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInteractionRepo) UpdateStatus(ctx context.Context, id string, status domain.InteractionStatus) (*domain.EventInteraction, error) {
	for _, r := range f.rows {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = time.Now()
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInteractionRepo) RejectWithInstances(ctx context.Context, id, userID string, instanceIDs []string) (*domain.EventInteraction, error) {
	target, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target.Status = domain.StatusRejected
	instanceSet := make(map[string]bool, len(instanceIDs))
	for _, iid := range instanceIDs {
		instanceSet[iid] = true
	}
	for _, r := range f.rows {
		if instanceSet[r.EventID] && r.UserID == userID && r.Type == domain.InteractionInvited && r.Status == domain.StatusPending {
			r.Status = domain.StatusRejected
		}
	}
	return target, nil
}

func (f *fakeInteractionRepo) Delete(ctx context.Context, eventID, userID string, typ domain.InteractionType) error {
	for i, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID && r.Type == typ {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeInteractionRepo) ListEventIDsByUserAndType(ctx context.Context, userID string, typ domain.InteractionType) ([]string, error) {
	var out []string
	for _, r := range f.rows {
		if r.UserID == userID && r.Type == typ {
			out = append(out, r.EventID)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) ListStatusByUserAndEventIDs(ctx context.Context, userID string, eventIDs []string, typ domain.InteractionType) (map[string]domain.InteractionStatus, error) {
	set := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		set[id] = true
	}
	out := make(map[string]domain.InteractionStatus)
	for _, r := range f.rows {
		if set[r.EventID] && r.UserID == userID && r.Type == typ {
			out[r.EventID] = r.Status
		}
	}
	return out, nil
}

// fakeCalendarRepo is an in-memory CalendarMembershipRepository for tests.
type fakeCalendarRepo struct {
	adminCalendars map[string][]string // userID -> calendar IDs
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{adminCalendars: make(map[string][]string)}
}

func (f *fakeCalendarRepo) ListAdminCalendarIDs(ctx context.Context, userID string) ([]string, error) {
	return f.adminCalendars[userID], nil
}

// fakeBlockRepo is an in-memory UserBlockRepository for tests. Pairs are
// stored undirected.
type fakeBlockRepo struct {
	pairs [][2]string
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{}
}

func (f *fakeBlockRepo) block(a, b string) {
	f.pairs = append(f.pairs, [2]string{a, b})
}

func (f *fakeBlockRepo) IsBlocked(ctx context.Context, userID, otherID string) (bool, error) {
	for _, p := range f.pairs {
		if (p[0] == userID && p[1] == otherID) || (p[0] == otherID && p[1] == userID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlockRepo) ListBlockedAmong(ctx context.Context, userID string, otherIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, other := range otherIDs {
		blocked, _ := f.IsBlocked(ctx, userID, other)
		if blocked {
			out[other] = struct{}{}
		}
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) addUser(id, displayName string) {
	f.users[id] = &domain.User{ID: id, DisplayName: displayName, Email: id + "@example.com"}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) ListDisplayNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u.DisplayName
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListEmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u.Email
		}
	}
	return out, nil
}

// fakeCancellationRepo is an in-memory EventCancellationRepository for tests.
type fakeCancellationRepo struct {
	byUser map[string][]*domain.EventCancellation
}

func newFakeCancellationRepo() *fakeCancellationRepo {
	return &fakeCancellationRepo{byUser: make(map[string][]*domain.EventCancellation)}
}

func (f *fakeCancellationRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.EventCancellation, error) {
	return f.byUser[userID], nil
}

// fakeEmailService records cancellation notices instead of sending them.
type fakeEmailService struct {
	sent    []*domain.CancellationNoticeData
	sendErr error
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{}
}

func (f *fakeEmailService) SendCancellationNotice(ctx context.Context, data *domain.CancellationNoticeData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}
