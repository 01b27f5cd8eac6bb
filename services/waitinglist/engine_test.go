package waitinglist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	waitinglistRepo "barberly/database/repository/waitinglist"
	"barberly/models"
	"barberly/services/booking"

	"go.uber.org/zap"
)

type memWaitingListRepo struct {
	mu      sync.Mutex
	entries map[string]*models.WaitingListEntry
}

func newMemWaitingListRepo() *memWaitingListRepo {
	return &memWaitingListRepo{entries: make(map[string]*models.WaitingListEntry)}
}

func (m *memWaitingListRepo) Insert(ctx context.Context, entry *models.WaitingListEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.ID] = &cp
	return nil
}

func (m *memWaitingListRepo) FindByID(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, waitinglistRepo.ErrNotFound
}

func (m *memWaitingListRepo) FindByToken(ctx context.Context, token string) (*models.WaitingListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Token == token && token != "" {
			cp := *e
			return &cp, nil
		}
	}
	return nil, waitinglistRepo.ErrNotFound
}

func (m *memWaitingListRepo) CountActiveBefore(ctx context.Context, tenantID, barberID string, createdBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.Status != models.WaitingListActive {
			continue
		}
		if barberID != "" && e.BarberID != barberID {
			continue
		}
		if e.CreatedAt.Before(createdBefore) {
			n++
		}
	}
	return n, nil
}

func (m *memWaitingListRepo) FindBestMatch(ctx context.Context, q waitinglistRepo.MatchQuery) (*models.WaitingListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []*models.WaitingListEntry
	for _, e := range m.entries {
		if e.TenantID != q.TenantID || e.ServiceID != q.ServiceID || e.Status != models.WaitingListActive {
			continue
		}
		if e.BarberID != "" && e.BarberID != q.BarberID {
			continue
		}
		if e.PreferredDate < q.DateFrom || e.PreferredDate > q.DateTo {
			continue
		}
		if e.PreferredTimeFrom > q.Time || e.PreferredTimeTo < q.Time {
			continue
		}
		if len(e.PreferredWeekdays) > 0 {
			ok := false
			for _, d := range e.PreferredWeekdays {
				if d == q.Weekday {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, waitinglistRepo.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memWaitingListRepo) MarkNotified(ctx context.Context, id, token string, expiresAt time.Time, offeredBarberID, offeredDate, offeredTime string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.Status != models.WaitingListActive {
		return false, nil
	}
	e.Status = models.WaitingListNotified
	e.Token = token
	e.TokenExpiresAt = expiresAt
	e.OfferedBarberID = offeredBarberID
	e.OfferedDate = offeredDate
	e.OfferedTime = offeredTime
	e.NotifiedAt = time.Now()
	return true, nil
}

func (m *memWaitingListRepo) UpdateStatus(ctx context.Context, id string, from, to models.WaitingListStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (m *memWaitingListRepo) ExpireNotifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.Status == models.WaitingListNotified && e.TokenExpiresAt.Before(cutoff) {
			e.Status = models.WaitingListExpired
			n++
		}
	}
	return n, nil
}

func (m *memWaitingListRepo) EnsureIndexes() error { return nil }

func (m *memWaitingListRepo) status(id string) models.WaitingListStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id].Status
}

type fakeBookingEngine struct {
	mu       sync.Mutex
	booked   map[string]bool // "tenant|barber|date|time"
	requests []booking.CreateRequest
	err      error
}

func newFakeBookingEngine() *fakeBookingEngine {
	return &fakeBookingEngine{booked: make(map[string]bool)}
}

func (f *fakeBookingEngine) CreateReservation(ctx context.Context, req booking.CreateRequest) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	key := req.TenantID + "|" + req.BarberID + "|" + req.Date + "|" + req.StartTime
	if f.booked[key] {
		return nil, booking.NewSlotConflictError(req.BarberID, req.Date, req.StartTime)
	}
	f.booked[key] = true
	return &models.Reservation{
		ID:        "res-" + key,
		TenantID:  req.TenantID,
		BarberID:  req.BarberID,
		ServiceID: req.ServiceID,
		Client:    req.Client,
		Date:      req.Date,
		StartTime: req.StartTime,
		Status:    models.ReservationReserved,
	}, nil
}

func (f *fakeBookingEngine) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBookingEngine) CompleteReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return nil, errors.New("not implemented")
}

type notifierSpy struct {
	mu      sync.Mutex
	entries []*models.WaitingListEntry
	urls    []string
}

func (n *notifierSpy) NotifyWaitingListOffer(ctx context.Context, entry *models.WaitingListEntry, confirmURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
	n.urls = append(n.urls, confirmURL)
}

func (n *notifierSpy) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(repo waitinglistRepo.Repository, bk booking.Engine, notifier Notifier) *Engine {
	return &Engine{
		Repo:          repo,
		Booking:       bk,
		Logger:        zap.NewNop(),
		WindowDays:    7,
		PublicBaseURL: "https://book.example.com",
		Notifier:      notifier,
		Now:           func() time.Time { return fixedNow },
	}
}

func joinRequest() JoinRequest {
	return JoinRequest{
		TenantID:          "t1",
		BarberID:          "b1",
		ServiceID:         "s1",
		Client:            models.ClientInfo{Name: "Ada", Email: "ada@example.com"},
		PreferredDate:     "2025-05-02",
		PreferredTimeFrom: "09:00",
		PreferredTimeTo:   "17:00",
	}
}

func TestEngine_JoinAssignsFIFOPosition(t *testing.T) {
	repo := newMemWaitingListRepo()
	e := newTestEngine(repo, newFakeBookingEngine(), nil)

	tick := fixedNow
	e.Now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	_, pos1, err := e.Join(context.Background(), joinRequest())
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	_, pos2, err := e.Join(context.Background(), joinRequest())
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if pos1 != 1 || pos2 != 2 {
		t.Fatalf("positions = %d, %d, want 1, 2", pos1, pos2)
	}

	// A different barber queue counts independently.
	req := joinRequest()
	req.BarberID = "b2"
	_, pos3, err := e.Join(context.Background(), req)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if pos3 != 1 {
		t.Fatalf("position for other barber = %d, want 1", pos3)
	}
}

func TestEngine_JoinValidation(t *testing.T) {
	e := newTestEngine(newMemWaitingListRepo(), newFakeBookingEngine(), nil)

	cases := []struct {
		name   string
		mutate func(*JoinRequest)
	}{
		{"missing tenant", func(r *JoinRequest) { r.TenantID = "" }},
		{"missing client email", func(r *JoinRequest) { r.Client.Email = "" }},
		{"bad date", func(r *JoinRequest) { r.PreferredDate = "02-05-2025" }},
		{"bad time", func(r *JoinRequest) { r.PreferredTimeFrom = "9am" }},
		{"inverted window", func(r *JoinRequest) { r.PreferredTimeFrom = "18:00"; r.PreferredTimeTo = "09:00" }},
		{"bad weekday", func(r *JoinRequest) { r.PreferredWeekdays = []string{"Monday"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := joinRequest()
			tc.mutate(&req)
			if _, _, err := e.Join(context.Background(), req); booking.ErrorCode(err) != booking.CodeValidation {
				t.Errorf("Join() error = %v, want validation error", err)
			}
		})
	}
}

func TestEngine_OnSlotFreedPromotesOldestMatch(t *testing.T) {
	repo := newMemWaitingListRepo()
	notifier := &notifierSpy{}
	e := newTestEngine(repo, newFakeBookingEngine(), notifier)

	tick := fixedNow
	e.Now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	first, _, _ := e.Join(context.Background(), joinRequest())
	second, _, _ := e.Join(context.Background(), joinRequest())

	if err := e.OnSlotFreed(context.Background(), "t1", "b1", "s1", "2025-05-02", "10:00"); err != nil {
		t.Fatalf("OnSlotFreed() error = %v", err)
	}

	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
	if repo.status(first.ID) != models.WaitingListNotified {
		t.Errorf("first entry status = %s, want notified", repo.status(first.ID))
	}
	if repo.status(second.ID) != models.WaitingListActive {
		t.Errorf("second entry status = %s, want active", repo.status(second.ID))
	}

	got, _ := repo.FindByID(context.Background(), first.ID)
	if got.Token == "" || got.OfferedDate != "2025-05-02" || got.OfferedTime != "10:00" || got.OfferedBarberID != "b1" {
		t.Errorf("promoted entry = %+v, want token and offered slot set", got)
	}
	wantURL := "https://book.example.com/api/waiting-list/convert/" + got.Token
	if notifier.urls[0] != wantURL {
		t.Errorf("confirm URL = %q, want %q", notifier.urls[0], wantURL)
	}
}

func TestEngine_OnSlotFreedSkipsNonMatching(t *testing.T) {
	repo := newMemWaitingListRepo()
	notifier := &notifierSpy{}
	e := newTestEngine(repo, newFakeBookingEngine(), notifier)

	outsideWindow := joinRequest()
	outsideWindow.PreferredDate = "2025-06-15"
	e.Join(context.Background(), outsideWindow)

	wrongTime := joinRequest()
	wrongTime.PreferredTimeFrom = "14:00"
	wrongTime.PreferredTimeTo = "16:00"
	e.Join(context.Background(), wrongTime)

	wrongWeekday := joinRequest()
	wrongWeekday.PreferredWeekdays = []string{"Mon"} // 2025-05-02 is a Friday
	e.Join(context.Background(), wrongWeekday)

	if err := e.OnSlotFreed(context.Background(), "t1", "b1", "s1", "2025-05-02", "10:00"); err != nil {
		t.Fatalf("OnSlotFreed() error = %v", err)
	}
	if notifier.count() != 0 {
		t.Fatalf("notifications = %d, want 0", notifier.count())
	}
}

func TestEngine_OnSlotFreedMatchesAnyBarberEntries(t *testing.T) {
	repo := newMemWaitingListRepo()
	notifier := &notifierSpy{}
	e := newTestEngine(repo, newFakeBookingEngine(), notifier)

	req := joinRequest()
	req.BarberID = "" // any barber
	entry, _, _ := e.Join(context.Background(), req)

	if err := e.OnSlotFreed(context.Background(), "t1", "b7", "s1", "2025-05-02", "10:00"); err != nil {
		t.Fatalf("OnSlotFreed() error = %v", err)
	}
	got, _ := repo.FindByID(context.Background(), entry.ID)
	if got.Status != models.WaitingListNotified || got.OfferedBarberID != "b7" {
		t.Fatalf("entry = %+v, want notified with offered barber b7", got)
	}
	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifier.count())
	}
}

func TestEngine_ConcurrentSlotFreedPromotesOnce(t *testing.T) {
	repo := newMemWaitingListRepo()
	notifier := &notifierSpy{}
	e := newTestEngine(repo, newFakeBookingEngine(), notifier)

	entry, _, _ := e.Join(context.Background(), joinRequest())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.OnSlotFreed(context.Background(), "t1", "b1", "s1", "2025-05-02", "10:00"); err != nil {
				t.Errorf("OnSlotFreed() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if notifier.count() != 1 {
		t.Fatalf("notifications = %d, want exactly 1", notifier.count())
	}
	if repo.status(entry.ID) != models.WaitingListNotified {
		t.Fatalf("entry status = %s, want notified", repo.status(entry.ID))
	}
}

func promote(t *testing.T, e *Engine, repo *memWaitingListRepo, entryID string) string {
	t.Helper()
	if err := e.OnSlotFreed(context.Background(), "t1", "b1", "s1", "2025-05-02", "10:00"); err != nil {
		t.Fatalf("OnSlotFreed() error = %v", err)
	}
	got, err := repo.FindByID(context.Background(), entryID)
	if err != nil || got.Token == "" {
		t.Fatalf("entry not promoted: %+v, err %v", got, err)
	}
	return got.Token
}

func TestEngine_ConvertBooksOfferedSlot(t *testing.T) {
	repo := newMemWaitingListRepo()
	bk := newFakeBookingEngine()
	e := newTestEngine(repo, bk, &notifierSpy{})

	entry, _, _ := e.Join(context.Background(), joinRequest())
	token := promote(t, e, repo, entry.ID)

	res, err := e.Convert(context.Background(), token)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Date != "2025-05-02" || res.StartTime != "10:00" || res.BarberID != "b1" {
		t.Fatalf("reservation = %+v, want offered slot", res)
	}
	if repo.status(entry.ID) != models.WaitingListConverted {
		t.Fatalf("entry status = %s, want converted", repo.status(entry.ID))
	}

	// Token is single-use.
	if _, err := e.Convert(context.Background(), token); err != ErrTokenInvalid {
		t.Fatalf("second Convert() error = %v, want ErrTokenInvalid", err)
	}
	if len(bk.requests) != 1 {
		t.Fatalf("booking calls = %d, want 1", len(bk.requests))
	}
}

func TestEngine_ConvertUnknownToken(t *testing.T) {
	e := newTestEngine(newMemWaitingListRepo(), newFakeBookingEngine(), nil)
	if _, err := e.Convert(context.Background(), "no-such-token"); err != ErrTokenInvalid {
		t.Fatalf("Convert() error = %v, want ErrTokenInvalid", err)
	}
}

func TestEngine_ConvertExpiredToken(t *testing.T) {
	repo := newMemWaitingListRepo()
	bk := newFakeBookingEngine()
	e := newTestEngine(repo, bk, &notifierSpy{})

	entry, _, _ := e.Join(context.Background(), joinRequest())
	token := promote(t, e, repo, entry.ID)

	e.Now = func() time.Time { return fixedNow.Add(49 * time.Hour) }
	if _, err := e.Convert(context.Background(), token); err != ErrTokenExpired {
		t.Fatalf("Convert() error = %v, want ErrTokenExpired", err)
	}
	if repo.status(entry.ID) != models.WaitingListExpired {
		t.Fatalf("entry status = %s, want expired", repo.status(entry.ID))
	}
	if len(bk.requests) != 0 {
		t.Fatal("booking engine was called for an expired token")
	}

	// Expired stays expired on re-redeem.
	if _, err := e.Convert(context.Background(), token); err != ErrTokenExpired {
		t.Fatalf("re-Convert() error = %v, want ErrTokenExpired", err)
	}
}

func TestEngine_ConvertSlotTakenLeavesEntryNotified(t *testing.T) {
	repo := newMemWaitingListRepo()
	bk := newFakeBookingEngine()
	e := newTestEngine(repo, bk, &notifierSpy{})

	entry, _, _ := e.Join(context.Background(), joinRequest())
	token := promote(t, e, repo, entry.ID)

	// Someone books the offered slot directly before the token is redeemed.
	bk.CreateReservation(context.Background(), booking.CreateRequest{
		TenantID: "t1", BarberID: "b1", ServiceID: "s1",
		Client: models.ClientInfo{Name: "Eve", Email: "eve@example.com"},
		Date:   "2025-05-02", StartTime: "10:00",
	})

	if _, err := e.Convert(context.Background(), token); err != ErrSlotUnavailable {
		t.Fatalf("Convert() error = %v, want ErrSlotUnavailable", err)
	}
	if repo.status(entry.ID) != models.WaitingListNotified {
		t.Fatalf("entry status = %s, want notified (eligible for a later offer)", repo.status(entry.ID))
	}
}

func TestEngine_SweepExpiresNotifiedEntries(t *testing.T) {
	repo := newMemWaitingListRepo()
	e := newTestEngine(repo, newFakeBookingEngine(), &notifierSpy{})

	stale, _, _ := e.Join(context.Background(), joinRequest())
	promote(t, e, repo, stale.ID)
	active, _, _ := e.Join(context.Background(), joinRequest())

	e.Now = func() time.Time { return fixedNow.Add(72 * time.Hour) }
	swept, err := e.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if swept != 1 {
		t.Fatalf("Sweep() = %d, want 1", swept)
	}
	if repo.status(stale.ID) != models.WaitingListExpired {
		t.Errorf("stale entry status = %s, want expired", repo.status(stale.ID))
	}
	if repo.status(active.ID) != models.WaitingListActive {
		t.Errorf("active entry status = %s, want active", repo.status(active.ID))
	}
}
