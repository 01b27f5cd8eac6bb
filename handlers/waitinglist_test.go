package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	waitinglistRepo "barberly/database/repository/waitinglist"
	"barberly/models"
	"barberly/services/booking"
	"barberly/services/waitinglist"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// stubWaitingListRepo backs the handler tests with a single canned entry.
type stubWaitingListRepo struct {
	waitinglistRepo.Repository
	entry    *models.WaitingListEntry
	inserted *models.WaitingListEntry
}

func (s *stubWaitingListRepo) Insert(ctx context.Context, entry *models.WaitingListEntry) error {
	s.inserted = entry
	return nil
}

func (s *stubWaitingListRepo) CountActiveBefore(ctx context.Context, tenantID, barberID string, createdBefore time.Time) (int64, error) {
	return 2, nil
}

func (s *stubWaitingListRepo) FindByToken(ctx context.Context, token string) (*models.WaitingListEntry, error) {
	if s.entry != nil && s.entry.Token == token {
		cp := *s.entry
		return &cp, nil
	}
	return nil, waitinglistRepo.ErrNotFound
}

func (s *stubWaitingListRepo) UpdateStatus(ctx context.Context, id string, from, to models.WaitingListStatus) (bool, error) {
	return true, nil
}

func newWaitingListRouter(repo waitinglistRepo.Repository, bk booking.Engine) *gin.Engine {
	engine := &waitinglist.Engine{
		Repo:          repo,
		Booking:       bk,
		Logger:        zap.NewNop(),
		WindowDays:    7,
		PublicBaseURL: "https://book.example.com",
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/waiting-list", JoinWaitingList(engine))
	r.POST("/api/waiting-list/convert/:token", ConvertWaitingList(engine))
	return r
}

func notifiedEntry(token string) *models.WaitingListEntry {
	return &models.WaitingListEntry{
		ID:              "w1",
		TenantID:        "t1",
		ServiceID:       "s1",
		Client:          models.ClientInfo{Name: "Ada", Email: "ada@example.com"},
		Status:          models.WaitingListNotified,
		Token:           token,
		TokenExpiresAt:  time.Now().Add(time.Hour),
		OfferedBarberID: "b1",
		OfferedDate:     "2025-05-02",
		OfferedTime:     "10:00",
	}
}

func TestJoinWaitingList_ReturnsPosition(t *testing.T) {
	repo := &stubWaitingListRepo{}
	r := newWaitingListRouter(repo, &stubEngine{})

	w := postJSON(t, r, "/api/waiting-list", map[string]interface{}{
		"tenantId":          "t1",
		"serviceId":         "s1",
		"client":            map[string]string{"name": "Ada", "email": "ada@example.com"},
		"preferredDate":     "2025-05-02",
		"preferredTimeFrom": "09:00",
		"preferredTimeTo":   "17:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Position int64 `json:"position"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Position != 3 {
		t.Fatalf("position = %d, want 3", resp.Position)
	}
	if repo.inserted == nil || repo.inserted.Status != models.WaitingListActive {
		t.Fatalf("inserted entry = %+v", repo.inserted)
	}
}

func TestJoinWaitingList_ValidationError(t *testing.T) {
	r := newWaitingListRouter(&stubWaitingListRepo{}, &stubEngine{})

	w := postJSON(t, r, "/api/waiting-list", map[string]interface{}{
		"tenantId":          "t1",
		"serviceId":         "s1",
		"client":            map[string]string{"name": "Ada", "email": "ada@example.com"},
		"preferredDate":     "not-a-date",
		"preferredTimeFrom": "09:00",
		"preferredTimeTo":   "17:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", w.Code, w.Body.String())
	}
}

func TestConvertWaitingList_Created(t *testing.T) {
	repo := &stubWaitingListRepo{entry: notifiedEntry("tok-1")}
	bk := &stubEngine{createRes: &models.Reservation{ID: "r1", Date: "2025-05-02", StartTime: "10:00"}}
	r := newWaitingListRouter(repo, bk)

	w := postJSON(t, r, "/api/waiting-list/convert/tok-1", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}
	if bk.lastCreate.Date != "2025-05-02" || bk.lastCreate.BarberID != "b1" {
		t.Fatalf("booking request = %+v, want offered slot", bk.lastCreate)
	}
}

func TestConvertWaitingList_UnknownToken(t *testing.T) {
	r := newWaitingListRouter(&stubWaitingListRepo{}, &stubEngine{})
	w := postJSON(t, r, "/api/waiting-list/convert/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", w.Code, w.Body.String())
	}
}

func TestConvertWaitingList_ExpiredToken(t *testing.T) {
	entry := notifiedEntry("tok-1")
	entry.TokenExpiresAt = time.Now().Add(-time.Hour)
	r := newWaitingListRouter(&stubWaitingListRepo{entry: entry}, &stubEngine{})

	w := postJSON(t, r, "/api/waiting-list/convert/tok-1", nil)
	if w.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410; body %s", w.Code, w.Body.String())
	}
}

func TestConvertWaitingList_SlotTaken(t *testing.T) {
	bk := &stubEngine{createErr: booking.NewSlotConflictError("b1", "2025-05-02", "10:00")}
	r := newWaitingListRouter(&stubWaitingListRepo{entry: notifiedEntry("tok-1")}, bk)

	w := postJSON(t, r, "/api/waiting-list/convert/tok-1", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", w.Code, w.Body.String())
	}
}
