package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"barberly/resilience"
	"barberly/utils"

	"github.com/gin-gonic/gin"
)

func TestHealth_ReportsBreakerSnapshots(t *testing.T) {
	gin.SetMode(gin.TestMode)

	breaker := resilience.NewBreaker(resilience.BreakerConfig{Name: "email-test", FailureThreshold: 1})
	utils.RegisterBreakers(breaker)
	_ = breaker.Execute(func() error { return errors.New("provider down") })

	router := gin.New()
	router.GET("/health", Health())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Status       string             `json:"status"`
		Dependencies utils.HealthStatus `json:"dependencies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}

	var snap *resilience.Snapshot
	for i := range body.Dependencies.Breakers {
		if body.Dependencies.Breakers[i].Name == "email-test" {
			snap = &body.Dependencies.Breakers[i]
		}
	}
	if snap == nil {
		t.Fatalf("breakers = %+v, want a snapshot for email-test", body.Dependencies.Breakers)
	}
	// Snapshots are taken at read time, so the failure above is visible.
	if snap.State != "open" || snap.Counts.Failures != 1 {
		t.Errorf("snapshot = %+v, want open with one failure", snap)
	}
}
