package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aegisguard/aegis/internal/handler/dto"
	"github.com/aegisguard/aegis/internal/service"
)

func TestPlansCatalog(t *testing.T) {
	svc := service.NewSubscriptionService(nil, nil, nil)
	h := NewSubscriptionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	rec := httptest.NewRecorder()

	h.Plans(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.PlanListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(resp.Data) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(resp.Data))
	}

	wantIDs := []string{"basic", "pro", "max"}
	for i, want := range wantIDs {
		if resp.Data[i].ID != want {
			t.Errorf("plan[%d].ID = %q, want %q", i, resp.Data[i].ID, want)
		}
	}

	// Max tier advertises unlimited scans
	if resp.Data[2].ScansPerMonth != 0 {
		t.Errorf("max plan scans_per_month = %d, want 0 (unlimited)", resp.Data[2].ScansPerMonth)
	}
}
