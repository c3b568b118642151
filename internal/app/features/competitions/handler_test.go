package competitions_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/robohub/internal/app/features/competitions"
	compsvc "github.com/dalemusser/robohub/internal/app/services/competitions"
	"github.com/dalemusser/robohub/internal/app/services/registration"
	"github.com/dalemusser/robohub/internal/app/store/memstore"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, registerLimit int) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	set := memstore.New().Set()
	logger := zap.NewNop()

	counter := ratelimit.NewMemoryCounter(time.Minute)
	t.Cleanup(counter.Close)

	h := competitions.NewHandler(
		compsvc.New(set.Competitions, logger),
		registration.New(set.Competitions, set.Teams, logger),
		logger,
	)
	limiter := ratelimit.New(counter, "register", registerLimit, time.Minute)
	return competitions.Routes(h, testutil.NewSessionManager(t), limiter), testutil.NewFixtures(t, set)
}

func TestServeList_Public(t *testing.T) {
	r, fx := newTestRouter(t, 10)
	fx.CreateCompetition(context.Background(), "Spring Rumble", 8)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Competitions []models.Competition `json:"competitions"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Competitions) != 1 || body.Competitions[0].Name != "Spring Rumble" {
		t.Errorf("competitions = %+v", body.Competitions)
	}
}

func TestHandleCreate(t *testing.T) {
	r, _ := newTestRouter(t, 10)
	start := time.Now().UTC().Add(30 * 24 * time.Hour)
	in := map[string]any{
		"name":                 "Autumn Arena",
		"description":          "League play for every division.",
		"type":                 "knockout",
		"registrationDeadline": start.Add(-24 * time.Hour),
		"startDate":            start,
		"endDate":              start.Add(72 * time.Hour),
		"maxTeams":             12,
		"prizes":               []string{"Banner"},
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", in, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"upcoming"`)

	in["type"] = "league"
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", in, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, `"type":`)
	if code := rec.ErrorCode(t); code != apperr.CodeValidation {
		t.Errorf("league: code = %q", code)
	}

	in["type"] = "knockout"
	in["prizes"] = []string{}
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", in, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	if code := rec.ErrorCode(t); code != apperr.CodeValidation {
		t.Errorf("code = %q", code)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", in))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleRegister(t *testing.T) {
	r, fx := newTestRouter(t, 10)
	ctx := context.Background()
	school := fx.CreateSchool(ctx, "Ridge High")
	other := fx.CreateSchool(ctx, "Valley High")
	team := fx.CreateTeam(ctx, "Gearheads", school.ID, fx.CreateStudents(ctx, 2, school.ID))
	otherTeam := fx.CreateTeam(ctx, "Sparks", other.ID, fx.CreateStudents(ctx, 2, other.ID))
	comp := fx.CreateCompetition(ctx, "Ridge Cup", 1)
	actor := testutil.SchoolAdminUser(school.ID)

	body := func(teamID, schoolID string) map[string]string {
		return map[string]string{"competitionId": comp.ID.Hex(), "teamId": teamID, "schoolId": schoolID}
	}

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing fields", map[string]string{"competitionId": comp.ID.Hex()}, http.StatusBadRequest, apperr.CodeMissingFields},
		{"school mismatch", body(otherTeam.ID.Hex(), school.ID.Hex()), http.StatusForbidden, apperr.CodeSchoolMismatch},
		{"success", body(team.ID.Hex(), school.ID.Hex()), http.StatusOK, ""},
		{"full", body(team.ID.Hex(), school.ID.Hex()), http.StatusBadRequest, apperr.CodeCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/register", tt.body, actor))
			rec.AssertStatus(t, tt.status)
			if tt.code != "" {
				if code := rec.ErrorCode(t); code != tt.code {
					t.Errorf("code = %q, want %q", code, tt.code)
				}
				return
			}
			var out struct {
				Competition models.Competition `json:"competition"`
			}
			rec.DecodeJSON(t, &out)
			if out.Competition.CurrentTeams != 1 || !out.Competition.HasTeam(team.ID) {
				t.Errorf("competition = %+v", out.Competition)
			}
		})
	}
}

func TestHandleRegister_NoSession(t *testing.T) {
	r, _ := newTestRouter(t, 10)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{}))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleRegister_RateLimited(t *testing.T) {
	r, _ := newTestRouter(t, 2)
	actor := testutil.AdminUser()

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/register", map[string]string{}, actor))
		rec.AssertStatus(t, http.StatusBadRequest)
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/register", map[string]string{}, actor))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}
