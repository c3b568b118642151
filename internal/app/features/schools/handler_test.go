package schools_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/dalemusser/robohub/internal/app/features/schools"
	schoolsvc "github.com/dalemusser/robohub/internal/app/services/schools"
	"github.com/dalemusser/robohub/internal/app/store/memstore"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	set := memstore.New().Set()
	h := schools.NewHandler(schoolsvc.New(set.Schools, set.Users, set.Tx, zap.NewNop()), zap.NewNop())
	return schools.Routes(h, testutil.NewSessionManager(t))
}

type schoolBody struct {
	School models.School `json:"school"`
}

func create(t *testing.T, r chi.Router, name, email string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"name": name, "adminEmail": email}))
	return rec
}

func TestHandleCreate(t *testing.T) {
	r := newTestRouter(t)

	rec := create(t, r, "Pine Ridge Middle", "office@pineridge.edu")
	rec.AssertStatus(t, http.StatusCreated)
	var body schoolBody
	rec.DecodeJSON(t, &body)
	if body.School.Slug != "pine-ridge-middle" || body.School.IsVerified {
		t.Errorf("school = %+v", body.School)
	}

	rec = create(t, r, "PINE RIDGE MIDDLE", "other@pineridge.edu")
	rec.AssertStatus(t, http.StatusConflict)
	if code := rec.ErrorCode(t); code != apperr.CodeSchoolExists {
		t.Errorf("code = %q", code)
	}

	rec = create(t, r, "", "office@x.edu")
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_Pages(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 3; i++ {
		create(t, r, fmt.Sprintf("Academy %c", 'A'+i), fmt.Sprintf("a%d@academy.edu", i)).AssertStatus(t, http.StatusCreated)
	}

	var page schoolsvc.Page
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?limit=2"))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &page)
	if len(page.Schools) != 2 || !page.HasNext || page.Next == "" {
		t.Fatalf("first page = %+v", page)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?limit=2&after="+url.QueryEscape(page.Next)))
	rec.AssertStatus(t, http.StatusOK)
	var next schoolsvc.Page
	rec.DecodeJSON(t, &next)
	if len(next.Schools) != 1 || next.Schools[0].Name != "Academy C" || next.HasNext {
		t.Fatalf("second page = %+v", next)
	}
}

func TestHandleVerify(t *testing.T) {
	r := newTestRouter(t)
	rec := create(t, r, "Oak Grove", "head@oakgrove.edu")
	var body schoolBody
	rec.DecodeJSON(t, &body)
	path := "/" + body.School.ID.Hex() + "/verify"

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPatch, path, nil, testutil.SchoolAdminUser(body.School.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPatch, path, nil, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"isVerified":true`)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPatch, "/"+primitive.NewObjectID().Hex()+"/verify", nil, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
