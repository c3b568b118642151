package useradmin

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/store/memstore"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auditlog"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// plainTx runs without rollback, like a deployment without transactions.
type plainTx struct{}

func (plainTx) Within(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (plainTx) Active(context.Context) bool                                          { return false }

type env struct {
	db     *memstore.DB
	set    store.Set
	svc    *Service
	admin  *auth.SessionUser
	target models.User
}

func setup(t *testing.T, tx store.Tx) env {
	t.Helper()
	db := memstore.New()
	set := db.Set()
	if tx == nil {
		tx = set.Tx
	}
	fx := testutil.NewFixtures(t, set)
	ctx := context.Background()
	admin := fx.CreateAdmin(ctx, "Ada Admin", "ada@robohub.test")
	target := fx.CreateUser(ctx, "Terry Target", "terry@robohub.test", models.RoleStudent, nil)
	target.Verified = false
	target, _ = set.Users.Update(ctx, target)

	rec := auditlog.New(set.AuditLog, nil, auditlog.Config{})
	return env{
		db:     db,
		set:    set,
		svc:    New(set.Users, tx, rec, nil),
		admin:  testutil.SessionFor(admin),
		target: target,
	}
}

func TestApply_Actions(t *testing.T) {
	tests := []struct {
		name   string
		req    func(id string) Request
		check  func(u models.User) bool
		detail string
	}{
		{"verify", func(id string) Request { return Request{UserID: id, Action: ActionVerify} },
			func(u models.User) bool { return u.Verified }, ""},
		{"deactivate", func(id string) Request { return Request{UserID: id, Action: ActionDeactivate} },
			func(u models.User) bool { return !u.IsActive }, ""},
		{"activate", func(id string) Request { return Request{UserID: id, Action: ActionActivate} },
			func(u models.User) bool { return u.IsActive }, ""},
		{"change role", func(id string) Request { return Request{UserID: id, Action: ActionChangeRole, Value: "coach"} },
			func(u models.User) bool { return u.Role == models.RoleCoach }, "New role: coach"},
		{"legacy role spelling", func(id string) Request { return Request{UserID: id, Action: ActionChangeRole, Value: "school_admin"} },
			func(u models.User) bool { return u.Role == models.RoleSchoolAdmin }, "New role: school-admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t, nil)
			ctx := context.Background()
			u, err := e.svc.Apply(ctx, e.admin, tt.req(e.target.ID.Hex()))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !tt.check(u) {
				t.Errorf("unexpected user state: %+v", u)
			}

			logs, _ := e.set.AuditLog.Recent(ctx, 10)
			if len(logs) != 1 {
				t.Fatalf("audit entries = %d, want 1", len(logs))
			}
			if logs[0].TargetUserID != e.target.ID || logs[0].TargetUserEmail != e.target.Email || logs[0].AdminEmail != e.admin.Email {
				t.Errorf("unexpected audit entry: %+v", logs[0])
			}
			if logs[0].Details != tt.detail {
				t.Errorf("details = %q, want %q", logs[0].Details, tt.detail)
			}
		})
	}
}

func TestApply_VerifyTwiceAuditsTwice(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := e.svc.Apply(ctx, e.admin, Request{UserID: e.target.ID.Hex(), Action: ActionVerify}); err != nil {
			t.Fatalf("verify #%d: %v", i+1, err)
		}
	}
	logs, _ := e.set.AuditLog.Recent(ctx, 10)
	if len(logs) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(logs))
	}
}

func TestApply_Rejections(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()
	coach := testutil.SessionFor(models.User{ID: primitive.NewObjectID(), Email: "c@x.test", Role: models.RoleCoach, IsActive: true})
	id := e.target.ID.Hex()

	tests := []struct {
		name  string
		actor *auth.SessionUser
		req   Request
		want  apperr.Kind
		code  string
	}{
		{"no session", nil, Request{UserID: id, Action: ActionVerify}, apperr.KindUnauthorized, apperr.CodeUnauthorized},
		{"missing user id", e.admin, Request{Action: ActionVerify}, apperr.KindValidation, apperr.CodeMissingFields},
		{"missing action", e.admin, Request{UserID: id}, apperr.KindValidation, apperr.CodeMissingFields},
		{"not admin", coach, Request{UserID: id, Action: ActionVerify}, apperr.KindForbidden, apperr.CodeForbidden},
		{"self action", e.admin, Request{UserID: e.admin.ID, Action: ActionDeactivate}, apperr.KindForbidden, apperr.CodeSelfAction},
		{"self role change", e.admin, Request{UserID: e.admin.ID, Action: ActionChangeRole, Value: "student"}, apperr.KindForbidden, apperr.CodeSelfAction},
		{"unknown action", e.admin, Request{UserID: id, Action: "delete"}, apperr.KindValidation, apperr.CodeValidation},
		{"bad role", e.admin, Request{UserID: id, Action: ActionChangeRole, Value: "superuser"}, apperr.KindValidation, apperr.CodeValidation},
		{"unknown user", e.admin, Request{UserID: primitive.NewObjectID().Hex(), Action: ActionVerify}, apperr.KindNotFound, apperr.CodeUserNotFound},
		{"malformed user id", e.admin, Request{UserID: "zzz", Action: ActionVerify}, apperr.KindNotFound, apperr.CodeUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Apply(ctx, tt.actor, tt.req)
			ae := apperr.From(err)
			if ae == nil || ae.Kind != tt.want || ae.Code != tt.code {
				t.Fatalf("err = %v, want %s/%s", err, tt.want, tt.code)
			}
		})
	}

	logs, _ := e.set.AuditLog.Recent(ctx, 10)
	if len(logs) != 0 {
		t.Fatalf("rejected actions wrote %d audit entries", len(logs))
	}
}

func TestApply_AuditFailureRollsBack(t *testing.T) {
	tests := []struct {
		name string
		tx   store.Tx
	}{
		{"transaction", nil},
		{"compensation", plainTx{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t, tt.tx)
			ctx := context.Background()
			e.db.SetFailAudit(errors.New("disk full"))

			_, err := e.svc.Apply(ctx, e.admin, Request{UserID: e.target.ID.Hex(), Action: ActionChangeRole, Value: "admin"})
			if apperr.KindOf(err) != apperr.KindInternal || err == nil {
				t.Fatalf("err = %v, want internal", err)
			}

			stored, _ := e.set.Users.GetByID(ctx, e.target.ID)
			if stored.Role != models.RoleStudent {
				t.Fatalf("role = %s after failed audit, want student", stored.Role)
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	users, err := e.svc.ListUsers(ctx, e.admin)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Errorf("password hash exposed for %s", u.Email)
		}
	}

	if _, err := e.svc.ListUsers(ctx, testutil.SchoolAdminUser(primitive.NewObjectID())); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("school admin: err = %v, want forbidden", err)
	}
}
