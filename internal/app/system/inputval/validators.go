// internal/app/system/inputval/validators.go
package inputval

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/dalemusser/robohub/internal/app/system/authutil"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var passwordMessage = authutil.PasswordRules()

func registerRules(v *validator.Validate) {
	str := func(fn func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool { return fn(fl.Field().String()) }
	}
	// Registration only fails for restricted tag names; these are not.
	_ = v.RegisterValidation("email", str(IsValidEmail))
	_ = v.RegisterValidation("objectid", str(IsValidObjectID))
	_ = v.RegisterValidation("httpurl", str(IsValidHTTPURL))
	_ = v.RegisterValidation("personname", str(IsPersonName))
	_ = v.RegisterValidation("strongpassword", str(func(s string) bool { return authutil.ValidatePassword(s) == nil }))
	_ = v.RegisterValidation("role", str(IsValidRole))
	_ = v.RegisterValidation("signuprole", str(IsSignupRole))
	_ = v.RegisterValidation("teamrole", str(func(s string) bool { return models.TeamRole(s).Valid() }))
	_ = v.RegisterValidation("competitiontype", str(IsValidCompetitionType))
}

// IsValidEmail is a structural check: one @, non-empty local and domain
// parts, no whitespace, and no leading, trailing or doubled dots.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') || at == len(s)-1 {
		return false
	}
	for _, part := range []string{s[:at], s[at+1:]} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
		if strings.ContainsAny(part, "<>()[]\\,;:\"") {
			return false
		}
	}
	return true
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsPersonName allows ASCII letters and spaces only.
func IsPersonName(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if r != ' ' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// IsValidRole accepts any canonical role, including the legacy spelling.
func IsValidRole(s string) bool {
	_, ok := models.ParseRole(s)
	return ok
}

// IsSignupRole accepts the roles a visitor may choose at sign-up.
func IsSignupRole(s string) bool {
	r, ok := models.ParseRole(s)
	if !ok {
		return false
	}
	for _, allowed := range models.SignupRoles {
		if r == allowed {
			return true
		}
	}
	return false
}

// IsValidCompetitionType reports whether s is a known competition format.
func IsValidCompetitionType(s string) bool {
	switch s {
	case models.CompetitionKnockout, models.CompetitionLeaderboard, models.CompetitionSprint:
		return true
	}
	return false
}
