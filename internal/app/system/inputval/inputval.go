// internal/app/system/inputval/inputval.go
//
// Package inputval validates request structs with go-playground/validator
// and turns failures into user-facing, field-scoped messages. Struct fields
// carry a `label` tag for the human name used in messages; the json name is
// the field key.
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string // json path, e.g. "members[1].userId"
	Message string
}

// Result collects the field errors from a validation pass.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// Add appends an error for field.
func (r *Result) Add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// ToFields maps field keys to their first message.
func (r *Result) ToFields() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Err returns an apperr validation error carrying the field map, or nil
// when there are no errors.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apperr.Validation(r.First(), r.ToFields())
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		registerRules(v)
		validate = v
	})
	return validate
}

// Validate runs the struct's `validate` tags and returns the failures.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Add("", "Invalid input.")
		return res
	}

	root := reflect.TypeOf(s)
	for _, fe := range verrs {
		res.Add(fieldKey(fe), message(fe, labelFor(root, fe)))
	}
	return res
}

// fieldKey strips the top-level struct name from the json namespace.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// labelFor walks the Go struct namespace to find the field's label tag.
func labelFor(root reflect.Type, fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	t := root
	var field reflect.StructField
	found := false
	for _, p := range parts[1:] {
		if i := strings.IndexByte(p, '['); i >= 0 {
			p = p[:i]
		}
		t = elem(t)
		if t.Kind() != reflect.Struct {
			found = false
			break
		}
		f, ok := t.FieldByName(p)
		if !ok {
			found = false
			break
		}
		field, found = f, true
		t = f.Type
	}
	if found {
		if l := field.Tag.Get("label"); l != "" {
			return l
		}
	}
	return humanize(fe.Field())
}

func elem(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t
}

// humanize turns "captainId" into "Captain id".
func humanize(s string) string {
	if s == "" {
		return "Value"
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func message(fe validator.FieldError, label string) string {
	kind := fe.Kind()
	sized := kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map

	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "min":
		if sized {
			return fmt.Sprintf("%s must have at least %s entries.", label, fe.Param())
		}
		if kind == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "max":
		if sized {
			return fmt.Sprintf("%s must have at most %s entries.", label, fe.Param())
		}
		if kind == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return label + " does not match."
	case "gtfield":
		return fmt.Sprintf("%s must be after %s.", label, humanizeParam(fe.Param()))
	case "ltfield":
		return fmt.Sprintf("%s must be before %s.", label, humanizeParam(fe.Param()))
	case "eq":
		if kind == reflect.Bool {
			return label + " must be accepted."
		}
		return fmt.Sprintf("%s must be %s.", label, fe.Param())
	case "objectid":
		return label + " must be a valid id."
	case "httpurl":
		return label + " must be a valid http or https URL."
	case "personname":
		return label + " may contain only letters and spaces."
	case "strongpassword":
		return passwordMessage
	case "role":
		return label + " must be a valid role."
	case "signuprole":
		return label + " must be student, parent, coach or school-admin."
	case "teamrole":
		return label + " must be a valid team role."
	case "competitiontype":
		return label + " must be a valid competition type."
	}
	return label + " is invalid."
}

func humanizeParam(p string) string {
	return strings.ToLower(humanize(p))
}
