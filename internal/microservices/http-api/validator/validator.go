// Package validator holds the domain checks applied to usernames and release
// years, and the glue that exposes them as gin binding tags.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

// ReservedUsername is taken by the self-service profile route.
const ReservedUsername = "me"

var (
	ErrReservedUsername = errors.New(`username "me" is not allowed`)
	ErrInvalidUsername  = errors.New("username may contain only letters, digits and @/./+/-/_")
	ErrFutureYear       = errors.New("year cannot be in the future")

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Clock abstracts the wall clock so year checks are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// ValidateUsername rejects the reserved name in any letter case and names
// outside the allowed character set.
func ValidateUsername(username string) error {
	if strings.EqualFold(username, ReservedUsername) {
		return ErrReservedUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateYear rejects a release year later than the current calendar year.
func ValidateYear(year int, now time.Time) error {
	if year > now.Year() {
		return fmt.Errorf("%w: %d > %d", ErrFutureYear, year, now.Year())
	}
	return nil
}

var registerOnce sync.Once

// RegisterBindings adds the not_me, username and slug tags to gin's validator
// and makes field errors report json (or form) names. Safe to call more than once.
func RegisterBindings() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation("not_me", func(fl playground.FieldLevel) bool {
			return !strings.EqualFold(fl.Field().String(), ReservedUsername)
		})
		_ = v.RegisterValidation("username", func(fl playground.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("slug", func(fl playground.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
}

// FieldErrors converts a binding failure into per-field messages. The second
// return value is false when err is not a validation failure, e.g. malformed JSON.
func FieldErrors(err error) (map[string][]string, bool) {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out, true
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "email":
		return "enter a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "not_me":
		return ErrReservedUsername.Error()
	case "username":
		return ErrInvalidUsername.Error()
	case "slug":
		return "enter a valid slug of letters, numbers, underscores or hyphens"
	}
	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}
