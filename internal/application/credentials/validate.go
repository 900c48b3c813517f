package credentials

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// report json field names (firstName, email, ...) instead of Go names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// maxbytes counts bytes, not runes; bcrypt rejects inputs over 72 bytes.
	_ = validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
}

// validatePassword applies the draft password rules to a patch value.
func validatePassword(pw string) error {
	if err := validate.Var(pw, "maxbytes=72"); err != nil {
		return domain.ErrInvalidField("password", "maxbytes")
	}
	return nil
}

// normalizeDraft applies the schema's trim / lowercase / default rules.
// The password is never trimmed.
func normalizeDraft(d domain.Draft) domain.Draft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Username = strings.TrimSpace(d.Username)
	d.Email = normalizeEmail(d.Email)
	d.Role = strings.TrimSpace(d.Role)
	if d.Role == "" {
		d.Role = string(domain.RoleUser)
	}
	return d
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateDraft maps the first validator failure onto a domain error.
func validateDraft(d domain.Draft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrInternal(err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(fe.Field())
	case "oneof":
		return domain.ErrInvalidRole(d.Role)
	default:
		return domain.ErrInvalidField(fe.Field(), fe.Tag())
	}
}

// applyPatch copies non-nil patch fields onto u (password excluded) with the
// same normalization as drafts.
func applyPatch(u domain.User, p domain.Patch) (domain.User, error) {
	set := func(field string, dst *string, v *string) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return domain.ErrMissingField(field)
		}
		*dst = s
		return nil
	}

	if err := set("firstName", &u.FirstName, p.FirstName); err != nil {
		return u, err
	}
	if err := set("lastName", &u.LastName, p.LastName); err != nil {
		return u, err
	}
	if err := set("username", &u.Username, p.Username); err != nil {
		return u, err
	}
	if err := set("email", &u.Email, p.Email); err != nil {
		return u, err
	}
	u.Email = normalizeEmail(u.Email)

	if p.Role != nil {
		r := strings.TrimSpace(*p.Role)
		if !domain.IsValidRole(r) {
			return u, domain.ErrInvalidRole(r)
		}
		u.Role = r
	}
	return u, nil
}
