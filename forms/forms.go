package forms

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to its violation messages. An empty map
// means the form is valid.
type FieldErrors map[string][]string

func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

// validate is shared by all forms. Fields are reported under their form tag
// name so error keys match what the templates and handlers use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ShareForm carries a request to recommend a post to someone by email.
type ShareForm struct {
	Name     string `form:"name" validate:"required,max=25"`
	Email    string `form:"email" validate:"required,email"`
	To       string `form:"to" validate:"required,email"`
	Comments string `form:"comments"` // optional free text
}

// Validate returns the field-keyed violations of the form, or an empty map
// when the form is valid.
func (f *ShareForm) Validate() FieldErrors {
	return collect(validate.Struct(f))
}

// CommentForm carries the user-supplied fields of a comment submission. A
// valid form is not yet bound to a post; the caller attaches the owning post
// before persisting.
type CommentForm struct {
	Name  string `form:"name" validate:"required,max=80"`
	Email string `form:"email" validate:"required,email"`
	Body  string `form:"body" validate:"required"`
}

func (f *CommentForm) Validate() FieldErrors {
	return collect(validate.Struct(f))
}

// collect translates validator errors into FieldErrors with human-readable
// messages.
func collect(err error) FieldErrors {
	errs := FieldErrors{}
	if err == nil {
		return errs
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs[""] = append(errs[""], err.Error())
		return errs
	}

	for _, fe := range validationErrs {
		errs[fe.Field()] = append(errs[fe.Field()], message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return "Enter a valid value."
	}
}
