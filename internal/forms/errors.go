package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error messages shown next to form fields
const (
	MsgRequired      = "This field is required."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidName   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgPasswordMatch = "The two password fields didn't match."
	MsgUsernameTaken = "A user with that username already exists."
	MsgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// Errors maps a form field name to its messages. The empty name holds
// errors that belong to the form as a whole.
type Errors map[string][]string

// Add appends a message to field
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages for field
func (e Errors) Get(field string) []string {
	return e[field]
}

// Has reports whether field has any message
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Any reports whether the form has any error at all
func (e Errors) Any() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// NonField returns form-wide messages
func (e Errors) NonField() []string {
	return e[""]
}

// collect translates a binding error into field messages, naming fields by their form tag
func collect(errs Errors, form interface{}, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", err.Error())
		return
	}
	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for _, fe := range verrs {
		name := fe.Field()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(sf.Tag.Get("form"), ",")[0]; tag != "" {
				name = tag
			}
		}
		errs.Add(name, message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return MsgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "email":
		return MsgInvalidEmail
	case "username":
		return MsgInvalidName
	case "eqfield":
		return MsgPasswordMatch
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "startswith":
		return "URL is missing a leading slash."
	case "endswith":
		return "URL is missing a trailing slash."
	}
	return "Enter a valid value."
}
