package forms

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SignupForm registers a new user
type SignupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"notblank,max=150,username"`
	Email     string `form:"email" binding:"omitempty,max=254,email"`
	Password1 string `form:"password1" binding:"notblank,min=8"`
	Password2 string `form:"password2" binding:"notblank,eqfield=Password1"`

	Errors Errors `form:"-"`
}

// NewSignupForm returns an empty signup form
func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: Errors{}}
}

// Bind reads the submitted values and reports whether they are valid.
// Username uniqueness is checked by the caller.
func (f *SignupForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}
	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return !f.Errors.Any()
}

func (f *SignupForm) Fields() []Field {
	return []Field{
		{Name: "first_name", Label: "First name", Type: "text", Value: f.FirstName, Errors: f.Errors.Get("first_name")},
		{Name: "last_name", Label: "Last name", Type: "text", Value: f.LastName, Errors: f.Errors.Get("last_name")},
		{
			Name:     "username",
			Label:    "Username",
			Help:     "Required. 150 characters or fewer. Letters, digits and @/./+/-/_ only.",
			Type:     "text",
			Value:    f.Username,
			Required: true,
			Errors:   f.Errors.Get("username"),
		},
		{Name: "email", Label: "Email address", Type: "email", Value: f.Email, Errors: f.Errors.Get("email")},
		{
			Name:     "password1",
			Label:    "Password",
			Help:     "Your password must contain at least 8 characters.",
			Type:     "password",
			Required: true,
			Errors:   f.Errors.Get("password1"),
		},
		{
			Name:     "password2",
			Label:    "Password confirmation",
			Help:     "Enter the same password as before, for verification.",
			Type:     "password",
			Required: true,
			Errors:   f.Errors.Get("password2"),
		},
	}
}

// LoginForm authenticates an existing user
type LoginForm struct {
	Username string `form:"username" binding:"notblank"`
	Password string `form:"password" binding:"notblank"`
	Next     string `form:"next"`

	Errors Errors `form:"-"`
}

// NewLoginForm returns an empty login form that returns to next on success
func NewLoginForm(next string) *LoginForm {
	return &LoginForm{Next: next, Errors: Errors{}}
}

// Bind reads the submitted credentials
func (f *LoginForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}
	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.Username = strings.TrimSpace(f.Username)
	return !f.Errors.Any()
}

func (f *LoginForm) Fields() []Field {
	return []Field{
		{Name: "username", Label: "Username", Type: "text", Value: f.Username, Required: true, Errors: f.Errors.Get("username")},
		{Name: "password", Label: "Password", Type: "password", Required: true, Errors: f.Errors.Get("password")},
	}
}
