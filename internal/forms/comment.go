package forms

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CommentForm adds a comment to a post
type CommentForm struct {
	Text   string `form:"text" binding:"notblank"`
	Errors Errors `form:"-"`
}

// NewCommentForm returns an empty comment form
func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

// Bind reads the submitted comment and reports whether it is valid
func (f *CommentForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}
	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.Text = strings.TrimSpace(f.Text)
	return !f.Errors.Any()
}

func (f *CommentForm) Fields() []Field {
	return []Field{{
		Name:     "text",
		Label:    "What do you think?",
		Help:     "Share your opinion on the post you read.",
		Type:     "textarea",
		Value:    f.Text,
		Required: true,
		Errors:   f.Errors.Get("text"),
	}}
}
