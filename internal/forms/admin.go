package forms

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

// GroupForm adds a group from the admin
type GroupForm struct {
	Title       string `form:"title" binding:"notblank,max=200"`
	Slug        string `form:"slug" binding:"omitempty,max=50,slug"`
	Description string `form:"description" binding:"notblank,max=200"`

	Errors Errors `form:"-"`
}

// NewGroupForm returns an empty group form
func NewGroupForm() *GroupForm {
	return &GroupForm{Errors: Errors{}}
}

// Bind reads the submitted group. An empty slug is derived from the title.
func (f *GroupForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}
	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Slug = strings.TrimSpace(f.Slug)
	if f.Slug == "" && f.Title != "" && !f.Errors.Has("slug") {
		f.Slug = Slugify(f.Title)
		if f.Slug == "" {
			f.Errors.Add("slug", MsgRequired)
		}
	}
	return !f.Errors.Any()
}

func (f *GroupForm) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Type: "text", Value: f.Title, Required: true, Errors: f.Errors.Get("title")},
		{
			Name:   "slug",
			Label:  "Slug",
			Help:   "Leave empty to build it from the title.",
			Type:   "text",
			Value:  f.Slug,
			Errors: f.Errors.Get("slug"),
		},
		{Name: "description", Label: "Description", Type: "textarea", Value: f.Description, Required: true, Errors: f.Errors.Get("description")},
	}
}

// Slugify builds a URL slug of at most 50 characters
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	return s
}

// FlatPageForm adds a static page from the admin
type FlatPageForm struct {
	URL     string `form:"url" binding:"notblank,max=100,startswith=/,endswith=/"`
	Title   string `form:"title" binding:"notblank,max=200"`
	Content string `form:"content"`

	Errors Errors `form:"-"`
}

// NewFlatPageForm returns an empty flat page form
func NewFlatPageForm() *FlatPageForm {
	return &FlatPageForm{Errors: Errors{}}
}

// Bind reads the submitted page
func (f *FlatPageForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}
	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.Title = strings.TrimSpace(f.Title)
	return !f.Errors.Any()
}

func (f *FlatPageForm) Fields() []Field {
	return []Field{
		{
			Name:     "url",
			Label:    "URL",
			Help:     "Example: \"/about/author/\". Make sure to have leading and trailing slashes.",
			Type:     "text",
			Value:    f.URL,
			Required: true,
			Errors:   f.Errors.Get("url"),
		},
		{Name: "title", Label: "Title", Type: "text", Value: f.Title, Required: true, Errors: f.Errors.Get("title")},
		{Name: "content", Label: "Content", Type: "textarea", Value: f.Content, Errors: f.Errors.Get("content")},
	}
}
