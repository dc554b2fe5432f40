package forms

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/internal/models"
)

// PostForm creates and edits posts
type PostForm struct {
	Group      string `form:"group"`
	Text       string `form:"text" binding:"notblank"`
	ImageClear string `form:"image-clear"`

	GroupID *int64  `form:"-"`
	Upload  *Upload `form:"-"`
	Errors  Errors  `form:"-"`

	// CurrentImage is the URL of the image already attached to an edited post
	CurrentImage string `form:"-"`

	groups []models.Group
}

// NewPostForm returns an unbound form offering groups as choices.
// When post is not nil the form starts with its values.
func NewPostForm(groups []models.Group, post *models.Post) *PostForm {
	f := &PostForm{groups: groups, Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.GroupID = post.GroupID
			f.Group = strconv.FormatInt(*post.GroupID, 10)
		}
	}
	return f
}

// Bind reads the submitted values and the image upload and reports whether the form is valid
func (f *PostForm) Bind(c *gin.Context) bool {
	Register()
	f.Errors = Errors{}

	if err := c.ShouldBind(f); err != nil {
		collect(f.Errors, f, err)
	}
	f.Text = strings.TrimSpace(f.Text)

	f.GroupID = nil
	if f.Group != "" {
		id, ok := f.lookupGroup(f.Group)
		if !ok {
			f.Errors.Add("group", MsgInvalidChoice)
		} else {
			f.GroupID = &id
		}
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		upload, err := ReadImage(fh)
		if err != nil {
			f.Errors.Add("image", MsgInvalidImage)
		} else {
			f.Upload = upload
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		f.Errors.Add("image", MsgInvalidImage)
	}

	return !f.Errors.Any()
}

// ClearImage reports whether the author asked to drop the current image
func (f *PostForm) ClearImage() bool {
	return f.ImageClear != "" && f.Upload == nil
}

// Apply copies validated values onto post. The image path is handled by the caller.
func (f *PostForm) Apply(post *models.Post) {
	post.Text = f.Text
	post.GroupID = f.GroupID
}

func (f *PostForm) lookupGroup(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	for _, g := range f.groups {
		if g.ID == id {
			return id, true
		}
	}
	return 0, false
}

// Fields lists the inputs in display order
func (f *PostForm) Fields() []Field {
	choices := []Choice{{Value: "", Label: "---------", Selected: f.Group == ""}}
	for _, g := range f.groups {
		v := strconv.FormatInt(g.ID, 10)
		choices = append(choices, Choice{Value: v, Label: g.Title, Selected: v == f.Group})
	}
	return []Field{
		{
			Name:    "group",
			Label:   "Which group is the post for?",
			Help:    "Leave empty if none.",
			Type:    "select",
			Value:   f.Group,
			Choices: choices,
			Errors:  f.Errors.Get("group"),
		},
		{
			Name:     "text",
			Label:    "What are you writing?",
			Help:     "Write the text of your post here.",
			Type:     "textarea",
			Value:    f.Text,
			Required: true,
			Errors:   f.Errors.Get("text"),
		},
		{
			Name:    "image",
			Label:   "You can attach a picture here.",
			Help:    "Images only.",
			Type:    "file",
			Current: f.CurrentImage,
			Errors:  f.Errors.Get("image"),
		},
	}
}
