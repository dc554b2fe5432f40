package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yatube/yatube/internal/forms"
)

func TestNewPost_Authorized(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	cats := f.group("Cats", "cats")

	w := f.postForm(leo, f.url("new_post"), url.Values{"text": {"My first post"}, "group": {fmt.Sprint(cats.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, int64(1), f.postCount())

	n, err := f.posts.CountByAuthor(f.ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var postID int64
	require.NoError(t, f.posts.All(f.ctx).Select("id").Row().Scan(&postID))

	for _, target := range []string{
		f.url("index"),
		f.url("profile", "leo"),
		f.url("post", "leo", postID),
		f.url("group_posts", "cats"),
	} {
		w := f.get(nil, target)
		assert.Equal(t, http.StatusOK, w.Code, target)
		assert.Contains(t, w.Body.String(), "My first post", target)
	}
}

func TestNewPost_Form(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	f.group("Cats", "cats")

	w := f.get(leo, "/new/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "What are you writing?")
	assert.Contains(t, body, "Which group is the post for?")
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, ">Cats</option>")

	w = f.postForm(leo, "/new/", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), forms.MsgRequired)
	assert.Equal(t, int64(0), f.postCount())

	w = f.postForm(leo, "/new/", url.Values{"text": {"hello"}, "group": {"12345"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), forms.MsgInvalidChoice)
	assert.Equal(t, int64(0), f.postCount())
}

func TestNewPost_Anonymous(t *testing.T) {
	f := newFixture(t)

	w := f.get(nil, "/new/")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fnew%2F", w.Header().Get("Location"))

	w = f.postForm(nil, "/new/", url.Values{"text": {"sneaky"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fnew%2F", w.Header().Get("Location"))
	assert.Equal(t, int64(0), f.postCount())
}

func TestPostEdit_MovesGroup(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	cats := f.group("Cats", "cats")
	dogs := f.group("Dogs", "dogs")
	post := f.post(leo, cats, "Original text")
	pubDate := post.PubDate

	w := f.get(leo, f.url("post_edit", "leo", post.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Original text")

	w = f.postForm(leo, f.url("post_edit", "leo", post.ID), url.Values{"text": {"Edited text"}, "group": {fmt.Sprint(dogs.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, f.url("post", "leo", post.ID), w.Header().Get("Location"))

	stored, err := f.posts.GetByID(f.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited text", stored.Text)
	require.NotNil(t, stored.GroupID)
	assert.Equal(t, dogs.ID, *stored.GroupID)
	assert.True(t, pubDate.Equal(stored.PubDate), "pub_date must not change on edit")

	assert.NotContains(t, f.get(nil, "/group/cats/").Body.String(), "Edited text")
	assert.Contains(t, f.get(nil, "/group/dogs/").Body.String(), "Edited text")
	assert.Contains(t, f.get(nil, "/leo/").Body.String(), "Edited text")
	assert.Contains(t, f.get(nil, f.url("post", "leo", post.ID)).Body.String(), "Edited text")

	require.NoError(t, f.router.Fragments().Clear(f.ctx))
	assert.Contains(t, f.get(nil, "/").Body.String(), "Edited text")
}

func TestPostEdit_OnlyAuthor(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	anna := f.user("anna")
	post := f.post(leo, nil, "Leo's words")

	w := f.get(anna, f.url("post_edit", "leo", post.ID))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, f.url("post", "leo", post.ID), w.Header().Get("Location"))

	w = f.postForm(anna, f.url("post_edit", "leo", post.ID), url.Values{"text": {"hijacked"}})
	require.Equal(t, http.StatusFound, w.Code)

	stored, err := f.posts.GetByID(f.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leo's words", stored.Text)

	w = f.get(nil, f.url("post_edit", "leo", post.ID))
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/?next="))

	assert.Equal(t, http.StatusNotFound, f.get(leo, f.url("post_edit", "anna", post.ID)).Code)
}

var imgTag = regexp.MustCompile(`<img class="card-img" src="(/media/posts/[^"]+\.gif)">`)

func TestPostImage(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	cats := f.group("Cats", "cats")

	w := f.postMultipart(leo, "/new/", map[string]string{"text": "With picture", "group": fmt.Sprint(cats.ID)}, "small.gif", smallGIF)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var postID int64
	require.NoError(t, f.posts.All(f.ctx).Select("id").Row().Scan(&postID))

	var src string
	for _, target := range []string{"/", "/leo/", "/group/cats/", f.url("post", "leo", postID)} {
		body := f.get(nil, target).Body.String()
		m := imgTag.FindStringSubmatch(body)
		require.NotNil(t, m, "no image on %s", target)
		src = m[1]
	}

	w = f.get(nil, src)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, smallGIF, w.Body.Bytes())
}

func TestPostImage_Invalid(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")

	w := f.postMultipart(leo, "/new/", map[string]string{"text": "Not a picture"}, "notes.txt", []byte("just some text"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), forms.MsgInvalidImage)
	assert.Equal(t, int64(0), f.postCount())
}

func TestPostEdit_ReplacesImage(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")

	w := f.postMultipart(leo, "/new/", map[string]string{"text": "pic"}, "small.gif", smallGIF)
	require.Equal(t, http.StatusFound, w.Code)
	post, err := f.posts.GetByID(f.ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, post.Image)

	w = f.postMultipart(leo, f.url("post_edit", "leo", post.ID), map[string]string{"text": "no pic", "image-clear": "on"}, "", nil)
	require.Equal(t, http.StatusFound, w.Code)

	stored, err := f.posts.GetByID(f.ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Image)
	assert.Equal(t, http.StatusNotFound, f.get(nil, "/media/"+post.Image).Code)
}

func TestNewPost_FailedInsertDropsImage(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")

	err := f.database.Callback().Create().Before("gorm:create").Register("test:fail_posts", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "posts" {
			_ = tx.AddError(errors.New("insert refused"))
		}
	})
	require.NoError(t, err)

	w := f.postMultipart(leo, "/new/", map[string]string{"text": "pic"}, "small.gif", smallGIF)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	stored, err := afero.Glob(f.mediaFs, "/posts/*")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestIndexCache(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	f.post(leo, nil, "Cached post")

	first := f.get(nil, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "Cached post")

	f.post(leo, nil, "Fresh post")

	second := f.get(nil, "/")
	assert.NotContains(t, second.Body.String(), "Fresh post", "index fragment is served from cache")
	assert.Equal(t, first.Body.String(), second.Body.String())

	require.NoError(t, f.router.Fragments().Clear(f.ctx))

	third := f.get(nil, "/")
	assert.Contains(t, third.Body.String(), "Fresh post")
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	cats := f.group("Cats", "cats")
	for i := 0; i < 13; i++ {
		f.post(leo, cats, fmt.Sprintf("post number %d", i))
	}

	tests := []struct {
		target string
		cards  int
	}{
		{"/", 10},
		{"/?page=2", 3},
		{"/?page=99", 3},
		{"/?page=abc", 10},
		{"/?page=0", 3},
		{"/group/cats/", 10},
		{"/group/cats/?page=-1", 3},
		{"/group/cats/?page=2", 3},
		{"/leo/", 10},
		{"/leo/?page=2", 3},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := f.get(nil, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.cards, strings.Count(w.Body.String(), `<div class="card mb-3 mt-1 shadow-sm">`))
		})
	}

	assert.Contains(t, f.get(nil, "/").Body.String(), "post number 12", "newest first")
}

func TestProfile_Counters(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	anna := f.user("anna")
	f.post(leo, nil, "one")
	f.post(leo, nil, "two")
	require.NoError(t, f.follows.GetOrCreate(f.ctx, anna.ID, leo.ID))

	body := f.get(anna, "/leo/").Body.String()
	assert.Contains(t, body, "Posts: 2")
	assert.Contains(t, body, "Followers: 1")
	assert.Contains(t, body, "Unfollow")

	body = f.get(leo, "/leo/").Body.String()
	assert.NotContains(t, body, ">Follow<")
	assert.NotContains(t, body, ">Unfollow<")
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	leo := f.user("leo")
	post := f.post(leo, nil, "text")
	f.user("anna")

	for _, target := range []string{
		"/group/group/group/group/",
		"/group/missing/",
		"/nobody/",
		"/anna/" + fmt.Sprint(post.ID) + "/",
		"/leo/999/",
		"/leo/abc/",
		"/about/missing/",
	} {
		w := f.get(nil, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Contains(t, w.Body.String(), "Error 404", target)
	}
}

func TestServerError(t *testing.T) {
	f := newFixture(t)

	engine := gin.New()
	f.router.SetupRoutes(engine)
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })
	engine.GET("/fail", f.router.handle(func(c *gin.Context) error { return fmt.Errorf("broken") }))

	for _, target := range []string{"/boom", "/fail"} {
		w := httptestGet(engine, target)
		assert.Equal(t, http.StatusInternalServerError, w.Code, target)
		assert.Contains(t, w.Body.String(), "Error 500", target)
	}
}
