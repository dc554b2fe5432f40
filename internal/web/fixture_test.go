package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/db/dbtest"
	"github.com/yatube/yatube/internal/media"
	"github.com/yatube/yatube/internal/models"
)

const testPassword = "correct-horse-battery"

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	router   *Router
	handler  http.Handler
	store    *cache.Local
	sessions *auth.Sessions
	database *db.DB
	mediaFs  afero.Fs

	users     *db.UserRepository
	groups    *db.GroupRepository
	posts     *db.PostRepository
	comments  *db.CommentRepository
	follows   *db.FollowRepository
	flatpages *db.FlatPageRepository

	passwordHash string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.New(t)
	mediaFs := afero.NewMemMapFs()
	store := cache.NewLocal(time.Minute)
	sessions := auth.NewSessions("test-secret", time.Hour)

	router, err := NewRouter(Options{
		DB:            database,
		Cache:         store,
		Media:         media.NewStorageFs(mediaFs, "/media/"),
		Sessions:      sessions,
		PageSize:      10,
		IndexCacheTTL: 20 * time.Second,
	})
	require.NoError(t, err)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	repo := db.NewRepository(database.DB)
	return &fixture{
		t:            t,
		ctx:          context.Background(),
		router:       router,
		handler:      router.Handler(),
		store:        store,
		sessions:     sessions,
		database:     database,
		mediaFs:      mediaFs,
		users:        db.NewUserRepository(repo),
		groups:       db.NewGroupRepository(repo),
		posts:        db.NewPostRepository(repo),
		comments:     db.NewCommentRepository(repo),
		follows:      db.NewFollowRepository(repo),
		flatpages:    db.NewFlatPageRepository(repo),
		passwordHash: hash,
	}
}

func (f *fixture) user(username string) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, PasswordHash: f.passwordHash, IsActive: true}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) staff(username string) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, PasswordHash: f.passwordHash, IsActive: true, IsStaff: true}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) group(title, slug string) *models.Group {
	f.t.Helper()
	g := &models.Group{Title: title, Slug: slug, Description: title + " description"}
	require.NoError(f.t, f.groups.Create(f.ctx, g))
	return g
}

func (f *fixture) post(author *models.User, group *models.Group, text string) *models.Post {
	f.t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(f.t, f.posts.Create(f.ctx, p))
	return p
}

func (f *fixture) url(name string, params ...interface{}) string {
	f.t.Helper()
	u, err := f.router.Routes().Reverse(name, params...)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) do(as *models.User, req *http.Request) *httptest.ResponseRecorder {
	f.t.Helper()
	if as != nil {
		token, err := f.sessions.Issue(as.ID)
		require.NoError(f.t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(as *models.User, target string) *httptest.ResponseRecorder {
	return f.do(as, httptest.NewRequest(http.MethodGet, target, nil))
}

func (f *fixture) postForm(as *models.User, target string, vals url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(as, req)
}

func (f *fixture) postMultipart(as *models.User, target string, vals map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	f.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range vals {
		require.NoError(f.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(f.t, err)
		_, err = io.Copy(part, bytes.NewReader(data))
		require.NoError(f.t, err)
	}
	require.NoError(f.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return f.do(as, req)
}

func (f *fixture) postCount() int64 {
	f.t.Helper()
	n, err := f.posts.Count(f.ctx)
	require.NoError(f.t, err)
	return n
}

func httptestGet(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func newComment(postID, authorID int64, text string) *models.Comment {
	return &models.Comment{PostID: postID, AuthorID: authorID, Text: text}
}
