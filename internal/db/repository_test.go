package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/db/dbtest"
	"github.com/yatube/yatube/internal/models"
)

type fixture struct {
	ctx      context.Context
	users    *db.UserRepository
	groups   *db.GroupRepository
	posts    *db.PostRepository
	comments *db.CommentRepository
	follows  *db.FollowRepository
	pages    *db.FlatPageRepository
}

func newFixture(t *testing.T) *fixture {
	repo := db.NewRepository(dbtest.New(t).DB)
	return &fixture{
		ctx:      context.Background(),
		users:    db.NewUserRepository(repo),
		groups:   db.NewGroupRepository(repo),
		posts:    db.NewPostRepository(repo),
		comments: db.NewCommentRepository(repo),
		follows:  db.NewFollowRepository(repo),
		pages:    db.NewFlatPageRepository(repo),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	u := &models.User{Username: name, PasswordHash: "x", IsActive: true}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, f.posts.Create(f.ctx, p))
	return p
}

func TestUserRepository_GetByUsername(t *testing.T) {
	f := newFixture(t)
	created := f.user(t, "leo")

	got, err := f.users.GetByUsername(f.ctx, "leo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.DateJoined.IsZero())

	missing, err := f.users.GetByUsername(f.ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	f := newFixture(t)
	f.user(t, "leo")

	err := f.users.Create(f.ctx, &models.User{Username: "leo", PasswordHash: "x"})
	assert.Error(t, err)
}

func TestUserRepository_CreateKeepsIsActive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(f.ctx, &models.User{Username: "dormant", PasswordHash: "x"}))
	f.user(t, "leo")

	dormant, err := f.users.GetByUsername(f.ctx, "dormant")
	require.NoError(t, err)
	assert.False(t, dormant.IsActive)

	leo, err := f.users.GetByUsername(f.ctx, "leo")
	require.NoError(t, err)
	assert.True(t, leo.IsActive)
}

func TestPostRepository_CreateAssignsPubDate(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "leo")

	p := &models.Post{Text: "hello", AuthorID: author.ID, PubDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, f.posts.Create(f.ctx, p))

	got, err := f.posts.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.PubDate.After(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "leo", got.Author.Username)
}

func TestPostRepository_UpdateKeepsPubDateAndAuthor(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "leo")
	other := f.user(t, "max")
	group := &models.Group{Title: "Cars", Slug: "cars"}
	require.NoError(t, f.groups.Create(f.ctx, group))

	p := f.post(t, author, nil, "before")
	original, err := f.posts.GetByID(f.ctx, p.ID)
	require.NoError(t, err)

	p.Text = "after"
	p.GroupID = &group.ID
	p.AuthorID = other.ID
	p.PubDate = time.Now().Add(time.Hour)
	require.NoError(t, f.posts.Update(f.ctx, p))

	got, err := f.posts.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	require.NotNil(t, got.Group)
	assert.Equal(t, "cars", got.Group.Slug)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, original.PubDate.Equal(got.PubDate))

	p.GroupID = nil
	require.NoError(t, f.posts.Update(f.ctx, p))
	got, err = f.posts.GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
}

func TestPostRepository_GetByAuthorAndID(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "leo")
	f.user(t, "max")
	p := f.post(t, author, nil, "text")

	got, err := f.posts.GetByAuthorAndID(f.ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = f.posts.GetByAuthorAndID(f.ctx, "max", p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostRepository_Feed(t *testing.T) {
	f := newFixture(t)
	reader := f.user(t, "reader")
	followed := f.user(t, "followed")
	stranger := f.user(t, "stranger")

	require.NoError(t, f.follows.GetOrCreate(f.ctx, reader.ID, followed.ID))
	want := f.post(t, followed, nil, "visible")
	f.post(t, stranger, nil, "hidden")

	var posts []models.Post
	require.NoError(t, db.PostListing(f.posts.Feed(f.ctx, reader.ID)).Find(&posts).Error)
	require.Len(t, posts, 1)
	assert.Equal(t, want.ID, posts[0].ID)

	var none []models.Post
	require.NoError(t, f.posts.Feed(f.ctx, stranger.ID).Find(&none).Error)
	assert.Empty(t, none)
}

func TestPostRepository_Search(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "leo")
	f.post(t, author, nil, "About Cars")
	f.post(t, author, nil, "about bikes")

	var posts []models.Post
	require.NoError(t, f.posts.Search(f.ctx, "CARS", db.DateAny, time.Now()).Find(&posts).Error)
	require.Len(t, posts, 1)
	assert.Equal(t, "About Cars", posts[0].Text)

	var recent []models.Post
	require.NoError(t, f.posts.Search(f.ctx, "", db.DateThisYear, time.Now().UTC()).Find(&recent).Error)
	assert.Len(t, recent, 2)
}

func TestDateFilter_Since(t *testing.T) {
	now := time.Date(2024, 5, 17, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		filter   db.DateFilter
		expected time.Time
		ok       bool
	}{
		{db.DateAny, time.Time{}, false},
		{db.DateToday, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), true},
		{db.DatePast7Days, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), true},
		{db.DateThisMonth, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{db.DateThisYear, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{db.DateFilter("bogus"), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got, ok := tt.filter.Since(now)
			if ok != tt.ok || !got.Equal(tt.expected) {
				t.Errorf("Since() = %v, %v, want %v, %v", got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestFollowRepository_GetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "user")
	author := f.user(t, "author")

	require.NoError(t, f.follows.GetOrCreate(f.ctx, user.ID, author.ID))
	require.NoError(t, f.follows.GetOrCreate(f.ctx, user.ID, author.ID))

	n, err := f.follows.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := f.follows.Exists(f.ctx, user.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := f.follows.FollowerCount(f.ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	following, err := f.follows.FollowingCount(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	follow, err := f.follows.Get(f.ctx, user.ID, "author")
	require.NoError(t, err)
	require.NotNil(t, follow)
	require.NoError(t, f.follows.Delete(f.ctx, follow.ID))

	n, err = f.follows.Count(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCascadeDeletes(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author")
	reader := f.user(t, "reader")
	group := &models.Group{Title: "Cars", Slug: "cars"}
	require.NoError(t, f.groups.Create(f.ctx, group))

	inGroup := f.post(t, author, group, "in group")
	require.NoError(t, f.comments.Create(f.ctx, &models.Comment{PostID: inGroup.ID, AuthorID: reader.ID, Text: "c1"}))
	f.post(t, reader, nil, "by reader")

	require.NoError(t, f.groups.Delete(f.ctx, group.ID))
	n, err := f.posts.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "group deletion removes its posts")
	n, err = f.comments.Count(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "comments of removed posts go too")

	require.NoError(t, f.follows.GetOrCreate(f.ctx, author.ID, reader.ID))
	require.NoError(t, f.users.Delete(f.ctx, reader.ID))
	n, err = f.posts.Count(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "author deletion removes their posts")
	n, err = f.follows.Count(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlatPageRepository(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pages.Create(f.ctx, &models.FlatPage{URL: "/about/author/", Title: "Author", Content: "me"}))

	page, err := f.pages.GetByURL(f.ctx, "/about/author/")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "Author", page.Title)

	missing, err := f.pages.GetByURL(f.ctx, "/about/tech/")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
