package paginator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/db/dbtest"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/paginator"
)

func TestNumPages(t *testing.T) {
	tests := []struct {
		count    int64
		size     int
		expected int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.count, tt.size), func(t *testing.T) {
			if got := paginator.NumPages(tt.count, tt.size); got != tt.expected {
				t.Errorf("NumPages(%d, %d) = %d, want %d", tt.count, tt.size, got, tt.expected)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 3},
		{"-3", 3},
		{"2", 2},
		{"3", 3},
		{"99", 3},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := paginator.Resolve(tt.raw, 3); got != tt.expected {
				t.Errorf("Resolve(%q, 3) = %d, want %d", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	repo := db.NewRepository(dbtest.New(t).DB)
	users := db.NewUserRepository(repo)
	posts := db.NewPostRepository(repo)

	author := &models.User{Username: "leo", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, author))
	for i := 0; i < 13; i++ {
		require.NoError(t, posts.Create(ctx, &models.Post{Text: fmt.Sprintf("post %d", i), AuthorID: author.ID}))
	}

	first, err := paginator.Paginate[models.Post](posts.All(ctx), "", 10, db.PostListing)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, first.NumPages)
	assert.Equal(t, int64(13), first.Count)
	require.Len(t, first.Items, 10)
	assert.Equal(t, "post 12", first.Items[0].Text, "newest first")
	assert.Equal(t, "leo", first.Items[0].Author.Username)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, []int{1, 2}, first.PageRange())

	last, err := paginator.Paginate[models.Post](posts.All(ctx), "7", 10, db.PostListing)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Number)
	assert.Len(t, last.Items, 3)
	assert.Equal(t, "post 0", last.Items[2].Text)
	assert.Equal(t, int64(11), last.StartIndex())
}

func TestPaginate_Empty(t *testing.T) {
	ctx := context.Background()
	posts := db.NewPostRepository(db.NewRepository(dbtest.New(t).DB))

	page, err := paginator.Paginate[models.Post](posts.All(ctx), "5", 10, db.PostListing)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasOtherPages())
}

func TestNewPage(t *testing.T) {
	page := paginator.NewPage[models.Post](25, "3", 10)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 3, page.NumPages)
	assert.True(t, page.HasPrevious())
	assert.False(t, page.HasNext())
	assert.Equal(t, 2, page.PreviousNumber())
	assert.Nil(t, page.Items, "items are loaded separately")

	defaulted := paginator.NewPage[models.Post](5, "", 0)
	assert.Equal(t, paginator.DefaultPageSize, defaulted.PageSize)
}
