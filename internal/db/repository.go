package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yatube/yatube/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// first loads a single row, mapping "not found" to a nil error and ok=false
func first(q *gorm.DB, dest interface{}) (bool, error) {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	ok, err := first(r.db.WithContext(ctx).Where("id = ?", id), &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	ok, err := first(r.db.WithContext(ctx).Where("username = ?", username), &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// UserListing orders users by username
func UserListing(q *gorm.DB) *gorm.DB {
	return q.Order("users.username")
}

// All returns a query over every user
func (r *UserRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

// Delete removes a user together with their posts, comments and follows
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("post_id IN (?) OR author_id = ?", postIDs, id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("failed to delete posts: %w", err)
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("failed to delete follows: %w", err)
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

// GroupRepository provides group-related database operations
type GroupRepository struct {
	*Repository
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(repo *Repository) *GroupRepository {
	return &GroupRepository{Repository: repo}
}

// GetBySlug retrieves a group by slug
func (r *GroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	ok, err := first(r.db.WithContext(ctx).Where("slug = ?", slug), &group)
	if err != nil || !ok {
		return nil, err
	}
	return &group, nil
}

// List returns all groups ordered by title
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error
	return groups, err
}

// GroupListing orders groups by title
func GroupListing(q *gorm.DB) *gorm.DB {
	return q.Order("post_groups.title, post_groups.id")
}

// All returns a query over every group
func (r *GroupRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Group{})
}

// Create creates a new group
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// Count returns the number of groups
func (r *GroupRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Group{}).Count(&n).Error
	return n, err
}

// Delete removes a group and every post published in it
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&models.Post{}).Select("id").Where("group_id = ?", id)
		if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("failed to delete posts: %w", err)
		}
		return tx.Delete(&models.Group{}, id).Error
	})
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// PostListing preloads author and group and orders posts newest first.
// Apply it when fetching a page, not when counting.
func PostListing(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Group").Order(models.PostOrder)
}

func (r *PostRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Post{})
}

// All returns a query over every post
func (r *PostRepository) All(ctx context.Context) *gorm.DB {
	return r.base(ctx)
}

// ByGroup returns a query over the posts of one group
func (r *PostRepository) ByGroup(ctx context.Context, groupID int64) *gorm.DB {
	return r.base(ctx).Where("posts.group_id = ?", groupID)
}

// ByAuthor returns a query over the posts of one author
func (r *PostRepository) ByAuthor(ctx context.Context, authorID int64) *gorm.DB {
	return r.base(ctx).Where("posts.author_id = ?", authorID)
}

// Feed returns a query over the posts of every author userID follows
func (r *PostRepository) Feed(ctx context.Context, userID int64) *gorm.DB {
	following := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	return r.base(ctx).Where("posts.author_id IN (?)", following)
}

// GetByID retrieves a post by ID with author and group
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	ok, err := first(PostListing(r.base(ctx)).Where("posts.id = ?", id), &post)
	if err != nil || !ok {
		return nil, err
	}
	return &post, nil
}

// GetByAuthorAndID retrieves a post only if it was written by username
func (r *PostRepository) GetByAuthorAndID(ctx context.Context, username string, id int64) (*models.Post, error) {
	var post models.Post
	q := PostListing(r.base(ctx)).
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id = ? AND users.username = ?", id, username)
	ok, err := first(q, &post)
	if err != nil || !ok {
		return nil, err
	}
	return &post, nil
}

// Create creates a new post. PubDate is assigned by the database layer.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.PubDate = time.Time{}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update writes the editable fields of a post; author and pub_date are never touched
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
}

// Count returns the number of posts
func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}

// CountByAuthor returns the number of posts written by authorID
func (r *PostRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// Delete removes a post and its comments
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// DateFilter narrows the admin post list by pub_date
type DateFilter string

const (
	DateAny       DateFilter = ""
	DateToday     DateFilter = "today"
	DatePast7Days DateFilter = "past_7_days"
	DateThisMonth DateFilter = "this_month"
	DateThisYear  DateFilter = "this_year"
)

// Since returns the lower pub_date bound for the filter relative to now
func (f DateFilter) Since(now time.Time) (time.Time, bool) {
	y, m, d := now.Date()
	loc := now.Location()
	switch f {
	case DateToday:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case DatePast7Days:
		return time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -7), true
	case DateThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), true
	case DateThisYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// Search returns a query for the admin post list
func (r *PostRepository) Search(ctx context.Context, text string, filter DateFilter, now time.Time) *gorm.DB {
	q := r.base(ctx)
	if text = strings.TrimSpace(text); text != "" {
		q = q.Where("LOWER(posts.text) LIKE ?", "%"+strings.ToLower(text)+"%")
	}
	if since, ok := filter.Since(now); ok {
		q = q.Where("posts.pub_date >= ?", since)
	}
	return q
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// CommentListing preloads author and post and orders comments newest first
func CommentListing(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Post").Order(models.CommentOrder)
}

// ForPost returns a query over the comments of a post
func (r *CommentRepository) ForPost(ctx context.Context, postID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("comments.post_id = ?", postID)
}

// All returns a query over every comment
func (r *CommentRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Comment{})
}

// Create creates a new comment. Created is assigned by the database layer.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.Created = time.Time{}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// Count returns the number of comments
func (r *CommentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error
	return n, err
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}

// FollowRepository provides follow-related database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// GetOrCreate subscribes userID to authorID. Repeated calls are no-ops.
func (r *FollowRepository) GetOrCreate(ctx context.Context, userID, authorID int64) error {
	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(follow).Error
}

// Get retrieves the follow of userID to the author named username
func (r *FollowRepository) Get(ctx context.Context, userID int64, username string) (*models.Follow, error) {
	var follow models.Follow
	q := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = follows.author_id").
		Where("follows.user_id = ? AND users.username = ?", userID, username)
	ok, err := first(q, &follow)
	if err != nil || !ok {
		return nil, err
	}
	return &follow, nil
}

// Exists reports whether userID follows authorID
func (r *FollowRepository) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	return n > 0, err
}

// FollowerCount returns how many users follow authorID
func (r *FollowRepository) FollowerCount(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// FollowingCount returns how many authors userID follows
func (r *FollowRepository) FollowingCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// FollowListing preloads both users and orders follows newest first
func FollowListing(q *gorm.DB) *gorm.DB {
	return q.Preload("User").Preload("Author").Order("follows.id DESC")
}

// All returns a query over every follow
func (r *FollowRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Follow{})
}

// Count returns the number of follows
func (r *FollowRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Count(&n).Error
	return n, err
}

// Delete removes a follow by ID
func (r *FollowRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Follow{}, id).Error
}

// FlatPageRepository provides flat page database operations
type FlatPageRepository struct {
	*Repository
}

// NewFlatPageRepository creates a new flat page repository
func NewFlatPageRepository(repo *Repository) *FlatPageRepository {
	return &FlatPageRepository{Repository: repo}
}

// GetByURL retrieves a page by its URL, e.g. "/about/author/"
func (r *FlatPageRepository) GetByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	var page models.FlatPage
	ok, err := first(r.db.WithContext(ctx).Where("url = ?", url), &page)
	if err != nil || !ok {
		return nil, err
	}
	return &page, nil
}

// List returns every flat page ordered by URL
func (r *FlatPageRepository) List(ctx context.Context) ([]models.FlatPage, error) {
	var pages []models.FlatPage
	err := r.db.WithContext(ctx).Order("url ASC").Find(&pages).Error
	return pages, err
}

// FlatPageListing orders flat pages by URL
func FlatPageListing(q *gorm.DB) *gorm.DB {
	return q.Order("flatpages.url")
}

// All returns a query over every flat page
func (r *FlatPageRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.FlatPage{})
}

// Create creates a new flat page
func (r *FlatPageRepository) Create(ctx context.Context, page *models.FlatPage) error {
	return r.db.WithContext(ctx).Create(page).Error
}

// Delete removes a flat page
func (r *FlatPageRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.FlatPage{}, id).Error
}
