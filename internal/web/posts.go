package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/forms"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/paginator"
)

// uploadTo is the media directory post images are stored in
const uploadTo = "posts"

// index lists every post. The post list fragment is served from the
// fragment cache, so new posts show up only once the entry expires.
func (r *Router) index(c *gin.Context) error {
	ctx := c.Request.Context()

	count, err := r.posts.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count posts: %w", err)
	}
	page := paginator.NewPage[models.Post](count, c.Query("page"), r.pageSize)

	key := cache.FragmentKey("index_page", strconv.Itoa(page.Number))
	fragment, err := r.fragments.Render(ctx, key, func() (string, error) {
		if err := page.Load(r.posts.All(ctx), db.PostListing); err != nil {
			return "", err
		}
		return r.renderer.Fragment("posts/index.html", "index_posts", page)
	})
	if err != nil {
		return err
	}

	c.HTML(http.StatusOK, "posts/index.html", r.page(c, gin.H{
		"Page":     page,
		"Fragment": template.HTML(fragment),
	}))
	return nil
}

func (r *Router) groupPosts(c *gin.Context) error {
	ctx := c.Request.Context()

	group, err := r.groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	if group == nil {
		return errNotFound("group")
	}

	page, err := paginator.Paginate[models.Post](r.posts.ByGroup(ctx, group.ID), c.Query("page"), r.pageSize, db.PostListing)
	if err != nil {
		return err
	}

	c.HTML(http.StatusOK, "posts/group.html", r.page(c, gin.H{
		"Group": group,
		"Page":  page,
	}))
	return nil
}

func (r *Router) profile(c *gin.Context) error {
	ctx := c.Request.Context()

	author, err := r.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return err
	}
	if author == nil {
		return errNotFound("user")
	}

	page, err := paginator.Paginate[models.Post](r.posts.ByAuthor(ctx, author.ID), c.Query("page"), r.pageSize, db.PostListing)
	if err != nil {
		return err
	}

	data, err := r.authorCard(ctx, auth.CurrentUser(c), author)
	if err != nil {
		return err
	}
	data["Page"] = page
	c.HTML(http.StatusOK, "posts/profile.html", r.page(c, data))
	return nil
}

// authorCard collects the counters shown next to an author's posts
func (r *Router) authorCard(ctx context.Context, viewer, author *models.User) (gin.H, error) {
	postCount, err := r.posts.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	followers, err := r.follows.FollowerCount(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	following, err := r.follows.FollowingCount(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewer != nil {
		if isFollowing, err = r.follows.Exists(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}

	return gin.H{
		"Author":         author,
		"PostCount":      postCount,
		"Followers":      followers,
		"FollowingCount": following,
		"Following":      isFollowing,
	}, nil
}

// lookupPost loads the post named by the URL, which must belong to the URL's username
func (r *Router) lookupPost(c *gin.Context) (*models.Post, error) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		return nil, errNotFound("post")
	}
	post, err := r.posts.GetByAuthorAndID(c.Request.Context(), c.Param("username"), id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errNotFound("post")
	}
	return post, nil
}

func (r *Router) postView(c *gin.Context) error {
	ctx := c.Request.Context()

	post, err := r.lookupPost(c)
	if err != nil {
		return err
	}

	comments, err := paginator.Paginate[models.Comment](r.comments.ForPost(ctx, post.ID), c.Query("page"), r.pageSize, db.CommentListing)
	if err != nil {
		return err
	}

	data, err := r.authorCard(ctx, auth.CurrentUser(c), post.Author)
	if err != nil {
		return err
	}
	data["Post"] = post
	data["Comments"] = comments
	data["CommentForm"] = forms.NewCommentForm()
	c.HTML(http.StatusOK, "posts/post.html", r.page(c, data))
	return nil
}

func (r *Router) newPost(c *gin.Context) error {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	groups, err := r.groups.List(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(groups, nil)

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		post := &models.Post{AuthorID: user.ID}
		form.Apply(post)
		if form.Upload != nil {
			if post.Image, err = r.saveUpload(form.Upload); err != nil {
				return err
			}
		}
		if err := r.posts.Create(ctx, post); err != nil {
			r.removeUpload(post.Image)
			return fmt.Errorf("failed to create post: %w", err)
		}
		return r.redirect(c, "index")
	}

	c.HTML(http.StatusOK, "posts/new_post.html", r.page(c, gin.H{
		"Form":   form,
		"Action": r.routes.MustReverse("new_post"),
	}))
	return nil
}

func (r *Router) postEdit(c *gin.Context) error {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	post, err := r.lookupPost(c)
	if err != nil {
		return err
	}
	if post.AuthorID != user.ID {
		return r.redirect(c, "post", post.Author.Username, post.ID)
	}

	groups, err := r.groups.List(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(groups, post)
	if post.Image != "" {
		form.CurrentImage = r.media.URL(post.Image)
	}

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		form.Apply(post)
		oldImage := post.Image
		switch {
		case form.Upload != nil:
			if post.Image, err = r.saveUpload(form.Upload); err != nil {
				return err
			}
		case form.ClearImage():
			post.Image = ""
		}
		if err := r.posts.Update(ctx, post); err != nil {
			return fmt.Errorf("failed to update post %d: %w", post.ID, err)
		}
		if oldImage != "" && oldImage != post.Image {
			r.removeUpload(oldImage)
		}
		return r.redirect(c, "post", post.Author.Username, post.ID)
	}

	c.HTML(http.StatusOK, "posts/new_post.html", r.page(c, gin.H{
		"Form":   form,
		"Post":   post,
		"Action": r.routes.MustReverse("post_edit", post.Author.Username, post.ID),
	}))
	return nil
}

func (r *Router) addComment(c *gin.Context) error {
	post, err := r.lookupPost(c)
	if err != nil {
		return err
	}

	form := forms.NewCommentForm()
	if c.Request.Method == http.MethodPost && form.Bind(c) {
		comment := &models.Comment{
			PostID:   post.ID,
			AuthorID: auth.CurrentUser(c).ID,
			Text:     form.Text,
		}
		if err := r.comments.Create(c.Request.Context(), comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}
	return r.redirect(c, "post", post.Author.Username, post.ID)
}

func (r *Router) saveUpload(upload *forms.Upload) (string, error) {
	name, err := r.media.Save(uploadTo, upload.Filename, bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return name, nil
}

// removeUpload deletes a replaced image; failures only cost disk space
func (r *Router) removeUpload(name string) {
	if err := r.media.Delete(name); err != nil {
		r.logger.Warn("failed to delete image", zap.String("image", name), zap.Error(err))
	}
}
