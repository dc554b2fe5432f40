package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/paginator"
)

// followIndex lists posts by the authors the current user follows
func (r *Router) followIndex(c *gin.Context) error {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	page, err := paginator.Paginate[models.Post](r.posts.Feed(ctx, user.ID), c.Query("page"), r.pageSize, db.PostListing)
	if err != nil {
		return err
	}

	c.HTML(http.StatusOK, "posts/follow.html", r.page(c, gin.H{"Page": page}))
	return nil
}

func (r *Router) profileFollow(c *gin.Context) error {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	author, err := r.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return err
	}
	if author == nil {
		return errNotFound("user")
	}

	if author.ID != user.ID {
		if err := r.follows.GetOrCreate(ctx, user.ID, author.ID); err != nil {
			return fmt.Errorf("failed to follow %s: %w", author.Username, err)
		}
	}
	return r.redirectBack(c)
}

func (r *Router) profileUnfollow(c *gin.Context) error {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	follow, err := r.follows.Get(ctx, user.ID, c.Param("username"))
	if err != nil {
		return err
	}
	if follow == nil {
		return errNotFound("follow")
	}

	if err := r.follows.Delete(ctx, follow.ID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return r.redirectBack(c)
}

// redirectBack returns to the referring page of this site, or to the index
func (r *Router) redirectBack(c *gin.Context) error {
	if ref := c.GetHeader("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == c.Request.Host) {
			c.Redirect(http.StatusFound, auth.SafeNext(u.RequestURI(), "/"))
			return nil
		}
	}
	return r.redirect(c, "index")
}
