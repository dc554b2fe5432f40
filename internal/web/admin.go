package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/db"
	"github.com/yatube/yatube/internal/forms"
	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/paginator"
)

// adminPageSize is the number of rows per admin list page
const adminPageSize = 100

const adminDate = "2006-01-02 15:04"

type adminModel struct {
	Name   string
	URL    string
	AddURL string
	Count  int64
}

type adminRow struct {
	Cells     []string
	DeleteURL string
}

type adminFilter struct {
	Label  string
	Link   string
	Active bool
}

// registerAdmin registers the back office routes on a staff-only group
func (r *Router) registerAdmin(g *gin.RouterGroup) {
	rt := r.routes
	rt.Handle(g, "admin_index", methodsGet, "/", r.handle(r.adminIndex))

	rt.Handle(g, "admin_posts", methodsGet, "/posts/", r.handle(r.adminPosts))
	rt.Handle(g, "admin_post_delete", methodsPost, "/posts/:id/delete/", r.handle(r.adminDelete("admin_posts", r.posts.Delete)))

	rt.Handle(g, "admin_groups", methodsGet, "/groups/", r.handle(r.adminGroups))
	rt.Handle(g, "admin_group_add", methodsGetPost, "/groups/add/", r.handle(r.adminGroupAdd))
	rt.Handle(g, "admin_group_delete", methodsPost, "/groups/:id/delete/", r.handle(r.adminDelete("admin_groups", r.groups.Delete)))

	rt.Handle(g, "admin_comments", methodsGet, "/comments/", r.handle(r.adminComments))
	rt.Handle(g, "admin_comment_delete", methodsPost, "/comments/:id/delete/", r.handle(r.adminDelete("admin_comments", r.comments.Delete)))

	rt.Handle(g, "admin_follows", methodsGet, "/follows/", r.handle(r.adminFollows))
	rt.Handle(g, "admin_follow_delete", methodsPost, "/follows/:id/delete/", r.handle(r.adminDelete("admin_follows", r.follows.Delete)))

	rt.Handle(g, "admin_users", methodsGet, "/users/", r.handle(r.adminUsers))
	rt.Handle(g, "admin_user_delete", methodsPost, "/users/:id/delete/", r.handle(r.adminDelete("admin_users", r.users.Delete)))

	rt.Handle(g, "admin_flatpages", methodsGet, "/flatpages/", r.handle(r.adminFlatPages))
	rt.Handle(g, "admin_flatpage_add", methodsGetPost, "/flatpages/add/", r.handle(r.adminFlatPageAdd))
	rt.Handle(g, "admin_flatpage_delete", methodsPost, "/flatpages/:id/delete/", r.handle(r.adminDelete("admin_flatpages", r.flatpages.Delete)))
}

func (r *Router) adminIndex(c *gin.Context) error {
	ctx := c.Request.Context()
	rt := r.routes

	counters := []struct {
		name, list, add string
		count           func(context.Context) (int64, error)
	}{
		{"Users", "admin_users", "", r.users.Count},
		{"Groups", "admin_groups", "admin_group_add", r.groups.Count},
		{"Posts", "admin_posts", "", r.posts.Count},
		{"Comments", "admin_comments", "", r.comments.Count},
		{"Follows", "admin_follows", "", r.follows.Count},
		{"Flat pages", "admin_flatpages", "admin_flatpage_add", func(ctx context.Context) (int64, error) {
			var n int64
			err := r.flatpages.All(ctx).Count(&n).Error
			return n, err
		}},
	}

	var entries []adminModel
	for _, m := range counters {
		n, err := m.count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", m.name, err)
		}
		entry := adminModel{Name: m.name, URL: rt.MustReverse(m.list), Count: n}
		if m.add != "" {
			entry.AddURL = rt.MustReverse(m.add)
		}
		entries = append(entries, entry)
	}

	c.HTML(http.StatusOK, "admin/index.html", r.page(c, gin.H{"Models": entries}))
	return nil
}

// adminDelete removes the row named by :id and returns to the list
func (r *Router) adminDelete(list string, remove func(context.Context, int64) error) handlerFunc {
	return func(c *gin.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return errNotFound("object")
		}
		if err := remove(c.Request.Context(), id); err != nil {
			return fmt.Errorf("failed to delete %d from %s: %w", id, list, err)
		}
		r.logger.Info("admin delete",
			zap.String("list", list),
			zap.Int64("id", id),
			zap.String("by", auth.CurrentUser(c).Username))
		return r.redirect(c, list)
	}
}

// renderAdminList renders one admin changelist page
func (r *Router) renderAdminList(c *gin.Context, title string, columns []string, page any, rows []adminRow, extra gin.H) {
	data := gin.H{
		"Title":   title,
		"Columns": columns,
		"Page":    page,
		"Rows":    rows,
	}
	for k, v := range extra {
		data[k] = v
	}
	c.HTML(http.StatusOK, "admin/list.html", r.page(c, data))
}

func (r *Router) adminPosts(c *gin.Context) error {
	ctx := c.Request.Context()
	search := c.Query("q")
	filter := db.DateFilter(c.Query("pub_date"))

	q := r.posts.Search(ctx, search, filter, r.now().UTC())
	page, err := paginator.Paginate[models.Post](q, c.Query("page"), adminPageSize, db.PostListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, p := range page.Items {
		author := ""
		if p.Author != nil {
			author = p.Author.Username
		}
		rows = append(rows, adminRow{
			Cells:     []string{strconv.FormatInt(p.ID, 10), p.Text, p.PubDate.Format(adminDate), author},
			DeleteURL: r.routes.MustReverse("admin_post_delete", p.ID),
		})
	}

	query := url.Values{}
	if search != "" {
		query.Set("q", search)
	}
	if filter != db.DateAny {
		query.Set("pub_date", string(filter))
	}

	options := []struct {
		label  string
		filter db.DateFilter
	}{
		{"Any date", db.DateAny},
		{"Today", db.DateToday},
		{"Past 7 days", db.DatePast7Days},
		{"This month", db.DateThisMonth},
		{"This year", db.DateThisYear},
	}
	filters := make([]adminFilter, 0, len(options))
	for _, o := range options {
		link := url.Values{}
		if search != "" {
			link.Set("q", search)
		}
		if o.filter != db.DateAny {
			link.Set("pub_date", string(o.filter))
		}
		filters = append(filters, adminFilter{Label: o.label, Link: "?" + link.Encode(), Active: o.filter == filter})
	}

	r.renderAdminList(c, "Posts", []string{"ID", "Text", "Publication date", "Author"}, page, rows, gin.H{
		"Searchable": true,
		"Search":     search,
		"DateFilter": string(filter),
		"Filters":    filters,
		"Query":      query,
	})
	return nil
}

func (r *Router) adminGroups(c *gin.Context) error {
	page, err := paginator.Paginate[models.Group](r.groups.All(c.Request.Context()), c.Query("page"), adminPageSize, db.GroupListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, g := range page.Items {
		rows = append(rows, adminRow{
			Cells:     []string{strconv.FormatInt(g.ID, 10), g.Title, g.Slug, g.Description},
			DeleteURL: r.routes.MustReverse("admin_group_delete", g.ID),
		})
	}

	r.renderAdminList(c, "Groups", []string{"ID", "Title", "Slug", "Description"}, page, rows, gin.H{
		"AddURL": r.routes.MustReverse("admin_group_add"),
	})
	return nil
}

func (r *Router) adminGroupAdd(c *gin.Context) error {
	ctx := c.Request.Context()
	form := forms.NewGroupForm()

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		existing, err := r.groups.GetBySlug(ctx, form.Slug)
		if err != nil {
			return err
		}
		if existing != nil {
			form.Errors.Add("slug", "Group with this Slug already exists.")
		} else {
			group := &models.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
			if err := r.groups.Create(ctx, group); err != nil {
				return fmt.Errorf("failed to create group: %w", err)
			}
			return r.redirect(c, "admin_groups")
		}
	}

	c.HTML(http.StatusOK, "admin/form.html", r.page(c, gin.H{
		"Title":   "Add group",
		"Form":    form,
		"Action":  r.routes.MustReverse("admin_group_add"),
		"ListURL": r.routes.MustReverse("admin_groups"),
	}))
	return nil
}

func (r *Router) adminComments(c *gin.Context) error {
	page, err := paginator.Paginate[models.Comment](r.comments.All(c.Request.Context()), c.Query("page"), adminPageSize, db.CommentListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, cm := range page.Items {
		post, author := "", ""
		if cm.Post != nil {
			post = cm.Post.String()
		}
		if cm.Author != nil {
			author = cm.Author.Username
		}
		rows = append(rows, adminRow{
			Cells:     []string{strconv.FormatInt(cm.ID, 10), post, author, cm.Text, cm.Created.Format(adminDate)},
			DeleteURL: r.routes.MustReverse("admin_comment_delete", cm.ID),
		})
	}

	r.renderAdminList(c, "Comments", []string{"ID", "Post", "Author", "Text", "Created"}, page, rows, nil)
	return nil
}

func (r *Router) adminFollows(c *gin.Context) error {
	page, err := paginator.Paginate[models.Follow](r.follows.All(c.Request.Context()), c.Query("page"), adminPageSize, db.FollowListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, f := range page.Items {
		user, author := "", ""
		if f.User != nil {
			user = f.User.Username
		}
		if f.Author != nil {
			author = f.Author.Username
		}
		rows = append(rows, adminRow{
			Cells:     []string{strconv.FormatInt(f.ID, 10), user, author},
			DeleteURL: r.routes.MustReverse("admin_follow_delete", f.ID),
		})
	}

	r.renderAdminList(c, "Follows", []string{"ID", "User", "Author"}, page, rows, nil)
	return nil
}

func (r *Router) adminUsers(c *gin.Context) error {
	page, err := paginator.Paginate[models.User](r.users.All(c.Request.Context()), c.Query("page"), adminPageSize, db.UserListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, u := range page.Items {
		rows = append(rows, adminRow{
			Cells: []string{
				strconv.FormatInt(u.ID, 10), u.Username, u.Email, u.FirstName, u.LastName,
				strconv.FormatBool(u.IsStaff),
			},
			DeleteURL: r.routes.MustReverse("admin_user_delete", u.ID),
		})
	}

	r.renderAdminList(c, "Users", []string{"ID", "Username", "Email", "First name", "Last name", "Staff"}, page, rows, nil)
	return nil
}

func (r *Router) adminFlatPages(c *gin.Context) error {
	page, err := paginator.Paginate[models.FlatPage](r.flatpages.All(c.Request.Context()), c.Query("page"), adminPageSize, db.FlatPageListing)
	if err != nil {
		return err
	}

	rows := make([]adminRow, 0, len(page.Items))
	for _, p := range page.Items {
		rows = append(rows, adminRow{
			Cells:     []string{p.URL, p.Title},
			DeleteURL: r.routes.MustReverse("admin_flatpage_delete", p.ID),
		})
	}

	r.renderAdminList(c, "Flat pages", []string{"URL", "Title"}, page, rows, gin.H{
		"AddURL": r.routes.MustReverse("admin_flatpage_add"),
	})
	return nil
}

func (r *Router) adminFlatPageAdd(c *gin.Context) error {
	ctx := c.Request.Context()
	form := forms.NewFlatPageForm()

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		existing, err := r.flatpages.GetByURL(ctx, form.URL)
		if err != nil {
			return err
		}
		if existing != nil {
			form.Errors.Add("url", "Flat page with this URL already exists.")
		} else {
			page := &models.FlatPage{URL: form.URL, Title: form.Title, Content: form.Content}
			if err := r.flatpages.Create(ctx, page); err != nil {
				return fmt.Errorf("failed to create flat page: %w", err)
			}
			return r.redirect(c, "admin_flatpages")
		}
	}

	c.HTML(http.StatusOK, "admin/form.html", r.page(c, gin.H{
		"Title":   "Add flat page",
		"Form":    form,
		"Action":  r.routes.MustReverse("admin_flatpage_add"),
		"ListURL": r.routes.MustReverse("admin_flatpages"),
	}))
	return nil
}
