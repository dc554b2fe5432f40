package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/forms"
	"github.com/yatube/yatube/internal/models"
)

func (r *Router) signup(c *gin.Context) error {
	ctx := c.Request.Context()
	form := forms.NewSignupForm()

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		existing, err := r.users.GetByUsername(ctx, form.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			form.Errors.Add("username", forms.MsgUsernameTaken)
		} else {
			hash, err := auth.HashPassword(form.Password1)
			if err != nil {
				return err
			}
			user := &models.User{
				Username:     form.Username,
				FirstName:    form.FirstName,
				LastName:     form.LastName,
				Email:        form.Email,
				PasswordHash: hash,
				IsActive:     true,
			}
			if err := r.users.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			r.logger.Info("user signed up", zap.String("username", user.Username))

			if err := r.sessions.Login(c, user.ID); err != nil {
				return err
			}
			auth.SetUser(c, user)
			return r.redirect(c, "index")
		}
	}

	c.HTML(http.StatusOK, "auth/signup.html", r.page(c, gin.H{"Form": form}))
	return nil
}

func (r *Router) login(c *gin.Context) error {
	ctx := c.Request.Context()
	form := forms.NewLoginForm(c.Query("next"))

	if c.Request.Method == http.MethodPost && form.Bind(c) {
		user, err := r.users.GetByUsername(ctx, form.Username)
		if err != nil {
			return err
		}

		ok := false
		if user != nil && user.IsActive {
			if ok, err = auth.CheckPassword(user.PasswordHash, form.Password); err != nil {
				return err
			}
		}
		if ok {
			if err := r.sessions.Login(c, user.ID); err != nil {
				return err
			}
			auth.SetUser(c, user)
			c.Redirect(http.StatusFound, auth.SafeNext(form.Next, r.routes.MustReverse("index")))
			return nil
		}
		form.Errors.Add("", forms.MsgBadLogin)
	}

	c.HTML(http.StatusOK, "auth/login.html", r.page(c, gin.H{"Form": form}))
	return nil
}

func (r *Router) logout(c *gin.Context) error {
	r.sessions.Logout(c)
	return r.redirect(c, "index")
}
