package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// flatpage renders the static page stored for /about/<page>/
func (r *Router) flatpage(c *gin.Context) error {
	page, err := r.flatpages.GetByURL(c.Request.Context(), "/about/"+c.Param("page")+"/")
	if err != nil {
		return err
	}
	if page == nil {
		return errNotFound("page")
	}

	c.HTML(http.StatusOK, "flatpages/default.html", r.page(c, gin.H{"Page": page}))
	return nil
}
