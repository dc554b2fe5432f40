package web

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Routes registers handlers under a name so that URLs can be built back from the name
type Routes struct {
	paths map[string]string
}

// NewRoutes creates an empty route registry
func NewRoutes() *Routes {
	return &Routes{paths: make(map[string]string)}
}

// Handle registers handlers for every method on group+relativePath and records the full path under name.
// Mounting the same name on another engine is allowed as long as the path does not change.
func (r *Routes) Handle(group *gin.RouterGroup, name string, methods []string, relativePath string, handlers ...gin.HandlerFunc) {
	full := joinPaths(group.BasePath(), relativePath)
	if existing, dup := r.paths[name]; dup && existing != full {
		panic(fmt.Sprintf("route %q registered as %s and %s", name, existing, full))
	}
	for _, m := range methods {
		group.Handle(m, relativePath, handlers...)
	}
	r.paths[name] = full
}

// Reverse builds the path of the named route, filling its parameters in order
func (r *Routes) Reverse(name string, params ...interface{}) (string, error) {
	pattern, ok := r.paths[name]
	if !ok {
		return "", fmt.Errorf("no route named %q", name)
	}

	segments := strings.Split(pattern, "/")
	next := 0
	for i, seg := range segments {
		if seg == "" || (seg[0] != ':' && seg[0] != '*') {
			continue
		}
		if next >= len(params) {
			return "", fmt.Errorf("route %q needs more than %d parameters", name, len(params))
		}
		segments[i] = url.PathEscape(fmt.Sprint(params[next]))
		next++
	}
	if next != len(params) {
		return "", fmt.Errorf("route %q takes %d parameters, got %d", name, next, len(params))
	}
	return strings.Join(segments, "/"), nil
}

// MustReverse is Reverse for names and arities fixed in code
func (r *Routes) MustReverse(name string, params ...interface{}) string {
	u, err := r.Reverse(name, params...)
	if err != nil {
		panic(err)
	}
	return u
}

func joinPaths(base, rel string) string {
	if rel == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + rel
}
