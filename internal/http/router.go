package httpserver

import (
	"net/http"
	"strings"
)

type Params map[string]string

type HandlerFunc func(http.ResponseWriter, *http.Request, Params)

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

// Router matches "/a/:name/b" style patterns. A final "*name" segment
// captures the rest of the path, possibly empty. Requests that match no route
// for their method get MethodNotFound.
type Router struct {
	routes      []route
	middlewares []Middleware
	chain       HandlerFunc
}

func NewRouter() *Router {
	r := &Router{routes: make([]route, 0)}
	r.chain = r.dispatch
	return r
}

func (r *Router) Handle(method string, pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route{
		method:  method,
		pattern: pattern,
		handler: handler,
	})
}

// Use adds middleware that runs for every request, including the ones
// answered by the fallback.
func (r *Router) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
	r.chain = withMiddleware(r.dispatch, r.middlewares...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.chain(w, req, nil)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request, _ Params) {
	for _, rt := range r.routes {
		if rt.method != req.Method {
			continue
		}
		params, ok := matchPattern(rt.pattern, req.URL.Path)
		if !ok {
			continue
		}
		rt.handler(w, req, params)
		return
	}

	MethodNotFound(w, req)
}

// MethodNotFound is the guard for every unknown path and method pair.
func MethodNotFound(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusMethodNotAllowed, "text/plain; charset=utf-8", methodNotFoundBody)
}

func matchPattern(pattern string, path string) (Params, bool) {
	if pattern == path {
		return Params{}, true
	}

	patternSegments := splitPath(pattern)
	pathSegments := splitPath(path)

	params := Params{}
	for i, segment := range patternSegments {
		if strings.HasPrefix(segment, "*") {
			key := strings.TrimPrefix(segment, "*")
			if key == "" || i != len(patternSegments)-1 || len(pathSegments) < i {
				return nil, false
			}
			params[key] = strings.Join(pathSegments[i:], "/")
			return params, true
		}
		if i >= len(pathSegments) {
			return nil, false
		}
		if strings.HasPrefix(segment, ":") {
			key := strings.TrimPrefix(segment, ":")
			if key == "" {
				return nil, false
			}
			params[key] = pathSegments[i]
			continue
		}
		if segment != pathSegments[i] {
			return nil, false
		}
	}
	if len(patternSegments) != len(pathSegments) {
		return nil, false
	}

	return params, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}
