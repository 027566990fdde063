package site

import (
	"context"
	"sort"

	"github.com/muurk/segclock/internal/logging"
	"github.com/muurk/segclock/internal/protocol"
	"go.uber.org/zap"
)

// HandlerFunc answers one request.
type HandlerFunc func(ctx context.Context, req *protocol.Request) *protocol.Response

type routeKey struct {
	method   protocol.Method
	resource string
}

// Router dispatches on the exact (method, resource) pair. Anything without a
// route gets an empty 404.
type Router struct {
	routes map[routeKey]HandlerFunc
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{routes: make(map[routeKey]HandlerFunc)}
}

// Handle registers h for method and resource, replacing any earlier handler.
func (r *Router) Handle(method protocol.Method, resource string, h HandlerFunc) {
	r.routes[routeKey{method: method, resource: resource}] = h
}

// Dispatch implements server.Dispatcher.
func (r *Router) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	h, ok := r.routes[routeKey{method: req.Method, resource: req.Resource}]
	if !ok {
		logging.Debug("No route for request",
			zap.String("method", req.Method.String()),
			zap.String("resource", req.Resource),
		)
		return protocol.NotFound()
	}
	if resp := h(ctx, req); resp != nil {
		return resp
	}
	return protocol.NotFound()
}

// Routes lists the registered routes as "METHOD /resource", sorted.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for k := range r.routes {
		out = append(out, k.method.String()+" "+k.resource)
	}
	sort.Strings(out)
	return out
}
