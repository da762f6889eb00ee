package bot

// Registry holds the ordered command set. Find returns the first handler
// whose predicate accepts the text, so registration order decides which
// command wins when predicates overlap.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends handlers in the given order.
func (r *Registry) Register(handlers ...Handler) {
	r.handlers = append(r.handlers, handlers...)
}

// Find returns the first handler accepting text, or nil when no command
// matches.
func (r *Registry) Find(text string) Handler {
	for _, h := range r.handlers {
		if h.CanHandle(text) {
			return h
		}
	}
	return nil
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	return r.handlers
}
