package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/middleware"
)

// registry is a concurrency-safe name to handler table.
type registry[H any] struct {
	mu      sync.RWMutex
	entries map[string]H
}

func newRegistry[H any]() *registry[H] {
	return &registry[H]{entries: make(map[string]H)}
}

func (r *registry[H]) set(name string, h H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = h
}

func (r *registry[H]) get(name string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[name]
	return h, ok
}

// Router dispatches commands, callbacks, menu labels and state-aware input.
// Updates matching none of the registries go to the dispatcher, then to the
// default handler.
type Router struct {
	commands  *registry[handlers.Handler]
	callbacks *registry[handlers.CallbackHandler]
	texts     *registry[handlers.Handler]

	dispatcher *Dispatcher
	log        *slog.Logger

	mu             sync.RWMutex
	chain          []handlers.Middleware
	defaultHandler handlers.Handler
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:   newRegistry[handlers.Handler](),
		callbacks:  newRegistry[handlers.CallbackHandler](),
		texts:      newRegistry[handlers.Handler](),
		dispatcher: dispatcher,
		log:        log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/start".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.commands.set(middleware.CommandName(cmd), h)
}

// RegisterCallback registers a handler for a callback namespace such as "calc".
func (r *Router) RegisterCallback(unique string, h handlers.CallbackHandler) {
	r.callbacks.set(unique, h)
}

// RegisterText registers a handler for an exact message text, e.g. a reply
// keyboard label.
func (r *Router) RegisterText(text string, h handlers.Handler) {
	r.texts.set(strings.TrimSpace(text), h)
}

// Use appends a middleware. The first registered middleware runs outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append(r.chain, mw)
}

// SetDefault sets the fallback handler for unmatched input.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.routeCallback(c, callback.Data)
	}
	return r.routeMessage(c)
}

func (r *Router) routeCallback(c telebot.Context, data string) error {
	unique, payload, err := keyboard.DecodeCallback(data)
	if err != nil {
		r.log.Info("malformed callback data", "data", data, "error", err)
		return c.Respond()
	}

	handler, ok := r.callbacks.get(unique)
	if !ok || handler == nil {
		r.log.Info("no callback handler found", "data", data)
		return c.Respond()
	}

	return r.run(c, func(c telebot.Context) error {
		return handler(c, payload)
	})
}

func (r *Router) routeMessage(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())

	if strings.HasPrefix(text, "/") {
		if handler, ok := r.commands.get(middleware.CommandName(text)); ok {
			return r.run(c, handler)
		}
	}
	if handler, ok := r.texts.get(text); ok {
		return r.run(c, handler)
	}

	// The state lookup runs inside the chain so the user is registered and
	// the update deduplicated before the session is read.
	return r.run(c, r.byState)
}

func (r *Router) byState(c telebot.Context) error {
	var handler handlers.Handler
	if r.dispatcher != nil {
		resolved, err := r.dispatcher.Resolve(c)
		if err != nil {
			return err
		}
		handler = resolved
	}

	if handler == nil {
		r.mu.RLock()
		handler = r.defaultHandler
		r.mu.RUnlock()
	}
	if handler == nil {
		return nil
	}
	return handler(c)
}

// run wraps h with the middleware chain and calls it.
func (r *Router) run(c telebot.Context, h handlers.Handler) error {
	if h == nil {
		return nil
	}

	r.mu.RLock()
	chain := append([]handlers.Middleware(nil), r.chain...)
	r.mu.RUnlock()

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	if h == nil {
		return nil
	}
	return h(c)
}
