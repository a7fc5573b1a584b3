package router

import (
	"sync"

	"github.com/rs/zerolog"
)

const maxHops = 8

// Teardowns is the session hook the navigator listens on.
type Teardowns interface {
	OnTeardown(fn func(reason string))
}

// Navigator tracks the current screen. It re-runs the guard on every
// navigation and follows redirects until a screen renders.
type Navigator struct {
	guard *Guard
	log   zerolog.Logger

	mu        sync.Mutex
	current   Decision
	listeners []func(Decision)
}

func NewNavigator(g *Guard, sess Teardowns, log zerolog.Logger) *Navigator {
	n := &Navigator{guard: g, log: log.With().Str("component", "router").Logger()}
	sess.OnTeardown(func(reason string) {
		r := g.routes[Login]
		n.set(Decision{Kind: Render, Path: Login, Route: r})
		n.log.Info().Str("reason", reason).Msg("session ended, back to login")
	})
	return n
}

func (n *Navigator) Current() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// OnChange registers fn to run whenever the current screen changes.
func (n *Navigator) OnChange(fn func(Decision)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Navigate goes to p and returns where it ended up. A redirect chain that
// does not settle is reported as not found.
func (n *Navigator) Navigate(p string) Decision {
	d := n.guard.Resolve(p)
	for hops := 0; d.Kind == Redirect; hops++ {
		if hops == maxHops {
			n.log.Error().Str("path", p).Msg("redirect loop")
			d = Decision{Kind: NotFound, Path: Clean(p)}
			break
		}
		n.log.Debug().Str("from", d.Path).Str("to", d.Target).Msg("redirect")
		d = n.guard.Resolve(d.Target)
	}
	n.set(d)
	return d
}

// Refresh re-evaluates the current path, for use after the auth state
// settles.
func (n *Navigator) Refresh() Decision {
	p := n.Current().Path
	if p == "" {
		p = Root
	}
	return n.Navigate(p)
}

func (n *Navigator) set(d Decision) {
	n.mu.Lock()
	n.current = d
	listeners := append([]func(Decision){}, n.listeners...)
	n.mu.Unlock()
	for _, fn := range listeners {
		fn(d)
	}
}
