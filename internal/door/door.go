package door

import (
	"context"
	"sort"

	"github.com/retroline/retroline/internal/chat"
	"github.com/retroline/retroline/internal/mail"
	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/internal/node"
)

// Env carries the session state and shared services a door runs against.
type Env struct {
	NodeID   int
	User     *models.User
	Registry *node.Registry
	Room     *chat.Room
	Mail     *mail.Service
	Rows     int
	Cols     int
}

// Door is an interactive sub-program launched from the menu. Run owns the
// terminal until it returns; the session repaints the menu afterwards.
type Door interface {
	Name() string
	Run(ctx context.Context, io *IO, env *Env) error
}

// Registry maps door names to implementations.
type Registry struct {
	doors map[string]Door
}

// NewRegistry creates an empty door Registry.
func NewRegistry() *Registry {
	return &Registry{doors: make(map[string]Door)}
}

// Register adds a door. A later registration under the same name wins.
func (r *Registry) Register(d Door) {
	r.doors[d.Name()] = d
}

// Get looks a door up by name.
func (r *Registry) Get(name string) (Door, bool) {
	d, ok := r.doors[name]
	return d, ok
}

// Names returns the registered door names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.doors))
	for name := range r.doors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
