package sim

// Named objects have a name that is unique in a simulation.
type Named interface {
	Name() string
}

// A Component is a named, hookable event handler.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase implements the name and the hooks of a Component.
type ComponentBase struct {
	*HookableBase
	name string
}

// NewComponentBase creates a ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{
		HookableBase: NewHookableBase(),
		name:         name,
	}
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
