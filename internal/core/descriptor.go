package core

// Layer describes the architectural slice a component belongs to.
type Layer string

const (
	LayerIngress  Layer = "ingress"
	LayerAdapter  Layer = "adapter"
	LayerEngine   Layer = "engine"
	LayerData     Layer = "data"
	LayerSecurity Layer = "security"
)

// Descriptor advertises a component's placement and capabilities. It is
// optional and does not change runtime behavior, but lets the process
// wiring and documentation reason about modules consistently.
type Descriptor struct {
	Name         string
	Domain       string
	Layer        Layer
	Capabilities []string
}

// WithCapabilities returns a copy of the descriptor with additional
// capabilities appended.
func (d Descriptor) WithCapabilities(caps ...string) Descriptor {
	if len(caps) == 0 {
		return d
	}
	combined := make([]string, 0, len(d.Capabilities)+len(caps))
	combined = append(combined, d.Capabilities...)
	combined = append(combined, caps...)
	d.Capabilities = combined
	return d
}
