// Package traits contains small, embeddable structs that implement the
// straightforward, boilerplate parts of the Command and Subsystem contracts,
// the way github.com/purpleidea/mgmt's engine/traits package does for its
// resources. Embed these instead of re-implementing Name/Requirements by
// hand in every user-authored command or subsystem.
package traits

// Named implements the Name()/SetName() half of a contract. It should be
// embedded by both command and subsystem base structs.
type Named struct {
	name string
}

// Name returns the stable, human-readable identifier. If SetName was never
// called, it's the empty string and the embedder is expected to fall back to
// something like its Go type name.
func (obj *Named) Name() string {
	return obj.name
}

// SetName sets the identifier. Intended to be called once, from the
// embedding type's constructor.
func (obj *Named) SetName(name string) {
	obj.name = name
}
