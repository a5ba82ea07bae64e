package elements

import "lumen/internal/names"

// ClassFlags encode per-class attributes supplied by the frontend.
type ClassFlags uint8

const (
	// ClassAbstract marks a class that cannot be instantiated directly.
	ClassAbstract ClassFlags = 1 << iota
	// ClassNative marks a class backed by the host platform. Native classes
	// may have unseen native subclasses that are indistinguishable from the
	// class itself at runtime.
	ClassNative
)

// HasFlag returns true if the given flag is set.
func (f ClassFlags) HasFlag(flag ClassFlags) bool {
	return f&flag != 0
}

// Strings returns a slice of textual flag labels.
func (f ClassFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	if f.HasFlag(ClassAbstract) {
		labels = append(labels, "abstract")
	}
	if f.HasFlag(ClassNative) {
		labels = append(labels, "native")
	}
	return labels
}

// Class describes a declared class: its position in the hierarchy and its
// declared members. Instances are arena-owned; refer to them by ClassID.
type Class struct {
	Name       names.ID
	Module     string // snapshot module the class came from
	Flags      ClassFlags
	Superclass ClassID   // NoClassID for a root class
	Interfaces []ClassID // directly implemented interfaces
	Members    []MemberID
}

// IsAbstract reports whether the class is declared abstract.
func (c *Class) IsAbstract() bool { return c.Flags.HasFlag(ClassAbstract) }

// IsNative reports whether the class is backed by the host platform.
func (c *Class) IsNative() bool { return c.Flags.HasFlag(ClassNative) }
