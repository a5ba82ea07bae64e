package elements

import (
	"fmt"

	"fortio.org/safecast"
)

// Classes stores all allocated classes in a compact slice-based arena.
type Classes struct {
	data []Class
}

// NewClasses creates an arena with optional capacity hint.
func NewClasses(capacity uint32) *Classes {
	if capacity == 0 {
		capacity = 32
	}
	return &Classes{
		data: make([]Class, 1, capacity+1), // index 0 reserved for NoClassID
	}
}

// New allocates a class and returns its ID.
func (c *Classes) New(cls *Class) ClassID {
	if cls == nil {
		panic("elements: nil class")
	}
	value, err := safecast.Conv[uint32](len(c.data))
	if err != nil {
		panic(fmt.Errorf("class arena overflow: %w", err))
	}
	id := ClassID(value)
	c.data = append(c.data, *cls)
	return id
}

// Get returns the class pointer or nil if the ID is invalid.
func (c *Classes) Get(id ClassID) *Class {
	if !id.IsValid() || int(id) >= len(c.data) {
		return nil
	}
	return &c.data[id]
}

// Len reports the number of stored classes excluding the sentinel.
func (c *Classes) Len() int { return len(c.data) - 1 }

// Members stores all allocated members in a compact slice-based arena.
type Members struct {
	data []Member
}

// NewMembers creates an arena with optional capacity hint.
func NewMembers(capacity uint32) *Members {
	if capacity == 0 {
		capacity = 64
	}
	return &Members{
		data: make([]Member, 1, capacity+1), // index 0 reserved for NoMemberID
	}
}

// New allocates a member and returns its ID.
func (m *Members) New(mem *Member) MemberID {
	if mem == nil {
		panic("elements: nil member")
	}
	value, err := safecast.Conv[uint32](len(m.data))
	if err != nil {
		panic(fmt.Errorf("member arena overflow: %w", err))
	}
	id := MemberID(value)
	m.data = append(m.data, *mem)
	return id
}

// Get returns the member pointer or nil for an invalid ID.
func (m *Members) Get(id MemberID) *Member {
	if !id.IsValid() || int(id) >= len(m.data) {
		return nil
	}
	return &m.data[id]
}

// Len reports the number of stored members excluding the sentinel.
func (m *Members) Len() int { return len(m.data) - 1 }
