package elements

// ClassID identifies a class in the element arena.
type ClassID uint32

const (
	// NoClassID marks the absence of a class reference.
	NoClassID ClassID = 0
)

// IsValid reports whether the class ID refers to an allocated class.
func (id ClassID) IsValid() bool { return id != NoClassID }

// MemberID identifies a member (field, getter, setter, method, constructor)
// in the element arena.
type MemberID uint32

const (
	// NoMemberID marks the absence of a member reference.
	NoMemberID MemberID = 0
)

// IsValid reports whether the member ID refers to an allocated member.
func (id MemberID) IsValid() bool { return id != NoMemberID }

// TypeID identifies an interned instance type.
type TypeID uint32

const (
	// NoTypeID marks the absence of a type reference.
	NoTypeID TypeID = 0
)

// IsValid reports whether the type ID refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }
