package driver

import (
	"strings"

	"lumen/internal/elements"
)

// LookupMember resolves a member spelling to its world ID. Accepted forms:
//
//	module:Class.member
//	Class.member
//	member            (top-level, any module)
//
// When several members share a spelling the lowest ID wins; spell the
// module to disambiguate.
func (p *Program) LookupMember(spelling string) (elements.MemberID, bool) {
	module, rest, hasModule := strings.Cut(spelling, ":")
	if !hasModule {
		rest = spelling
		module = ""
	}
	className, memberName, hasClass := strings.Cut(rest, ".")
	if !hasClass {
		memberName = rest
		className = ""
	}
	if memberName == "" {
		return elements.NoMemberID, false
	}

	w := p.Link.World
	for i := 1; i <= w.NumMembers(); i++ {
		id := elements.MemberID(i)
		if w.MemberName(id) != memberName {
			continue
		}
		owner := w.Member(id).Owner
		if className == "" {
			if owner.IsValid() {
				continue
			}
		} else {
			if !owner.IsValid() || w.ClassName(owner) != className {
				continue
			}
			if module != "" && w.Class(owner).Module != module {
				continue
			}
		}
		return id, true
	}
	return elements.NoMemberID, false
}

// LookupClass resolves a class spelling to its world ID. Accepted forms are
// module:Class and Class; on a bare name the lowest ID wins.
func (p *Program) LookupClass(spelling string) (elements.ClassID, bool) {
	module, name, hasModule := strings.Cut(spelling, ":")
	if !hasModule {
		name = spelling
		module = ""
	}
	if name == "" {
		return elements.NoClassID, false
	}

	w := p.Link.World
	for i := 1; i <= w.NumClasses(); i++ {
		id := elements.ClassID(i)
		if w.ClassName(id) != name {
			continue
		}
		if module != "" && w.Class(id).Module != module {
			continue
		}
		return id, true
	}
	return elements.NoClassID, false
}
