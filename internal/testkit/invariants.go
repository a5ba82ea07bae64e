// Package testkit holds invariant checkers shared by tests across packages.
package testkit

import (
	"fmt"

	"lumen/internal/elements"
	"lumen/internal/universe"
)

// CheckLiveWorld validates the closed-world liveness invariants on a universe
// after a fixpoint run:
//  1. every live instance member belongs to an implemented class
//  2. every instantiated class is also implemented
//  3. every directly instantiated class is marked instantiated
//  4. every live static usage targets a static, top-level or constructor member
//
// Unlike the enqueuer's built-in verification this returns an error instead
// of faulting, so tests can assert on the message.
func CheckLiveWorld(u *universe.Universe) error {
	w := u.World()

	for _, mu := range u.MemberUsages() {
		if !mu.IsLive() {
			continue
		}
		owner := w.Member(mu.Member).Owner
		cu, ok := u.ClassUsage(owner)
		if !ok || !cu.IsImplemented() {
			return fmt.Errorf("live member %s in never-implemented class %s",
				w.MemberDisplay(mu.Member), w.ClassName(owner))
		}
	}

	implemented := make(map[elements.ClassID]bool)
	for _, cls := range u.ImplementedClasses() {
		implemented[cls] = true
	}
	for _, cls := range u.InstantiatedClasses() {
		if !implemented[cls] {
			return fmt.Errorf("class %s is instantiated but not implemented", w.ClassName(cls))
		}
	}

	instantiated := make(map[elements.ClassID]bool)
	for _, cls := range u.InstantiatedClasses() {
		instantiated[cls] = true
	}
	for _, cls := range u.DirectlyInstantiatedClasses() {
		if !instantiated[cls] {
			return fmt.Errorf("class %s is directly instantiated but not instantiated", w.ClassName(cls))
		}
	}

	for _, su := range u.StaticUsages() {
		if !su.IsLive() {
			continue
		}
		member := w.Member(su.Member)
		if !member.IsStaticOrTopLevel() && member.Kind != elements.MemberConstructor {
			return fmt.Errorf("static usage recorded for instance member %s",
				w.MemberDisplay(su.Member))
		}
	}

	return nil
}
