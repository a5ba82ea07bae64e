package universe

import "lumen/internal/constants"

// Impact is the batch of uses contributed by one compiled body: everything
// the frontend observed while compiling a single member or root. The
// enqueuer applies impacts to the universe as targets become live.
type Impact struct {
	DynamicUses []DynamicUse
	StaticUses  []StaticUse
	TypeUses    []TypeUse
	Constants   []constants.Use
}

// IsEmpty reports whether the impact carries no uses at all.
func (im *Impact) IsEmpty() bool {
	return im == nil ||
		len(im.DynamicUses) == 0 &&
			len(im.StaticUses) == 0 &&
			len(im.TypeUses) == 0 &&
			len(im.Constants) == 0
}
