package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Snapshot decode (1xxx)
	SnapInfo              Code = 1000
	SnapBadMagic          Code = 1001
	SnapUnsupportedSchema Code = 1002
	SnapBadPayload        Code = 1003
	SnapEmptyModuleName   Code = 1004
	SnapDuplicateClass    Code = 1005
	SnapDuplicateMember   Code = 1006
	SnapBadMemberKind     Code = 1007
	SnapBadParameter      Code = 1008
	SnapBadImpact         Code = 1009
	SnapBadConstant       Code = 1010

	// Cross-snapshot linking (2xxx)
	LinkInfo              Code = 2000
	LinkMissingImport     Code = 2001
	LinkDuplicateModule   Code = 2002
	LinkDanglingSuper     Code = 2003
	LinkDanglingInterface Code = 2004
	LinkDanglingTarget    Code = 2005
	LinkDanglingRoot      Code = 2006
	LinkBadTypeRef        Code = 2007
	LinkRootNotCallable   Code = 2008
	LinkInheritanceCycle  Code = 2009
	LinkDuplicateRoot     Code = 2010
	LinkForeignImpact     Code = 2011

	// I/O (3xxx)
	IOLoadFileError Code = 3000

	// Program manifest (4xxx)
	ProgInfo            Code = 4000
	ProgBadManifest     Code = 4001
	ProgMissingSnapshot Code = 4002
	ProgDuplicateModule Code = 4003
	ProgSelfImport      Code = 4004
	ProgImportCycle     Code = 4005
	ProgNoRoots         Code = 4006

	// Observability (5xxx)
	ObsInfo    Code = 5000
	ObsTimings Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown diagnostic",

	SnapInfo:              "Snapshot information",
	SnapBadMagic:          "Not a world snapshot file",
	SnapUnsupportedSchema: "Unsupported snapshot schema version",
	SnapBadPayload:        "Malformed snapshot payload",
	SnapEmptyModuleName:   "Snapshot has an empty module name",
	SnapDuplicateClass:    "Duplicate class in snapshot",
	SnapDuplicateMember:   "Duplicate member in class",
	SnapBadMemberKind:     "Unknown member kind",
	SnapBadParameter:      "Malformed parameter list",
	SnapBadImpact:         "Malformed impact record",
	SnapBadConstant:       "Malformed constant record",

	LinkInfo:              "Link information",
	LinkMissingImport:     "Imported module is not part of the program",
	LinkDuplicateModule:   "Module declared by more than one snapshot",
	LinkDanglingSuper:     "Superclass reference cannot be resolved",
	LinkDanglingInterface: "Interface reference cannot be resolved",
	LinkDanglingTarget:    "Impact target cannot be resolved",
	LinkDanglingRoot:      "Root reference cannot be resolved",
	LinkBadTypeRef:        "Type reference cannot be resolved",
	LinkRootNotCallable:   "Root is not a static, top-level or constructor member",
	LinkInheritanceCycle:  "Class hierarchy contains a cycle",
	LinkDuplicateRoot:     "Root is listed more than once",
	LinkForeignImpact:     "Impact declared for a member of another module",

	IOLoadFileError: "I/O load file error",

	ProgInfo:            "Program information",
	ProgBadManifest:     "Malformed program manifest",
	ProgMissingSnapshot: "Snapshot file listed in manifest is missing",
	ProgDuplicateModule: "Module listed twice in manifest",
	ProgSelfImport:      "Module imports itself",
	ProgImportCycle:     "Import cycle detected",
	ProgNoRoots:         "Program declares no roots",

	ObsInfo:    "Observability information",
	ObsTimings: "Analysis timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SNAP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LINK%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("PRG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
