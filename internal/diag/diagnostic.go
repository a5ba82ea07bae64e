package diag

import "fmt"

// Locus points a diagnostic at a place in program input: the file it came
// from plus a dotted entity path inside it, e.g. "classes.Circle.super".
// Either part may be empty.
type Locus struct {
	File string
	Path string
}

func (l Locus) String() string {
	switch {
	case l.File == "":
		return l.Path
	case l.Path == "":
		return l.File
	default:
		return fmt.Sprintf("%s#%s", l.File, l.Path)
	}
}

type Note struct {
	Locus Locus
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Locus
	Notes    []Note
}
