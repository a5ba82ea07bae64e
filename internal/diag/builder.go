package diag

func New(sev Severity, code Code, primary Locus, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
		Notes:    nil,
	}
}

func NewError(code Code, primary Locus, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary Locus, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func (d Diagnostic) WithNote(at Locus, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Locus: at, Msg: msg})
	return d
}
