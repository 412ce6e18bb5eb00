package diag

// Diagnostic is a single linter finding suitable for LSP mapping.
// Line/column fields are 1-based; all-zero positions mean a synthetic
// location clamped to (0,0)-(0,0) on the wire.
type Diagnostic struct {
	ID        string
	Message   string
	FilePath  string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Severity  Severity
}

// Synthetic reports whether the diagnostic carries no source location.
func (d Diagnostic) Synthetic() bool {
	return d.StartLine == 0 && d.StartCol == 0 && d.EndLine == 0 && d.EndCol == 0
}
