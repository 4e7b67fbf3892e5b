package report

// RenderNull is the --report-format null option: run the assault, compute
// pass/allow for the exit code, but print nothing.
func RenderNull(*Report, bool) {}
