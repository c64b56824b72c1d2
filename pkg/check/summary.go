package check

// Summary holds per-status counts across evaluation results.
type Summary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Warnings int `json:"warnings"`
	Critical int `json:"critical"`
	Unknown  int `json:"unknown"`
}

// Summarize calculates summary statistics from evaluation results.
func Summarize(results ...EvaluationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusWarning:
			s.Warnings++
		case StatusCritical:
			s.Critical++
		case StatusUnknown:
			s.Unknown++
		}
	}
	return s
}

// Overall returns the most severe status across results. UNKNOWN is only
// returned when nothing is WARNING or CRITICAL.
func Overall(results ...EvaluationResult) Status {
	s := Summarize(results...)
	switch {
	case s.Critical > 0:
		return StatusCritical
	case s.Warnings > 0:
		return StatusWarning
	case s.Unknown > 0:
		return StatusUnknown
	}
	return StatusOK
}

// ExitCode returns the monitoring-plugin exit code for the results:
// 2 CRITICAL, 1 WARNING, 3 when the worst result is UNKNOWN, 0 otherwise.
// Absent data therefore exits 3 rather than passing as OK.
func ExitCode(results ...EvaluationResult) int {
	switch Overall(results...) {
	case StatusCritical:
		return 2
	case StatusWarning:
		return 1
	case StatusUnknown:
		return 3
	}
	return 0
}
