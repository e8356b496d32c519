package diag

// Policy decides the effective severity of a diagnostic. Phases never consult
// it; only sinks and the driver do.
type Policy interface {
	Severity(d Diagnostic) Severity
}

// DefaultPolicy applies per-code overrides and then optional escalation of
// warnings to errors.
type DefaultPolicy struct {
	Overrides        map[Code]Severity
	WarningsAsErrors bool
}

func (p DefaultPolicy) Severity(d Diagnostic) Severity {
	sev := d.Severity
	if o, ok := p.Overrides[d.Code]; ok {
		sev = o
	}
	if p.WarningsAsErrors && sev == SevWarning {
		return SevError
	}
	return sev
}

// Effective resolves the severity through p, treating nil as the identity policy.
func Effective(p Policy, d Diagnostic) Severity {
	if p == nil {
		return d.Severity
	}
	return p.Severity(d)
}

// CountErrors returns how many diagnostics of s are errors under p.
func CountErrors(p Policy, s Set) int {
	n := 0
	for d := range s.All {
		if Effective(p, d) == SevError {
			n++
		}
	}
	return n
}
