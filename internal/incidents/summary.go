package incidents

import "fmt"

// Summary renders the registered incident.
func (r Registration) Summary() string {
	return fmt.Sprintf("Incident registered: %s\nSeverity: %s\nModule: %s\nFile: %s",
		r.Record.ID, r.Record.Severity, r.Record.Module, r.FilePath)
}

// Summary renders the counts on one line.
func (c SeverityCount) Summary() string {
	return fmt.Sprintf("P0: %d, P1: %d, P2: %d", c.P0, c.P1, c.P2)
}
