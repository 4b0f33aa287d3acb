package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and what reelcast uses it for.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement. Path is the resolved
// executable when Available is set.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check resolves req against PATH (or as a path when it contains a separator).
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Path = resolved
	status.Available = true
	return status
}

// CheckBinaries evaluates each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}

// Missing returns the names of required binaries that are unavailable.
func Missing(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			names = append(names, s.Name)
		}
	}
	return names
}
