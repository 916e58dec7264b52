// Package workers provides the default troupe worker set: the planner,
// critic, and synthesizer roles plus the specialist solvers the router picks
// between. Every worker is a deterministic template/heuristic text producer;
// swapping one for an LLM-backed implementation only requires satisfying the
// core.Worker contract.
package workers

import "strings"

func bullets(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func countHits(text string, markers []string) int {
	hits := 0
	for _, m := range markers {
		if strings.Contains(text, m) {
			hits++
		}
	}
	return hits
}
