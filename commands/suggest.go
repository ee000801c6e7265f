package commands

import "github.com/agnivade/levenshtein"

const maxSuggestionDistance = 2

var knownVerbs = []string{verbRemind, verbAck, verbTraining, verbStatus, verbHelp}

// suggestVerb returns the closest known verb within maxSuggestionDistance
// edits, or "" if none is close enough. Ties go to the earlier verb.
func suggestVerb(verb string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, known := range knownVerbs {
		if d := levenshtein.ComputeDistance(verb, known); d < bestDist {
			best, bestDist = known, d
		}
	}
	return best
}
