package travel

import "strings"

// Key identifies one travel leg in the duration cache. Between-job keys and
// home-base keys live in disjoint namespaces so one can never satisfy the
// other.
type Key string

const (
	betweenPrefix  = "between|"
	homeBasePrefix = "home|"
)

// Direction of a home-base leg.
type Direction string

const (
	// ToJob is the leg from the home base to the first job.
	ToJob Direction = "to_job"
	// ToHome is the leg from the last job back to the home base.
	ToHome Direction = "to_home"
)

// BetweenKey keys the leg from one assignment to the next for a crew/day.
func BetweenKey(crewID, date, fromID, toID string) Key {
	return Key(betweenPrefix + strings.Join([]string{esc(crewID), esc(date), esc(fromID), esc(toID)}, "|"))
}

// HomeBaseKey keys a home-base leg of one assignment.
func HomeBaseKey(assignmentID string, dir Direction) Key {
	return Key(homeBasePrefix + esc(assignmentID) + "|" + string(dir))
}

// IsHomeBase reports whether k belongs to the home-base namespace.
func (k Key) IsHomeBase() bool { return strings.HasPrefix(string(k), homeBasePrefix) }

// IsBetween reports whether k belongs to the between-job namespace.
func (k Key) IsBetween() bool { return strings.HasPrefix(string(k), betweenPrefix) }

// esc keeps the separator out of ids so distinct tuples never share a key.
func esc(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, "|", "%7C")
}

// Pair is one leg to resolve: its cache key plus opaque origin and
// destination descriptors (addresses or "lat,lng").
type Pair struct {
	Key         Key
	Origin      string
	Destination string
}
