// Package matching scores how well a player profile fits a recruitment
// listing. Everything here is pure: no I/O, no clock, no errors.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxScore   = 100
	MaxReasons = 5

	dataCenterPoints  = 50
	serverPoints      = 15
	pointsPerRole     = 10
	rolePointsCap     = 25
	bioPoints         = 5
	progressionPoints = 5

	maxScheduleInHint = 2
)

type Profile struct {
	UserID             uuid.UUID
	DataCenter         string
	Server             string
	Roles              []string
	Bio                string
	ProgressionEntries int
	Availability       []string
}

type Listing struct {
	ID          uuid.UUID
	DataCenter  string
	Server      string
	RolesNeeded map[string]int
	ContentType string
	Schedule    []string
}

type Result struct {
	Score   int
	Reasons []string
}

// Ranked pairs a result with the position of the candidate in the input slice.
type Ranked struct {
	Index int
	Result
}

// Score returns 0..100. A profile on another data center always scores 0;
// a profile without a data center skips that check.
func Score(p Profile, l Listing) int {
	if !passesDataCenterGate(p, l) {
		return 0
	}

	total := 0
	if sameDataCenter(p, l) {
		total += dataCenterPoints
	}
	if sameServer(p, l) {
		total += serverPoints
	}
	total += min(len(matchedRoles(p, l))*pointsPerRole, rolePointsCap)
	if strings.TrimSpace(p.Bio) != "" {
		total += bioPoints
	}
	if p.ProgressionEntries > 0 {
		total += progressionPoints
	}

	return min(total, MaxScore)
}

// Reasons explains a score in a fixed order, at most MaxReasons entries.
func Reasons(p Profile, l Listing) []string {
	if !passesDataCenterGate(p, l) {
		return nil
	}

	out := make([]string, 0, MaxReasons)
	if sameDataCenter(p, l) {
		out = append(out, fmt.Sprintf("Same data center (%s)", strings.TrimSpace(l.DataCenter)))
	}
	if sameServer(p, l) {
		out = append(out, fmt.Sprintf("Same server (%s)", strings.TrimSpace(l.Server)))
	}
	if roles := matchedRoles(p, l); len(roles) > 0 {
		out = append(out, "Needs your roles: "+strings.Join(roles, ", "))
	}
	if ct := strings.TrimSpace(l.ContentType); ct != "" {
		out = append(out, fmt.Sprintf("Looking for %s raiders", ct))
	}
	if len(l.Schedule) > 0 && len(p.Availability) > 0 {
		shown := l.Schedule
		if len(shown) > maxScheduleInHint {
			shown = shown[:maxScheduleInHint]
		}
		out = append(out, "Schedule may fit your availability: "+strings.Join(shown, ", "))
	}

	if len(out) > MaxReasons {
		out = out[:MaxReasons]
	}
	return out
}

func Evaluate(p Profile, l Listing) Result {
	return Result{Score: Score(p, l), Reasons: Reasons(p, l)}
}

// Rank scores every listing for the profile, drops zero scores and orders the
// rest by score descending. Ties keep their input order.
func Rank(p Profile, listings []Listing) []Ranked {
	return rank(len(listings), func(i int) Result { return Evaluate(p, listings[i]) })
}

// RankPlayers is the owner's view: the same score, computed for each player
// against one listing.
func RankPlayers(l Listing, players []Profile) []Ranked {
	return rank(len(players), func(i int) Result { return Evaluate(players[i], l) })
}

func rank(n int, eval func(i int) Result) []Ranked {
	out := make([]Ranked, 0, n)
	for i := 0; i < n; i++ {
		res := eval(i)
		if res.Score <= 0 {
			continue
		}
		out = append(out, Ranked{Index: i, Result: res})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func passesDataCenterGate(p Profile, l Listing) bool {
	userDC := strings.TrimSpace(p.DataCenter)
	if userDC == "" {
		return true
	}
	return strings.EqualFold(userDC, strings.TrimSpace(l.DataCenter))
}

func sameDataCenter(p Profile, l Listing) bool {
	userDC := strings.TrimSpace(p.DataCenter)
	return userDC != "" && strings.EqualFold(userDC, strings.TrimSpace(l.DataCenter))
}

func sameServer(p Profile, l Listing) bool {
	us := strings.TrimSpace(p.Server)
	ls := strings.TrimSpace(l.Server)
	return us != "" && ls != "" && strings.EqualFold(us, ls)
}

// matchedRoles returns every profile role entry, in profile order, whose
// case-insensitive name the listing still needs. Repeated entries each count.
func matchedRoles(p Profile, l Listing) []string {
	needed := make(map[string]struct{}, len(l.RolesNeeded))
	for role, n := range l.RolesNeeded {
		if n > 0 {
			needed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
		}
	}
	if len(needed) == 0 {
		return nil
	}

	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		key := strings.ToLower(strings.TrimSpace(r))
		if key == "" {
			continue
		}
		if _, ok := needed[key]; ok {
			out = append(out, strings.TrimSpace(r))
		}
	}
	return out
}
