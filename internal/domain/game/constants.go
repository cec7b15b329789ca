// Package game holds the static reference data for the North American
// data centers plus the content and role vocabularies listings use.
package game

import (
	"sort"
	"strings"
)

const (
	RoleTank   = "Tank"
	RoleHealer = "Healer"
	RoleDPS    = "DPS"
)

var Roles = []string{RoleTank, RoleHealer, RoleDPS}

var ContentTypes = []string{
	"savage",
	"ultimate",
	"extreme",
	"chaotic",
	"criterion",
	"alliance_raid",
	"normal_raid",
	"dungeon",
}

var VoiceChatPlatforms = []string{"Discord", "Teamspeak", "Mumble", "In-game", "Other"}

var serversByDataCenter = map[string][]string{
	"Aether":  {"Adamantoise", "Cactuar", "Faerie", "Gilgamesh", "Jenova", "Midgardsormr", "Sargatanas", "Siren"},
	"Crystal": {"Balmung", "Brynhildr", "Coeurl", "Diabolos", "Goblin", "Malboro", "Mateus", "Zalera"},
	"Primal":  {"Behemoth", "Excalibur", "Exodus", "Famfrit", "Hyperion", "Lamia", "Leviathan", "Ultros"},
	"Dynamis": {"Halicarnassus", "Maduin", "Marilith", "Seraph"},
}

var dataCenterByServer = func() map[string]string {
	out := make(map[string]string)
	for dc, servers := range serversByDataCenter {
		for _, s := range servers {
			out[strings.ToLower(s)] = dc
		}
	}
	return out
}()

// DataCenters returns the known data center names in alphabetical order.
func DataCenters() []string {
	out := make([]string, 0, len(serversByDataCenter))
	for dc := range serversByDataCenter {
		out = append(out, dc)
	}
	sort.Strings(out)
	return out
}

func Servers(dataCenter string) []string {
	dc, ok := CanonicalDataCenter(dataCenter)
	if !ok {
		return nil
	}
	src := serversByDataCenter[dc]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DataCenterForServer maps a world name to its data center, ignoring case.
func DataCenterForServer(server string) (string, bool) {
	dc, ok := dataCenterByServer[strings.ToLower(strings.TrimSpace(server))]
	return dc, ok
}

func CanonicalDataCenter(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for dc := range serversByDataCenter {
		if strings.EqualFold(dc, name) {
			return dc, true
		}
	}
	return "", false
}

func IsContentType(v string) bool {
	return containsFold(ContentTypes, v)
}

func IsRole(v string) bool {
	return containsFold(Roles, v)
}

// CanonicalRole maps "tank" or " TANK" to "Tank".
func CanonicalRole(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, r := range Roles {
		if strings.EqualFold(r, v) {
			return r, true
		}
	}
	return "", false
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, it := range list {
		if strings.EqualFold(it, v) {
			return true
		}
	}
	return false
}
