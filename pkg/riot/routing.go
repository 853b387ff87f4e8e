package riot

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Platforms are the platform routing values league-v4 and summoner-v4 accept.
var Platforms = []string{"br1", "eun1", "euw1", "jp1", "kr", "la1", "la2", "na1", "oc1", "ru", "tr1"}

// Tiers are the ranked tiers, highest first. The first three are apex tiers
// served by dedicated league endpoints.
var Tiers = []string{"CHALLENGER", "GRANDMASTER", "MASTER", "DIAMOND", "PLATINUM", "GOLD", "SILVER", "BRONZE", "IRON"}

// Queues are the ranked queues.
var Queues = []string{"RANKED_SOLO_5x5", "RANKED_FLEX_SR", "RANKED_FLEX_TT"}

var regionalRoutes = map[string]string{
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"na1":  "americas",
	"eun1": "europe",
	"euw1": "europe",
	"ru":   "europe",
	"tr1":  "europe",
	"jp1":  "asia",
	"kr":   "asia",
	"oc1":  "sea",
}

// RegionalRoute maps a platform to the regional cluster that serves match-v5.
func RegionalRoute(platform string) (string, error) {
	r, ok := regionalRoutes[platform]
	if !ok {
		return "", eris.Errorf("riot: unknown platform %q", platform)
	}
	return r, nil
}

// IsPlatform reports whether p is a known platform (case sensitive).
func IsPlatform(p string) bool { return slices.Contains(Platforms, p) }

// IsTier reports whether t is a known tier (case sensitive).
func IsTier(t string) bool { return slices.Contains(Tiers, t) }

// IsQueue reports whether q is a known ranked queue (case sensitive).
func IsQueue(q string) bool { return slices.Contains(Queues, q) }
