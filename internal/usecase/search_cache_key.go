package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const (
	listingSearchPrefix = "listings:search:"
	listingLockPrefix   = "listings:lock:"
)

type listingSearchCacheKeyInput struct {
	DataCenter  string `json:"data_center"`
	Server      string `json:"server"`
	ContentType string `json:"content_type"`
	State       string `json:"state"`
	Page        int    `json:"page"`
	PerPage     int    `json:"per_page"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// ListingsSearchCacheKey hashes the normalized filter, so "Aether " and
// "aether" share an entry.
func ListingsSearchCacheKey(params ListingListParams) string {
	in := listingSearchCacheKeyInput{
		DataCenter:  normalizeSearchValue(params.DataCenter),
		Server:      normalizeSearchValue(params.Server),
		ContentType: normalizeSearchValue(params.ContentType),
		State:       normalizeSearchValue(params.State),
		Page:        params.Page,
		PerPage:     params.PerPage,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return listingSearchPrefix + hex.EncodeToString(sum[:])
}

func ListingsSearchLockKey(searchKey string) string {
	searchKey = strings.TrimSpace(searchKey)
	return listingLockPrefix + strings.TrimPrefix(searchKey, listingSearchPrefix)
}
