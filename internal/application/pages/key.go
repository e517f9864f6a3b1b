package pages

import (
	"net/url"
	"strconv"
	"strings"

	"squad/internal/adapters/storage"
	"squad/internal/application/querycache"
)

// collectionKey names a list fetch: the base path plus the query that shapes it.
// Keys with no query shaping collapse to the base itself.
func collectionKey(base string, q storage.Query) querycache.Key {
	v := url.Values{}
	rel := append([]string(nil), q.Relations...)
	for _, c := range q.Counts {
		rel = append(rel, c+".count")
	}
	if len(rel) > 0 {
		v.Set("relations", strings.Join(rel, ","))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Dir != "" {
		v.Set("dir", q.Dir)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return querycache.Key(base)
	}
	return querycache.Key(base + "?" + v.Encode())
}

// recordKey names a single-record fetch.
func recordKey(base, id string, relations []string) querycache.Key {
	k := base + "/" + url.PathEscape(id)
	if len(relations) > 0 {
		k += "?relations=" + url.QueryEscape(strings.Join(relations, ","))
	}
	return querycache.Key(k)
}
