package suggest

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// MinQueryLength is the shortest query sent to the geocoder
const MinQueryLength = 2

// Result sources
const (
	SourceCache    = "cache"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Geocoder resolves a free-text query to place names
type Geocoder interface {
	Search(ctx context.Context, query, countryCode string) ([]Suggestion, error)
}

// Result is what Service.Suggest hands back to the HTTP layer
type Result struct {
	Query       string       `json:"query"`
	Suggestions []Suggestion `json:"suggestions"`
	Source      string       `json:"source"`
}

// Service answers location suggestion queries from the cache, the remote
// geocoder, or the static fallback list, in that order of preference.
type Service struct {
	geocoder    Geocoder
	cache       *Cache
	fallback    []Suggestion
	limit       int
	countryCode string
}

// NewService wires a geocoder and a cache. A nil geocoder always uses the fallback list.
func NewService(geocoder Geocoder, cache *Cache, limit int) *Service {
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, nil)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		geocoder:    geocoder,
		cache:       cache,
		fallback:    Fallback,
		limit:       limit,
		countryCode: "in",
	}
}

// Cache returns the cache the service writes to
func (s *Service) Cache() *Cache {
	return s.cache
}

// Suggest returns ranked suggestions for query with selected pinned on top.
// Geocoder failures are logged and replaced by the fallback list; they are
// never returned to the caller.
func (s *Service) Suggest(ctx context.Context, query, selected string) Result {
	q := normalizeQuery(query)

	if utf8.RuneCountInString(q) < MinQueryLength {
		list := capList(Rank(s.fallback, q), s.limit)
		return Result{Query: q, Suggestions: s.pin(list, selected), Source: SourceFallback}
	}

	if cached, ok := s.cache.Get(q); ok {
		slog.Debug("Suggestion cache hit", "query", q, "count", len(cached))
		return Result{Query: q, Suggestions: s.pin(cached, selected), Source: SourceCache}
	}

	var remote []Suggestion
	if s.geocoder != nil {
		var err error
		remote, err = s.geocoder.Search(ctx, q, s.countryCode)
		if err != nil {
			slog.Warn("Geocoder lookup failed, using fallback list",
				"query", q,
				"error", err)
			remote = nil
		}
	}

	if len(remote) == 0 {
		list := capList(FilterRank(s.fallback, q), s.limit)
		return Result{Query: q, Suggestions: s.pin(list, selected), Source: SourceFallback}
	}

	merged := Merge(remote, s.fallback, q, s.limit)
	s.cache.Put(q, merged)

	return Result{Query: q, Suggestions: s.pin(merged, selected), Source: SourceRemote}
}

// pin puts selected on top and keeps the list within the limit
func (s *Service) pin(list []Suggestion, selected string) []Suggestion {
	return capList(PinSelected(list, selected), s.limit)
}
