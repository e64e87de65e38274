package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(list []Suggestion) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}

func fromNames(ns ...string) []Suggestion {
	out := make([]Suggestion, len(ns))
	for i, n := range ns {
		out[i] = Suggestion{Name: n}
	}
	return out
}

type stubGeocoder struct {
	results []Suggestion
	err     error
	calls   int
	lastCC  string
}

func (g *stubGeocoder) Search(_ context.Context, _ string, countryCode string) ([]Suggestion, error) {
	g.calls++
	g.lastCC = countryCode
	return g.results, g.err
}

// TestRank_ExactThenSubstringThenUnrelated tests the documented Mumbai example
func TestRank_ExactThenSubstringThenUnrelated(t *testing.T) {
	candidates := fromNames("Thane", "Navi Mumbai", "Mumbai")

	assert.Equal(t, []string{"Mumbai", "Navi Mumbai", "Thane"}, names(Rank(candidates, "Mumbai")))
	assert.Equal(t, []string{"Mumbai", "Navi Mumbai"}, names(FilterRank(candidates, "mumbai")))
}

// TestRank_Cascade tests every tie-break level
func TestRank_Cascade(t *testing.T) {
	candidates := fromNames("Bangalore Rural", "Old Bangalore", "bangalore", "Bangalore Urban", "Ban")

	ranked := Rank(candidates, "BANGALORE")

	assert.Equal(t, []string{"bangalore", "Bangalore Rural", "Bangalore Urban", "Old Bangalore", "Ban"}, names(ranked))
}

// TestRank_ShorterBeforeAlphabetical tests length beating alphabetical order
func TestRank_ShorterBeforeAlphabetical(t *testing.T) {
	ranked := Rank(fromNames("Punekar", "Pune City", "Pune"), "pu")
	assert.Equal(t, []string{"Pune", "Punekar", "Pune City"}, names(ranked))
}

// TestMerge_RemoteWinsAndDedupes tests duplicate handling and priority
func TestMerge_RemoteWinsAndDedupes(t *testing.T) {
	// Arrange
	remote := []Suggestion{{Name: "Mumbai", Region: "MH (remote)"}, {Name: "Mumbai Suburban"}}
	fallback := []Suggestion{{Name: "mumbai", Region: "fallback"}, {Name: "Navi Mumbai"}, {Name: "Thane"}}

	// Act
	merged := Merge(remote, fallback, "mumbai", 10)

	// Assert
	assert.Equal(t, []string{"Mumbai", "Mumbai Suburban", "Navi Mumbai"}, names(merged))
	assert.Equal(t, "MH (remote)", merged[0].Region)
}

// TestMerge_CapsAtLimit tests the result cap
func TestMerge_CapsAtLimit(t *testing.T) {
	remote := make([]Suggestion, 0, 15)
	for i := 0; i < 15; i++ {
		remote = append(remote, Suggestion{Name: "Place " + string(rune('A'+i))})
	}

	assert.Len(t, Merge(remote, nil, "place", 0), DefaultLimit)
	assert.Len(t, Merge(remote, nil, "place", 3), 3)
}

// TestPinSelected tests pinning an existing and a missing selection
func TestPinSelected(t *testing.T) {
	list := fromNames("Pune", "Mumbai", "Thane")

	pinned := PinSelected(list, "mumbai")
	require.Len(t, pinned, 3)
	assert.Equal(t, "Mumbai", pinned[0].Name)
	assert.True(t, pinned[0].IsSelected)
	assert.False(t, pinned[1].IsSelected)

	added := PinSelected(list, "Goa")
	assert.Equal(t, []string{"Goa", "Pune", "Mumbai", "Thane"}, names(added))
	assert.True(t, added[0].IsSelected)

	assert.Equal(t, list, PinSelected(list, "  "))
}

// TestCache_TTLBoundary tests hit at 4m59s and miss at 5m1s
func TestCache_TTLBoundary(t *testing.T) {
	// Arrange
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start
	c := NewCache(5*time.Minute, func() time.Time { return now })
	c.Put("  Mumbai ", fromNames("Mumbai"))

	// Act & Assert
	now = start.Add(4*time.Minute + 59*time.Second)
	got, ok := c.Get("mumbai")
	assert.True(t, ok)
	assert.Equal(t, []string{"Mumbai"}, names(got))

	now = start.Add(5*time.Minute + 1*time.Second)
	_, ok = c.Get("MUMBAI")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries are not evicted")

	c.Put("mumbai", fromNames("Mumbai", "Navi Mumbai"))
	got, ok = c.Get("mumbai")
	assert.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// TestCache_ReturnsCopies tests that callers cannot mutate cached lists
func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(time.Minute, nil)
	c.Put("pune", fromNames("Pune"))

	got, _ := c.Get("pune")
	got[0].Name = "changed"

	again, _ := c.Get("pune")
	assert.Equal(t, "Pune", again[0].Name)
}

// TestService_RemoteThenCache tests that a second lookup is served from cache
func TestService_RemoteThenCache(t *testing.T) {
	// Arrange
	geo := &stubGeocoder{results: fromNames("Mumbai", "Mumbai Suburban")}
	svc := NewService(geo, NewCache(time.Minute, nil), 10)

	// Act
	first := svc.Suggest(context.Background(), "Mumbai", "")
	second := svc.Suggest(context.Background(), " mumbai ", "")

	// Assert
	assert.Equal(t, SourceRemote, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "in", geo.lastCC)
	assert.Equal(t, names(first.Suggestions), names(second.Suggestions))
	assert.Contains(t, names(first.Suggestions), "Navi Mumbai", "matching fallback entries are merged in")
}

// TestService_GeocoderErrorUsesFallback tests silent recovery
func TestService_GeocoderErrorUsesFallback(t *testing.T) {
	geo := &stubGeocoder{err: errors.New("connection refused")}
	svc := NewService(geo, nil, 10)

	res := svc.Suggest(context.Background(), "mumbai", "")

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, []string{"Mumbai", "Navi Mumbai"}, names(res.Suggestions))
	assert.Equal(t, 0, svc.Cache().Len(), "fallback results are not cached")
}

// TestService_EmptyRemoteUsesFallback tests the empty-result branch
func TestService_EmptyRemoteUsesFallback(t *testing.T) {
	svc := NewService(&stubGeocoder{}, nil, 10)

	res := svc.Suggest(context.Background(), "thane", "")

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, []string{"Thane"}, names(res.Suggestions))
}

// TestService_ShortQuerySkipsGeocoder tests the minimum query length
func TestService_ShortQuerySkipsGeocoder(t *testing.T) {
	geo := &stubGeocoder{results: fromNames("Anywhere")}
	svc := NewService(geo, nil, 5)

	res := svc.Suggest(context.Background(), "m", "Pune")

	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "Pune", res.Suggestions[0].Name)
	assert.True(t, res.Suggestions[0].IsSelected)
	assert.LessOrEqual(t, len(res.Suggestions), 5)
}

// TestService_PinnedSelectionStaysWithinLimit tests that an unlisted selection does not grow the list
func TestService_PinnedSelectionStaysWithinLimit(t *testing.T) {
	tests := []struct {
		name  string
		geo   *stubGeocoder
		query string
	}{
		{name: "fallback list", geo: nil, query: ""},
		{name: "remote list", geo: &stubGeocoder{results: fromNames("Mumbai", "Mumbai Central", "Mumbai Suburban", "Mumbra")}, query: "mum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var geocoder Geocoder
			if tt.geo != nil {
				geocoder = tt.geo
			}
			svc := NewService(geocoder, NewCache(0, nil), 3)

			// Act
			res := svc.Suggest(context.Background(), tt.query, "Atlantis")

			// Assert
			require.Len(t, res.Suggestions, 3)
			assert.Equal(t, "Atlantis", res.Suggestions[0].Name)
			assert.True(t, res.Suggestions[0].IsSelected)
		})
	}
}
