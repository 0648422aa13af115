package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchEveryEntryRoundTrips(t *testing.T) {
	for _, e := range Alexa {
		if e.Code == TaskList || e.Code == ShoppingList {
			continue // disambiguated by query param, covered separately
		}
		sample := SampleURL(e.URLPrimary)
		require.Equal(t, e.Code, Match(sample), "entry %s did not round-trip: %s", e.Code, sample)
	}
	for _, e := range Google {
		sample := SampleURL(e.URLPrimary)
		require.Equal(t, e.Code, Match(sample))
	}
}

func TestMatchUnknown(t *testing.T) {
	require.Equal(t, UNKNOWN, Match("https://example.com/not/a/real/endpoint"))
}

func TestMatchAlexaHostAlternate(t *testing.T) {
	url := "https://pitangui.amazon.com/api/bootstrap"
	require.Equal(t, BOOTSTRAP, Match(url))
}

func TestMatchTaskVsShoppingList(t *testing.T) {
	require.Equal(t, TaskList, Match("https://alexa.amazon.com/api/todos?type=TASK&size=10"))
	require.Equal(t, ShoppingList, Match("https://alexa.amazon.com/api/todos?type=SHOPPING_ITEM&size=10"))
}

func TestDerived(t *testing.T) {
	require.True(t, ActivityDialogItem.Derived())
	require.False(t, Activities.Derived())
}

func TestCardsNextQuery(t *testing.T) {
	url, done := CardsNextQuery(12345)
	require.False(t, done)
	require.Contains(t, url, "12345")

	_, done = CardsNextQuery(-1)
	require.True(t, done)
}

func TestCodeString(t *testing.T) {
	require.Equal(t, "BOOTSTRAP", BOOTSTRAP.String())
	require.Equal(t, "UNKNOWN", UNKNOWN.String())
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(Cards)
	require.True(t, ok)
	require.Equal(t, Cards, e.Code)

	_, ok = Lookup(Code(9999))
	require.False(t, ok)
}
