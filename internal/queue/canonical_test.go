package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeStripsTrackingParams(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	plain, err := policy.Canonicalize("https://a.example/1")
	require.NoError(t, err)

	tracked, err := policy.Canonicalize("https://a.example/1?utm_source=x&utm_medium=mail")
	require.NoError(t, err)
	require.Equal(t, plain, tracked)

	clicked, err := policy.Canonicalize("https://a.example/1?fbclid=abc123")
	require.NoError(t, err)
	require.Equal(t, plain, clicked)
}

func TestCanonicalizeKeepsMeaningfulParams(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	got, err := policy.Canonicalize("https://a.example/search?q=go&utm_campaign=daily")
	require.NoError(t, err)
	require.Equal(t, "https://a.example/search?q=go", got)
}

func TestCanonicalizeNormalizesHostAndScheme(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	got, err := policy.Canonicalize("HTTPS://News.Example.COM:443/Story/")
	require.NoError(t, err)
	require.Equal(t, "https://news.example.com/Story", got)
}

func TestCanonicalizeDropsFragment(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	got, err := policy.Canonicalize("https://a.example/post#section-2")
	require.NoError(t, err)
	require.Equal(t, "https://a.example/post", got)
}

func TestCanonicalizeSortsQueryForDeterminism(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	first, err := policy.Canonicalize("https://a.example/p?b=2&a=1")
	require.NoError(t, err)
	second, err := policy.Canonicalize("https://a.example/p?a=1&b=2")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCanonicalizeKeepsRootSlash(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	got, err := policy.Canonicalize("https://a.example/")
	require.NoError(t, err)
	require.Equal(t, "https://a.example/", got)
}

func TestCanonicalizeRejectsNonHTTP(t *testing.T) {
	t.Parallel()

	policy := DefaultCanonicalPolicy()

	_, err := policy.Canonicalize("ftp://a.example/file")
	require.Error(t, err)

	_, err = policy.Canonicalize("not a url at all://")
	require.Error(t, err)
}
