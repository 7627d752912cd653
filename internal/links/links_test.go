package links

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFindsURLsInOrder(t *testing.T) {
	t.Parallel()

	text := "Check this out: https://a.example/first and also https://b.example/second."
	urls := Extract(text, nil)
	require.Equal(t, []string{"https://a.example/first", "https://b.example/second"}, urls)
}

func TestExtractTrimsTrailingPunctuation(t *testing.T) {
	t.Parallel()

	urls := Extract("See (https://a.example/post), or https://b.example/story!", nil)
	require.Equal(t, []string{"https://a.example/post", "https://b.example/story"}, urls)
}

func TestExtractDedupesPreservingOrder(t *testing.T) {
	t.Parallel()

	text := "https://a.example/1 then https://b.example/2 then https://a.example/1 again"
	urls := Extract(text, nil)
	require.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, urls)
}

func TestExtractFiltersNoise(t *testing.T) {
	t.Parallel()

	text := `Article: https://a.example/story
Unsubscribe: https://mailer.example/unsubscribe?u=1
Tracking pixel: https://cdn.example/pixel.png
Font: https://fonts.googleapis.com/css2?family=Inter`
	urls := Extract(text, nil)
	require.Equal(t, []string{"https://a.example/story"}, urls)
}

func TestExtractHonorsExtraIgnoreList(t *testing.T) {
	t.Parallel()

	text := "https://a.example/story and https://internal.corp.example/wiki"
	urls := Extract(text, []string{"internal.corp.example"})
	require.Equal(t, []string{"https://a.example/story"}, urls)
}

func TestExtractEmptyInput(t *testing.T) {
	t.Parallel()

	require.Nil(t, Extract("", nil))
	require.Nil(t, Extract("no links here", nil))
}
