package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopsage/crawler/internal/crawler"
)

func resultWith(url, title, heading, text string) crawler.PageResult {
	return crawler.PageResult{PageRecord: crawler.PageRecord{
		URL:     url,
		Title:   title,
		Heading: heading,
		Text:    text,
	}}
}

func TestBuild_CountsAndOrdering(t *testing.T) {
	t.Parallel()

	pages := []crawler.PageResult{
		resultWith("https://shop.test/a", "Walnut Desk", "", "walnut desk walnut"),
		resultWith("https://shop.test/b", "Oak Chair", "", "oak chair walnut"),
	}
	idx := Build(pages)

	// "walnut": 3 on page a (title + two body hits), 1 on page b.
	require.Equal(t, []Posting{
		{URL: "https://shop.test/a", Count: 3},
		{URL: "https://shop.test/b", Count: 1},
	}, idx["walnut"])
	require.Equal(t, []Posting{{URL: "https://shop.test/b", Count: 2}}, idx["oak"])
}

func TestBuild_TiesKeepCrawlOrder(t *testing.T) {
	t.Parallel()

	pages := []crawler.PageResult{
		resultWith("https://shop.test/first", "", "", "lamp"),
		resultWith("https://shop.test/second", "", "", "lamp"),
		resultWith("https://shop.test/third", "", "", "lamp"),
	}
	idx := Build(pages)

	require.Equal(t, []Posting{
		{URL: "https://shop.test/first", Count: 1},
		{URL: "https://shop.test/second", Count: 1},
		{URL: "https://shop.test/third", Count: 1},
	}, idx["lamp"])
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	pages := []crawler.PageResult{
		resultWith("https://shop.test/a", "Desk Lamp", "Lighting", "brass desk lamp with shade"),
		resultWith("https://shop.test/b", "Floor Lamp", "Lighting", "tall floor lamp"),
	}
	first := Build(pages)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Build(pages))
	}
}

func TestBuild_SkipsFailedPages(t *testing.T) {
	t.Parallel()

	pages := []crawler.PageResult{
		resultWith("https://shop.test/a", "", "", "visible words"),
		{
			PageRecord: crawler.PageRecord{URL: "https://shop.test/broken", Text: "ghost words"},
			Err:        "status 500",
		},
	}
	idx := Build(pages)

	require.Len(t, idx["words"], 1)
	require.Equal(t, "https://shop.test/a", idx["words"][0].URL)
	require.Empty(t, idx["ghost"])
}

func TestTokenize_Rules(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("The Mid-Century DESK, priced at $1299!")
	require.Equal(t, []string{"the", "mid", "century", "desk", "priced", "1299"}, tokens)
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	t.Parallel()

	tokens := Tokenize("a an of the box")
	require.Equal(t, []string{"the", "box"}, tokens)
}

func TestNormalizeTerm(t *testing.T) {
	t.Parallel()

	require.Equal(t, "walnut", NormalizeTerm("  WALNUT "))
	require.Equal(t, "", NormalizeTerm("   "))
}
