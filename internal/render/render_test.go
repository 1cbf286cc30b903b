package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderParagraphsAndCaptionedImage(t *testing.T) {
	raw := "Hello world.\n\nhttps://x.com/a.png\nA caption\n\nBye."

	blocks := Render(raw)
	require.Len(t, blocks, 3)

	assert.Equal(t, Block{Type: BlockParagraph, Text: "Hello world."}, blocks[0])
	assert.Equal(t, Block{Type: BlockImage, URL: "https://x.com/a.png", Caption: "A caption"}, blocks[1])
	assert.Equal(t, Block{Type: BlockParagraph, Text: "Bye."}, blocks[2])
}

func TestRenderMarkdownImage(t *testing.T) {
	blocks := Render("![Cap](https://x.com/b.jpg)")

	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Type: BlockImage, URL: "https://x.com/b.jpg", Caption: "Cap"}, blocks[0])
}

func TestRenderMarkdownImageEmptyCaption(t *testing.T) {
	blocks := Render("![](https://x.com/b.jpg)")

	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Type: BlockImage, URL: "https://x.com/b.jpg"}, blocks[0])
}

func TestRenderPreservesSingleNewlines(t *testing.T) {
	blocks := Render("line one\nline two\n\nsecond paragraph")

	require.Len(t, blocks, 2)
	assert.Equal(t, "line one\nline two", blocks[0].Text)
	assert.Equal(t, "second paragraph", blocks[1].Text)
}

func TestRenderTextAroundImageInSameParagraph(t *testing.T) {
	raw := "Intro text https://x.com/a.png trailing text"

	blocks := Render(raw)
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockParagraph, blocks[0].Type)
	assert.Equal(t, "Intro text", blocks[0].Text)
	assert.Equal(t, BlockImage, blocks[1].Type)
	assert.Equal(t, "https://x.com/a.png", blocks[1].URL)
	assert.Empty(t, blocks[1].Caption)
	assert.Equal(t, "trailing text", blocks[2].Text)
}

func TestRenderNoCaptionWhenMultipleLinesFollow(t *testing.T) {
	raw := "https://x.com/a.png\nfirst line\nsecond line"

	blocks := Render(raw)
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockImage, blocks[0].Type)
	assert.Empty(t, blocks[0].Caption)
	assert.Equal(t, "first line\nsecond line", blocks[1].Text)
}

func TestRenderMultipleImages(t *testing.T) {
	raw := "https://x.com/a.png\n\nhttps://x.com/b.GIF?size=large\nSecond caption"

	blocks := Render(raw)
	require.Len(t, blocks, 2)
	assert.Equal(t, "https://x.com/a.png", blocks[0].URL)
	assert.Equal(t, "https://x.com/b.GIF?size=large", blocks[1].URL)
	assert.Equal(t, "Second caption", blocks[1].Caption)
}

func TestRenderIgnoresNonImageURLs(t *testing.T) {
	blocks := Render("see https://example.com/page for details")

	require.Len(t, blocks, 1)
	assert.Equal(t, BlockParagraph, blocks[0].Type)
}

func TestRenderEmptyInput(t *testing.T) {
	assert.Empty(t, Render(""))
	assert.Empty(t, Render("\n\n  \n\n"))
}

func TestIsImageURL(t *testing.T) {
	assert.True(t, IsImageURL("https://x.com/a.png"))
	assert.True(t, IsImageURL("http://x.com/a.JPEG?v=2"))
	assert.False(t, IsImageURL("https://x.com/a.pdf"))
	assert.False(t, IsImageURL("not a url"))
}
