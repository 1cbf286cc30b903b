// Package render converts raw post bodies into structured blocks. Post
// content is plain text where paragraphs are separated by blank lines and
// images appear either as bare URLs or in ![caption](url) form; the
// presentation layer decides how blocks map to markup.
package render

import (
	"regexp"
	"strings"
)

// BlockType discriminates rendered blocks.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockImage     BlockType = "image"
)

// Block is a unit of rendered content: a text paragraph or an image with an
// optional caption.
type Block struct {
	Type    BlockType `json:"type"`
	Text    string    `json:"text,omitempty"`
	URL     string    `json:"url,omitempty"`
	Caption string    `json:"caption,omitempty"`
}

const imageURLPattern = `(?i)https?://[^\s)]+\.(?:jpg|jpeg|png|gif|webp|svg|bmp|ico)(?:\?[^\s)]*)?`

var (
	imageURLRe         = regexp.MustCompile(imageURLPattern)
	imageURLAnchoredRe = regexp.MustCompile(`^(?:` + imageURLPattern + `)$`)
	markdownImageRe    = regexp.MustCompile(`!\[([^\]]*)\]\(\s*([^)\s]+)\s*\)`)
	blankLineRe        = regexp.MustCompile(`\n[ \t]*\n`)
)

// IsImageURL reports whether s is a bare absolute image URL.
func IsImageURL(s string) bool {
	return imageURLAnchoredRe.MatchString(strings.TrimSpace(s))
}

// Render parses a raw post body into an ordered sequence of blocks.
func Render(raw string) []Block {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var blocks []Block
	for _, candidate := range blankLineRe.Split(raw, -1) {
		blocks = append(blocks, renderCandidate(candidate)...)
	}
	return blocks
}

type imageToken struct {
	start, end int
	url        string
	caption    string
	markdown   bool
}

func renderCandidate(candidate string) []Block {
	tokens := findImageTokens(candidate)
	if len(tokens) == 0 {
		if text := strings.TrimSpace(candidate); text != "" {
			return []Block{{Type: BlockParagraph, Text: text}}
		}
		return nil
	}

	var blocks []Block
	pos := 0
	for i, tok := range tokens {
		if text := strings.TrimSpace(candidate[pos:tok.start]); text != "" {
			blocks = append(blocks, Block{Type: BlockParagraph, Text: text})
		}

		img := Block{Type: BlockImage, URL: tok.url}
		end := tok.end
		if tok.markdown {
			img.Caption = tok.caption
		} else {
			next := len(candidate)
			if i+1 < len(tokens) {
				next = tokens[i+1].start
			}
			if caption, ok := captionLine(candidate[tok.end:next]); ok {
				img.Caption = caption
				end = next
			}
		}
		blocks = append(blocks, img)
		pos = end
	}

	if text := strings.TrimSpace(candidate[pos:]); text != "" {
		blocks = append(blocks, Block{Type: BlockParagraph, Text: text})
	}
	return blocks
}

// captionLine accepts the text between an image URL and the next token (or
// candidate end). It is a caption only when it is a single non-empty line
// starting on the line after the URL.
func captionLine(after string) (string, bool) {
	if !strings.HasPrefix(after, "\n") {
		return "", false
	}
	rest := strings.TrimLeft(after, "\n")
	line, remainder, _ := strings.Cut(rest, "\n")
	line = strings.TrimSpace(line)
	if line == "" || strings.TrimSpace(remainder) != "" {
		return "", false
	}
	return line, true
}

func findImageTokens(candidate string) []imageToken {
	var tokens []imageToken

	for _, m := range markdownImageRe.FindAllStringSubmatchIndex(candidate, -1) {
		url := candidate[m[4]:m[5]]
		if !imageURLAnchoredRe.MatchString(url) {
			continue
		}
		tokens = append(tokens, imageToken{
			start:    m[0],
			end:      m[1],
			url:      url,
			caption:  strings.TrimSpace(candidate[m[2]:m[3]]),
			markdown: true,
		})
	}

	for _, m := range imageURLRe.FindAllStringIndex(candidate, -1) {
		if insideToken(tokens, m[0]) {
			continue
		}
		tokens = append(tokens, imageToken{start: m[0], end: m[1], url: candidate[m[0]:m[1]]})
	}

	sortTokens(tokens)
	return tokens
}

func insideToken(tokens []imageToken, pos int) bool {
	for _, tok := range tokens {
		if pos >= tok.start && pos < tok.end {
			return true
		}
	}
	return false
}

func sortTokens(tokens []imageToken) {
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j].start < tokens[j-1].start; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
}
