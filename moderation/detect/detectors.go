package detect

import (
	"context"
	"regexp"
	"strings"
)

// https://en.wikipedia.org/wiki/GTUBE
var gtubeString = "XJS*C4JDBQADN1.NSBN3*2IDNEN*GTUBE-STANDARD-ANTI-UBE-TEST-EMAIL*C.34X"

// Flags the standard anti-spam test string with full confidence. Useful for
// end-to-end verification of the scoring pipeline in live chats.
type GtubeDetector struct{}

func (d GtubeDetector) Name() string { return "gtube" }

func (d GtubeDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	if strings.Contains(msg.Text, gtubeString) {
		return 100, nil
	}
	return 0, nil
}

// Scores by presence of configured stop words. Matching is token-wise on the
// lower-cased text, with a crude de-pluralization pass.
type KeywordDetector struct {
	// lower-cased stop words
	Words map[string]bool
}

func NewKeywordDetector(words []string) *KeywordDetector {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = true
	}
	return &KeywordDetector{Words: m}
}

func (d *KeywordDetector) Name() string { return "keyword" }

func (d *KeywordDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	matches := 0
	for _, tok := range strings.Fields(strings.ToLower(msg.Text)) {
		tok = strings.Trim(tok, ".,!?;:\"'()[]")
		tok = strings.TrimSuffix(tok, "s")
		if d.Words[tok] {
			matches++
		}
	}
	switch {
	case matches == 0:
		return 0, nil
	case matches == 1:
		return 60, nil
	default:
		return 100, nil
	}
}

var linkPattern = regexp.MustCompile(`(?i)(https?://|t\.me/|tg://)\S+`)

// Scores by the number of links in the message. A single link is common in
// legitimate traffic; piles of links are the classic spam shape.
type LinkFloodDetector struct {
	// Links at or above this count score 100. Defaults to 3.
	MaxLinks int
}

func (d LinkFloodDetector) Name() string { return "link-flood" }

func (d LinkFloodDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	max := d.MaxLinks
	if max <= 0 {
		max = 3
	}
	links := len(linkPattern.FindAllString(msg.Text, -1))
	if links == 0 {
		return 0, nil
	}
	if links >= max {
		return 100, nil
	}
	return float64(links) / float64(max) * 100, nil
}

var mentionPattern = regexp.MustCompile(`@[A-Za-z0-9_]{4,}`)

// Scores by the number of distinct account mentions; mass-mention is a
// common lure pattern in group spam.
type MentionFloodDetector struct {
	// Mentions at or above this count score 100. Defaults to 5.
	MaxMentions int
}

func (d MentionFloodDetector) Name() string { return "mention-flood" }

func (d MentionFloodDetector) Score(ctx context.Context, msg *Message) (float64, error) {
	max := d.MaxMentions
	if max <= 0 {
		max = 5
	}
	seen := make(map[string]bool)
	for _, m := range mentionPattern.FindAllString(msg.Text, -1) {
		seen[strings.ToLower(m)] = true
	}
	n := len(seen)
	if n == 0 {
		return 0, nil
	}
	if n >= max {
		return 100, nil
	}
	return float64(n) / float64(max) * 100, nil
}
