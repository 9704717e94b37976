package normalize

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Kind string

const (
	KindURL      Kind = "url"
	KindText     Kind = "text"
	KindQuestion Kind = "question"
	KindEmpty    Kind = "empty"
)

var questionLeads = []string{
	"what", "how", "where", "when", "who", "which", "why", "find", "search",
}

var summarizeLeads = []string{
	"summarize", "summary", "brief", "overview",
}

// Classify performs the cheap structural pass over raw input.
func Classify(input string) Kind {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return KindEmpty
	}
	if IsURL(trimmed) {
		return KindURL
	}
	if IsQuestion(trimmed) {
		return KindQuestion
	}
	return KindText
}

func IsURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Host != ""
}

func IsQuestion(s string) bool {
	if strings.HasSuffix(strings.TrimSpace(s), "?") {
		return true
	}
	return hasLeadWord(s, questionLeads)
}

func IsSummarizeRequest(s string) bool {
	return hasLeadWord(s, summarizeLeads)
}

func hasLeadWord(s string, words []string) bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	lead := strings.Trim(fields[0], ".,:;!?")
	for _, w := range words {
		if lead == w {
			return true
		}
	}
	return false
}

// StripMarkdown renders markdown down to its plain text content so stored
// notes and fetched articles normalize the same way before enrichment and
// embedding. Non-markdown input passes through unchanged apart from
// whitespace cleanup.
func StripMarkdown(input string) string {
	source := []byte(input)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if fenced, ok := node.(*ast.FencedCodeBlock); ok {
			var sb strings.Builder
			for i := 0; i < fenced.Lines().Len(); i++ {
				line := fenced.Lines().At(i)
				sb.Write(line.Value(source))
			}
			if code := strings.TrimSpace(sb.String()); code != "" {
				parts = append(parts, code)
			}
			continue
		}
		if txt := extractText(node, source); txt != "" {
			parts = append(parts, txt)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(input)
	}
	return strings.Join(parts, "\n\n")
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).SoftLineBreak() || node.(*ast.Text).HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// Truncate caps text at maxRunes using a head-only policy, cutting back to
// the last space so no word is split. Same input always yields the same
// output; embeddings computed from it stay deterministic.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
