package citation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/xxxsen/curio/internal/model"
)

// Citation markers are swapped for private-use placeholders before markdown
// conversion so that "[1](x)" or "[1]" reference syntax is never interpreted.
const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

const (
	defaultCacheSize      = 1024
	defaultCacheTTL       = time.Hour
	defaultPreviewSources = 3
)

type RenderedCitation struct {
	Index    int           `json:"index"`
	Resolved bool          `json:"resolved"`
	Source   *model.Source `json:"source,omitempty"`
}

type Rendered struct {
	HTML      string             `json:"html"`
	Segments  []Segment          `json:"segments"`
	Citations []RenderedCitation `json:"citations"`
	Preview   []model.Source     `json:"preview_sources"`
}

type RendererConfig struct {
	CacheSize      int
	CacheTTL       time.Duration
	PreviewSources int
}

type Renderer struct {
	md      goldmark.Markdown
	cache   *expirable.LRU[string, Rendered]
	preview int
}

func NewRenderer(cfg RendererConfig) *Renderer {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.PreviewSources <= 0 {
		cfg.PreviewSources = defaultPreviewSources
	}
	return &Renderer{
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		cache:   expirable.NewLRU[string, Rendered](cfg.CacheSize, nil, cfg.CacheTTL),
		preview: cfg.PreviewSources,
	}
}

// Render converts the answer's plain segments from markdown to HTML and turns
// citation segments into links to their sources. Unresolvable citations are
// emitted as plain bracketed text.
func (r *Renderer) Render(result model.QueryResult) (Rendered, error) {
	key := cacheKey(result)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}
	segs := Parse(result.Answer)
	var src strings.Builder
	citations := make([]RenderedCitation, 0)
	for _, seg := range segs {
		if !seg.IsCitation() {
			src.WriteString(stripPlaceholders(seg.Text))
			continue
		}
		src.WriteRune(placeholderOpen)
		src.WriteString(strconv.Itoa(len(citations)))
		src.WriteRune(placeholderClose)
		rc := RenderedCitation{Index: seg.Index}
		if s, ok := Resolve(seg, result.Sources); ok {
			s := s
			rc.Resolved = true
			rc.Source = &s
		}
		citations = append(citations, rc)
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src.String()), &buf); err != nil {
		return Rendered{}, fmt.Errorf("render markdown: %w", err)
	}
	out := Rendered{
		HTML:      substitute(buf.String(), citations),
		Segments:  segs,
		Citations: citations,
		Preview:   previewSources(result.Sources, r.preview),
	}
	r.cache.Add(key, out)
	return out, nil
}

// escapedPlaceholderRe matches a placeholder that goldmark percent-encoded
// inside a link destination.
var escapedPlaceholderRe = regexp.MustCompile(`(?i)%EE%80%80(\d+)%EE%80%81`)

func stripPlaceholders(text string) string {
	if !strings.ContainsAny(text, string([]rune{placeholderOpen, placeholderClose})) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if r == placeholderOpen || r == placeholderClose {
			return -1
		}
		return r
	}, text)
}

func substitute(rendered string, citations []RenderedCitation) string {
	// Inside a URL a citation stays literal text.
	rendered = escapedPlaceholderRe.ReplaceAllStringFunc(rendered, func(m string) string {
		ordinal, err := strconv.Atoi(escapedPlaceholderRe.FindStringSubmatch(m)[1])
		if err != nil || ordinal < 0 || ordinal >= len(citations) {
			return m
		}
		return "%5B" + strconv.Itoa(citations[ordinal].Index) + "%5D"
	})
	var sb strings.Builder
	sb.Grow(len(rendered))
	rest := rendered
	for {
		start := strings.IndexRune(rest, placeholderOpen)
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexRune(rest[start:], placeholderClose)
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += start
		sb.WriteString(rest[:start])
		ordinal, err := strconv.Atoi(rest[start+len(string(placeholderOpen)) : end])
		if err != nil || ordinal < 0 || ordinal >= len(citations) {
			sb.WriteString(rest[start : end+len(string(placeholderClose))])
		} else {
			sb.WriteString(citationHTML(citations[ordinal]))
		}
		rest = rest[end+len(string(placeholderClose)):]
	}
	return sb.String()
}

func citationHTML(c RenderedCitation) string {
	label := "[" + strconv.Itoa(c.Index) + "]"
	if c.Resolved && isWebURL(c.Source.URL) {
		return fmt.Sprintf(`<a class="citation" href="%s" title="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(c.Source.URL), html.EscapeString(c.Source.Title), label)
	}
	return `<span class="citation citation-unresolved">` + label + `</span>`
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func previewSources(sources []model.Source, n int) []model.Source {
	if len(sources) < n {
		n = len(sources)
	}
	out := make([]model.Source, n)
	copy(out, sources[:n])
	return out
}

func cacheKey(result model.QueryResult) string {
	h := sha256.New()
	h.Write([]byte(result.Answer))
	for _, s := range result.Sources {
		h.Write([]byte{0})
		h.Write([]byte(s.URL))
		h.Write([]byte{0})
		h.Write([]byte(s.Title))
	}
	return hex.EncodeToString(h.Sum(nil))
}
