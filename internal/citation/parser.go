package citation

import (
	"math"
	"regexp"
	"strconv"

	"github.com/xxxsen/curio/internal/model"
)

// markerRe matches citation markers like [1], [02], [12]. RE2 \d is ASCII only.
var markerRe = regexp.MustCompile(`\[(\d+)\]`)

type Kind string

const (
	KindText     Kind = "text"
	KindCitation Kind = "citation"
)

// Segment is a contiguous span of an answer. Index is set only for citation segments.
type Segment struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Index int    `json:"citation_index,omitempty"`
}

func (s Segment) IsCitation() bool {
	return s.Kind == KindCitation
}

// Parse splits answer into plain text and citation segments in document order.
// Joining every segment's Text yields answer unchanged.
func Parse(answer string) []Segment {
	segments := make([]Segment, 0)
	last := 0
	for _, m := range markerRe.FindAllStringSubmatchIndex(answer, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: KindText, Text: answer[last:m[0]]})
		}
		segments = append(segments, Segment{
			Kind:  KindCitation,
			Text:  answer[m[0]:m[1]],
			Index: parseIndex(answer[m[2]:m[3]]),
		})
		last = m[1]
	}
	if last < len(answer) {
		segments = append(segments, Segment{Kind: KindText, Text: answer[last:]})
	}
	return segments
}

// parseIndex clamps indices that overflow int so they stay unresolvable.
func parseIndex(digits string) int {
	n, err := strconv.ParseInt(digits, 10, 0)
	if err != nil {
		return math.MaxInt
	}
	return int(n)
}

// Resolve binds a citation segment to its source. Plain segments and
// out-of-range indices do not resolve.
func Resolve(seg Segment, sources []model.Source) (model.Source, bool) {
	if !seg.IsCitation() {
		return model.Source{}, false
	}
	if seg.Index < 1 || seg.Index > len(sources) {
		return model.Source{}, false
	}
	return sources[seg.Index-1], true
}

// Indices returns the distinct citation indices of segs in first-seen order.
func Indices(segs []Segment) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, seg := range segs {
		if !seg.IsCitation() {
			continue
		}
		if _, ok := seen[seg.Index]; ok {
			continue
		}
		seen[seg.Index] = struct{}{}
		out = append(out, seg.Index)
	}
	return out
}
