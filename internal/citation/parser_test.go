package citation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/curio/internal/model"
)

func join(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []Segment
	}{
		{"empty", "", []Segment{}},
		{"no citations", "no citations here", []Segment{{Kind: KindText, Text: "no citations here"}}},
		{"two citations", "fact [1] more [2]", []Segment{
			{Kind: KindText, Text: "fact "},
			{Kind: KindCitation, Text: "[1]", Index: 1},
			{Kind: KindText, Text: " more "},
			{Kind: KindCitation, Text: "[2]", Index: 2},
		}},
		{"adjacent", "[1][2]", []Segment{
			{Kind: KindCitation, Text: "[1]", Index: 1},
			{Kind: KindCitation, Text: "[2]", Index: 2},
		}},
		{"non digit", "see [abc]", []Segment{{Kind: KindText, Text: "see [abc]"}}},
		{"unclosed", "see [1 and [2", []Segment{{Kind: KindText, Text: "see [1 and [2"}}},
		{"leading zero", "x [01]", []Segment{
			{Kind: KindText, Text: "x "},
			{Kind: KindCitation, Text: "[01]", Index: 1},
		}},
		{"zero", "[0]", []Segment{{Kind: KindCitation, Text: "[0]", Index: 0}}},
		{"markdown kept", "**bold** [3].", []Segment{
			{Kind: KindText, Text: "**bold** "},
			{Kind: KindCitation, Text: "[3]", Index: 3},
			{Kind: KindText, Text: "."},
		}},
		{"nested bracket", "[[1]]", []Segment{
			{Kind: KindText, Text: "["},
			{Kind: KindCitation, Text: "[1]", Index: 1},
			{Kind: KindText, Text: "]"},
		}},
		{"non ascii digits", "[١]", []Segment{{Kind: KindText, Text: "[١]"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.input)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.input, join(got))
		})
	}
}

func TestParseOverflowIndex(t *testing.T) {
	segs := Parse("big [99999999999999999999999]")
	require.Len(t, segs, 2)
	require.True(t, segs[1].IsCitation())
	require.Equal(t, math.MaxInt, segs[1].Index)
	_, ok := Resolve(segs[1], []model.Source{{ID: "a"}})
	require.False(t, ok)
}

func TestParseLossless(t *testing.T) {
	inputs := []string{
		"a[1]b[2]c",
		"[1]",
		"]]][[[",
		"line one [1]\n\nline two [22][3] end",
		"unicode ✓ [4] 文字 [x]",
		"[1] [1] [1]",
	}
	for _, in := range inputs {
		segs := Parse(in)
		require.Equal(t, in, join(segs))
		for _, s := range segs {
			require.NotEmpty(t, s.Text)
		}
	}
}

func TestResolve(t *testing.T) {
	sources := []model.Source{{ID: "s1"}, {ID: "s2"}}
	segs := Parse("a [1] b [2] c [5]")

	src, ok := Resolve(segs[1], sources)
	require.True(t, ok)
	require.Equal(t, "s1", src.ID)

	src, ok = Resolve(segs[3], sources)
	require.True(t, ok)
	require.Equal(t, "s2", src.ID)

	_, ok = Resolve(segs[5], sources)
	require.False(t, ok)
	require.Equal(t, 5, segs[5].Index)

	_, ok = Resolve(segs[0], sources)
	require.False(t, ok)
}

func TestIndices(t *testing.T) {
	require.Equal(t, []int{2, 1, 7}, Indices(Parse("[2] x [1] [2] [7]")))
	require.Empty(t, Indices(Parse("nothing")))
}
