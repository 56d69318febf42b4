package model

import (
	"encoding/json"
	"time"
)

type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackUpvote   Feedback = "upvote"
	FeedbackDownvote Feedback = "downvote"
)

func ParseFeedback(s string) (Feedback, bool) {
	switch Feedback(s) {
	case FeedbackNone, FeedbackUpvote, FeedbackDownvote:
		return Feedback(s), true
	}
	return FeedbackNone, false
}

// Toggle returns the feedback after the user selects v.
// Selecting the active value clears it.
func (f Feedback) Toggle(v Feedback) Feedback {
	if v == f {
		return FeedbackNone
	}
	return v
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	if f == FeedbackNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FeedbackNone
	if s == nil {
		return nil
	}
	if v, ok := ParseFeedback(*s); ok {
		*f = v
	}
	return nil
}

// MarshalYAML keeps none as an explicit null in exports.
func (f Feedback) MarshalYAML() (interface{}, error) {
	if f == FeedbackNone {
		return nil, nil
	}
	return string(f), nil
}

type Source struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Domain  string `json:"domain" yaml:"domain"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

type QueryResult struct {
	ID        string    `json:"id" yaml:"id"`
	Question  string    `json:"question" yaml:"question"`
	Answer    string    `json:"answer" yaml:"answer"`
	Sources   []Source  `json:"sources" yaml:"sources"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Feedback  Feedback  `json:"feedback" yaml:"feedback"`
}

// SourceFor resolves a 1-based citation index against the result's sources.
func (r QueryResult) SourceFor(index int) (Source, bool) {
	if index < 1 || index > len(r.Sources) {
		return Source{}, false
	}
	return r.Sources[index-1], true
}

// Clone returns a copy that shares no slices with r.
func (r QueryResult) Clone() QueryResult {
	out := r
	out.Sources = make([]Source, len(r.Sources))
	copy(out.Sources, r.Sources)
	return out
}
