package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/xxxsen/curio/internal/model"
)

// The bracket form requested here is what citation.Parse consumes.
var answerPromptTmpl = template.Must(template.New("answer").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`Answer the following question based on the provided search results. Include relevant information from the sources, and cite the sources using [1], [2], etc.

Question: {{.Question}}

Search Results:
{{range $i, $s := .Sources}}{{if $i}}

{{end}}Source {{inc $i}}: "{{$s.Title}}"
{{$s.Snippet}}
URL: {{$s.URL}}{{end}}

Instructions:
1. Answer directly and clearly
2. Cite sources using numbers in square brackets [1], [2], etc.
3. Be factual and precise
4. If the sources don't contain enough information to fully answer the question, acknowledge this
5. Use a conversational, helpful tone

Your answer:`))

type answerPromptData struct {
	Question string
	Sources  []model.Source
}

// BuildAnswerPrompt numbers sources in order, so source i is cited as [i].
func BuildAnswerPrompt(question string, sources []model.Source) (string, error) {
	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, answerPromptData{Question: question, Sources: sources}); err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	return buf.String(), nil
}
