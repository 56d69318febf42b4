package service

import "github.com/xxxsen/curio/internal/search"

type SuggestionService struct {
	limit int
}

func NewSuggestionService(limit int) *SuggestionService {
	return &SuggestionService{limit: limit}
}

func (s *SuggestionService) Suggest(partial string) []string {
	return search.Suggest(partial, s.limit)
}
