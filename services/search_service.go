package services

import (
	"sort"
	"strings"

	"quizadmin/models"
	"quizadmin/store"
)

type SearchResult struct {
	Index     int             `json:"index"`
	Relevance int             `json:"relevance"`
	Question  models.Question `json:"question"`
}

// SearchService scans the questions of one unit for free-text terms.
type SearchService struct {
	content *store.ContentStore
}

func NewSearchService(content *store.ContentStore) *SearchService {
	return &SearchService{content: content}
}

// Search scores every question of the unit: a term found anywhere counts
// one, and two more when it is in the question text. Headers and notes are
// skipped. Results are ordered by relevance, ties by position.
func (s *SearchService) Search(unitID, query string) ([]SearchResult, error) {
	view, ok := s.content.View(unitID)
	if !ok {
		return nil, ErrUnitNotFound
	}
	terms := strings.Fields(strings.ToLower(query))
	results := []SearchResult{}
	if len(terms) == 0 {
		return results, nil
	}

	for i, q := range view.Questions {
		question, rest, ok := searchText(q)
		if !ok {
			continue
		}
		all := question + " " + rest
		relevance := 0
		for _, term := range terms {
			if strings.Contains(all, term) {
				relevance++
				if strings.Contains(question, term) {
					relevance += 2
				}
			}
		}
		if relevance > 0 {
			results = append(results, SearchResult{Index: i, Relevance: relevance, Question: q})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	return results, nil
}

// searchText returns the lowercased question text and the remaining
// searchable text. ok is false for entries that are not searchable.
func searchText(q models.Question) (question, rest string, ok bool) {
	switch v := q.(type) {
	case models.TrueFalseQuestion:
		return strings.ToLower(v.Question), strings.ToLower(strings.Join(v.Options, " ") + " " + v.Explanation), true
	case models.ChoiceQuestion:
		return strings.ToLower(v.Question), strings.ToLower(strings.Join(v.Options, " ") + " " + v.Explanation), true
	case models.MultiChoiceQuestion:
		return strings.ToLower(v.Question), strings.ToLower(strings.Join(v.Options, " ") + " " + v.Explanation), true
	case models.QAItem:
		if v.IsMarker() {
			return "", "", false
		}
		return strings.ToLower(v.Question), strings.ToLower(v.Answer + " " + v.Explanation), true
	}
	return "", "", false
}
