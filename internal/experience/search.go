package experience

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// maxQueryKeywords caps how many context keywords drive one lookup.
const maxQueryKeywords = 8

// QueryRelated returns records whose goal or lessons share keywords
// with the given context, ranked by how many keywords they match.
func (s *SQLiteStore) QueryRelated(ctx context.Context, related string, limit int) ([]*models.ReflectionRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	keywords := extractKeywords(related)
	if len(keywords) == 0 {
		return nil, nil
	}

	// One LIKE clause per keyword; candidates are re-ranked in Go.
	var clauses []string
	var args []interface{}
	for _, kw := range keywords {
		clauses = append(clauses, "(goal LIKE ? OR lessons LIKE ?)")
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(`
		SELECT id, plan_id, goal, classification, risks, lessons, created_at
		FROM reflections
		WHERE %s
		ORDER BY created_at DESC
		LIMIT 100
	`, strings.Join(clauses, " OR "))

	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("query related reflections: %w", err)
	}

	var candidates []*models.ReflectionRecord
	for rows.Next() {
		rec, err := scanReflection(rows)
		if err != nil {
			rows.Close()
			s.mu.RUnlock()
			return nil, err
		}
		candidates = append(candidates, rec)
	}
	rows.Close()
	s.mu.RUnlock()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return matchCount(candidates[i], keywords) > matchCount(candidates[j], keywords)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// extractKeywords pulls the significant words out of a context string.
func extractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;?!\"'()[]{}")
		if len(w) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == maxQueryKeywords {
			break
		}
	}
	return keywords
}

// matchCount counts how many keywords appear in a record's goal or lessons.
func matchCount(rec *models.ReflectionRecord, keywords []string) int {
	haystack := strings.ToLower(rec.Goal + " " + strings.Join(rec.Lessons, " "))
	count := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			count++
		}
	}
	return count
}
