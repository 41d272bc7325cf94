package segment

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Slugger normalizes heading text into URL-safe slugs and guarantees
// uniqueness within one report: a repeated heading gets a numeric suffix
// (summary, summary-1, summary-2, ...).
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

func (s *Slugger) Slug(heading string) string {
	base := slug.Make(heading)
	if base == "" {
		base = "section"
	}

	count, ok := s.seen[base]
	if !ok {
		s.seen[base] = 0
		return base
	}

	// Suffix candidates can themselves collide with literal headings like
	// "Summary 1", so keep probing until a free slug is found.
	for {
		count++
		candidate := fmt.Sprintf("%s-%d", base, count)
		if _, taken := s.seen[candidate]; !taken {
			s.seen[base] = count
			s.seen[candidate] = 0
			return candidate
		}
	}
}
