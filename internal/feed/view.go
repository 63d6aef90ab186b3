package feed

import (
	"strings"

	"noteally/internal/model"
)

// Uncategorized is the folder label used for notes without a subject.
const Uncategorized = "Uncategorized"

// Filter narrows notes to those whose title or subject contains search
// (case-insensitive). A non-nil subject further requires an exact,
// case-sensitive subject match. Order is preserved and nothing is paginated.
func Filter(notes []model.Note, search string, subject *string) []model.Note {
	needle := strings.ToLower(search)
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Subject), needle) {
			continue
		}
		if subject != nil && n.Subject != *subject {
			continue
		}
		out = append(out, n)
	}
	return out
}

// DeriveSubjects lists the distinct subjects of notes in first-seen order.
// Notes with an empty subject are grouped under Uncategorized.
func DeriveSubjects(notes []model.Note) []string {
	seen := make(map[string]struct{}, len(notes))
	out := make([]string, 0)
	for _, n := range notes {
		s := n.Subject
		if s == "" {
			s = Uncategorized
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Stats are the dashboard totals for a list of notes.
type Stats struct {
	Count      int `json:"count"`
	TotalLikes int `json:"totalLikes"`
	TotalViews int `json:"totalViews"`
}

// Add sums two Stats componentwise.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Count:      s.Count + o.Count,
		TotalLikes: s.TotalLikes + o.TotalLikes,
		TotalViews: s.TotalViews + o.TotalViews,
	}
}

// Aggregate counts notes and sums their likes and views.
func Aggregate(notes []model.Note) Stats {
	st := Stats{Count: len(notes)}
	for _, n := range notes {
		st.TotalLikes += n.Likes
		st.TotalViews += n.Views
	}
	return st
}
