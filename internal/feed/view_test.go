package feed

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"noteally/internal/model"
)

func ptr(s string) *string { return &s }

func ids(notes []model.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

var sample = []model.Note{
	{ID: "1", Title: "Midterm Review", Subject: "Biology", Likes: 3, Views: 10},
	{ID: "2", Title: "Limits and Derivatives", Subject: "Calculus", Likes: 1, Views: 4},
	{ID: "3", Title: "Cell biology cheat sheet", Subject: "biology", Likes: 0, Views: 2},
	{ID: "4", Title: "Untitled scan", Subject: "", Likes: 5, Views: 0},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		subject *string
		want    []string
	}{
		{name: "empty search returns everything in order", want: []string{"1", "2", "3", "4"}},
		{name: "matches title case-insensitively", search: "REVIEW", want: []string{"1"}},
		{name: "matches subject or title", search: "bio", want: []string{"1", "3"}},
		{name: "subject filter is exact and case-sensitive", subject: ptr("Biology"), want: []string{"1"}},
		{name: "search and subject combine", search: "cheat", subject: ptr("Biology"), want: []string{}},
		{name: "no match", search: "chemistry", want: []string{}},
		{name: "unknown subject", subject: ptr("History"), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample, tt.search, tt.subject)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestDeriveSubjects(t *testing.T) {
	notes := append(slices.Clone(sample), model.Note{ID: "5", Subject: ""}, model.Note{ID: "6", Subject: "Calculus"})

	assert.Equal(t, []string{"Biology", "Calculus", "biology", Uncategorized}, DeriveSubjects(notes))
	assert.Equal(t, []string{}, DeriveSubjects(nil))
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil))
	assert.Equal(t, Stats{Count: 4, TotalLikes: 9, TotalViews: 16}, Aggregate(sample))
}

func noteGen() *rapid.Generator[model.Note] {
	return rapid.Custom(func(t *rapid.T) model.Note {
		return model.Note{
			ID:      rapid.StringMatching(`[a-f0-9]{8}`).Draw(t, "id"),
			Title:   rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "title"),
			Subject: rapid.SampledFrom([]string{"", "Biology", "biology", "Math", "History"}).Draw(t, "subject"),
			Likes:   rapid.IntRange(0, 1000).Draw(t, "likes"),
			Views:   rapid.IntRange(0, 1000).Draw(t, "views"),
		}
	})
}

func TestFilter_SearchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := rapid.SliceOf(noteGen()).Draw(t, "notes")
		search := rapid.StringMatching(`[A-Za-z]{0,3}`).Draw(t, "search")

		got := Filter(notes, search, nil)

		want := make([]model.Note, 0)
		needle := strings.ToLower(search)
		for _, n := range notes {
			if strings.Contains(strings.ToLower(n.Title), needle) || strings.Contains(strings.ToLower(n.Subject), needle) {
				want = append(want, n)
			}
		}
		if !slices.EqualFunc(got, want, func(a, b model.Note) bool { return a.ID == b.ID && a.Title == b.Title }) {
			t.Fatalf("Filter(%q) = %v, want %v", search, ids(got), ids(want))
		}
		if search == "" && len(got) != len(notes) {
			t.Fatalf("empty search dropped notes: %d of %d", len(got), len(notes))
		}
	})
}

func TestFilter_SubjectProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := rapid.SliceOfN(noteGen(), 1, 30).Draw(t, "notes")
		v := rapid.SampledFrom(notes).Draw(t, "pick").Subject

		got := Filter(notes, "", &v)

		if len(got) > len(notes) {
			t.Fatalf("filtered list grew")
		}
		count := 0
		for _, n := range notes {
			if n.Subject == v {
				count++
			}
		}
		if count != len(got) {
			t.Fatalf("got %d notes for subject %q, want %d", len(got), v, count)
		}
		for _, n := range got {
			if n.Subject != v {
				t.Fatalf("note %s has subject %q, want %q", n.ID, n.Subject, v)
			}
		}
	})
}

func TestAggregate_Associative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.SliceOf(noteGen()).Draw(t, "a")
		b := rapid.SliceOf(noteGen()).Draw(t, "b")

		joined := append(slices.Clone(a), b...)
		if got, want := Aggregate(joined), Aggregate(a).Add(Aggregate(b)); got != want {
			t.Fatalf("Aggregate(a++b) = %+v, want %+v", got, want)
		}
	})
}

func TestDeriveSubjects_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := rapid.SliceOf(noteGen()).Draw(t, "notes")

		got := DeriveSubjects(notes)

		seen := map[string]bool{}
		for _, s := range got {
			if seen[s] {
				t.Fatalf("duplicate subject %q in %v", s, got)
			}
			seen[s] = true
		}

		// First-seen order: walking the notes must visit subjects in the same order.
		var order []string
		for _, n := range notes {
			s := n.Subject
			if s == "" {
				s = Uncategorized
			}
			if !slices.Contains(order, s) {
				order = append(order, s)
			}
		}
		if !slices.Equal(order, got) && !(len(order) == 0 && len(got) == 0) {
			t.Fatalf("DeriveSubjects = %v, want %v", got, order)
		}
	})
}
