package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterEmptyBuildsNoClause(t *testing.T) {
	clause, args := Filter{}.Build("sqlite")
	if clause != "" || args != nil {
		t.Fatalf("expected empty clause, got %q %v", clause, args)
	}
}

func TestFilterBlankSearchIsIgnored(t *testing.T) {
	f := Filter{}.ContainsFold("posts.title", "   ")
	if len(f.Predicates()) != 0 {
		t.Fatalf("expected no predicates, got %+v", f.Predicates())
	}
}

func TestFilterCombinesPredicatesWithAnd(t *testing.T) {
	f := Filter{}.
		ContainsFold("posts.title", "Go").
		Equals("posts.published", true).
		In("posts.id", []string{"a", "b"})

	clause, args := f.Build("sqlite")

	wantClause := `unicode_fold(posts.title) LIKE unicode_fold(?) ESCAPE '\' AND posts.published = ? AND posts.id IN ?`
	if clause != wantClause {
		t.Fatalf("unexpected clause:\n got %s\nwant %s", clause, wantClause)
	}
	wantArgs := []any{"%Go%", true, []string{"a", "b"}}
	if diff := cmp.Diff(wantArgs, args); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

func TestFilterUsesILikeOnPostgres(t *testing.T) {
	clause, args := Filter{}.ContainsFold("posts.title", "École").Build("postgres")

	if want := `posts.title ILIKE ? ESCAPE '\'`; clause != want {
		t.Fatalf("unexpected clause:\n got %s\nwant %s", clause, want)
	}
	if args[0] != "%École%" {
		t.Fatalf("unexpected pattern %q", args[0])
	}
}

func TestFilterEscapesLikeWildcards(t *testing.T) {
	_, args := Filter{}.ContainsFold("categories.name", `100%_Off\`).Build("sqlite")
	if args[0] != `%100\%\_Off\\%` {
		t.Fatalf("unexpected escaped pattern %q", args[0])
	}
}

func TestFilterEmptyInMatchesNothing(t *testing.T) {
	clause, args := Filter{}.In("posts.id", nil).Build("sqlite")
	if clause != "1 = 0" || len(args) != 0 {
		t.Fatalf("expected contradiction, got %q %v", clause, args)
	}
}

func TestFilterBuildersDoNotShareState(t *testing.T) {
	base := Filter{}.Equals("posts.published", true)
	withSearch := base.ContainsFold("posts.title", "a")
	withOther := base.ContainsFold("posts.title", "b")

	if len(base.Predicates()) != 1 {
		t.Fatalf("base filter was mutated: %+v", base.Predicates())
	}
	if withSearch.Predicates()[1].Value != "a" || withOther.Predicates()[1].Value != "b" {
		t.Fatalf("derived filters share predicates: %+v / %+v", withSearch.Predicates(), withOther.Predicates())
	}
}
