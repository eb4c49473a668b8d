package models

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotOf(t *testing.T) {
	icon := "📄"
	author := "u1"
	c := &Content{
		ContentID: "c1", ProjectID: "p1",
		Name: "n", Category: "page", Body: "b", Icon: &icon,
		CreatedAt: time.Unix(1, 0), UpdatedAt: time.Unix(2, 0),
	}

	got := SnapshotOf(c, &author, map[string]any{"reason": ReasonReplace})
	want := &ContentVersion{
		ContentID: "c1", ProjectID: "p1",
		Name: "n", Category: "page", Body: "b",
		AuthorID: &author,
		Meta:     map[string]any{"reason": ReasonReplace},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRestorePatch(t *testing.T) {
	v := &ContentVersion{Name: "n", Category: "cat", Body: "b"}
	p := v.RestorePatch()

	if *p.Name != "n" || *p.Category != "cat" || *p.Body != "b" || p.Icon != nil {
		t.Fatalf("unexpected patch: %+v", p)
	}

	// patch must not alias the version
	*p.Name = "changed"
	if v.Name != "n" {
		t.Fatalf("patch aliases version")
	}
}
