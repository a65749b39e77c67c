package features

import (
	"testing"

	"github.com/hyperjump/osusume/internal/models"
)

func TestBuild_Products(t *testing.T) {
	products := []*models.Product{
		{ID: 1, Name: models.StringPtr("Silla"), Description: models.StringPtr("madera roble"), Color: models.StringPtr("rojo")},
		{ID: 2, Name: models.StringPtr("Lampara")},
	}
	docs := Build(products, []string{"name", "description", "color"})
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID != 1 || docs[0].Text != "Silla madera roble rojo" {
		t.Errorf("doc 0: got %+v", docs[0])
	}
	// NULL attributes become empty strings, so separators are kept.
	if docs[1].Text != "Lampara  " {
		t.Errorf("doc 1: got %q", docs[1].Text)
	}
}

func TestBuild_UnknownFieldsSkipped(t *testing.T) {
	stores := []*models.Store{{ID: 7, Name: models.StringPtr("Taller"), Region: models.StringPtr("Norte")}}
	docs := Build(stores, []string{"name", "color", "region"})
	if docs[0].Text != "Taller Norte" {
		t.Errorf("got %q", docs[0].Text)
	}
}

func TestBuild_NoKnownFields(t *testing.T) {
	stores := []*models.Store{{ID: 1, Name: models.StringPtr("A")}, {ID: 2}}
	docs := Build(stores, []string{"technique", "material"})
	if len(docs) != 2 {
		t.Fatalf("expected one doc per entity, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Text != "" {
			t.Errorf("expected empty text, got %q", d.Text)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	docs := Build([]*models.Product{}, DefaultProductFields)
	if len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
	if len(Texts(docs)) != 0 || len(IDs(docs)) != 0 {
		t.Error("Texts/IDs of empty corpus should be empty")
	}
}

func TestTextsAndIDs(t *testing.T) {
	docs := []Document{{ID: 4, Text: "a"}, {ID: 9, Text: "b"}}
	if got := Texts(docs); got[0] != "a" || got[1] != "b" {
		t.Errorf("Texts: got %v", got)
	}
	if got := IDs(docs); got[0] != 4 || got[1] != 9 {
		t.Errorf("IDs: got %v", got)
	}
}
