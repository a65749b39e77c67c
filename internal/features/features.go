// Package features turns catalog records into the feature texts fed to the vectorizer.
package features

import "strings"

// Default attribute lists, in concatenation order.
var (
	DefaultProductFields = []string{"name", "description", "category", "material", "technique", "region", "color"}
	DefaultStoreFields   = []string{"name", "district", "region"}
)

// Entity is a record that exposes named attributes.
type Entity interface {
	EntityID() int64
	Attribute(name string) (value string, known bool)
}

// Document is the feature text of one entity.
type Document struct {
	ID   int64
	Text string
}

// Build returns one Document per entity, in input order. For every field the entity
// knows, its value ("" when NULL) is joined with a single space in field order.
// Fields the entity does not know are skipped.
func Build[E Entity](entities []E, fields []string) []Document {
	docs := make([]Document, len(entities))
	parts := make([]string, 0, len(fields))
	for i, e := range entities {
		parts = parts[:0]
		for _, f := range fields {
			if v, known := e.Attribute(f); known {
				parts = append(parts, v)
			}
		}
		docs[i] = Document{ID: e.EntityID(), Text: strings.Join(parts, " ")}
	}
	return docs
}

// Texts returns the feature texts of docs in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// IDs returns the entity IDs of docs in order.
func IDs(docs []Document) []int64 {
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
