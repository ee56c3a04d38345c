package usecase

import (
	"errors"
	"slices"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// ErrDuplicateRecord is returned by Collection.Add when the key is already
// present. The guard makes this unreachable through App.
var ErrDuplicateRecord = errors.New("repository is already in the collection")

// DefaultPalette is the color cycle used for chart series.
var DefaultPalette = []string{
	"#008FFB", "#00E396", "#FEB019", "#FF4560", "#775DD0",
	"#546E7A", "#26A69A", "#D10CE8",
}

// Collection is the authoritative, insertion-ordered set of loaded
// repositories. It is not safe for concurrent use; App serializes access.
type Collection struct {
	records []domain.RepositoryRecord
	palette []string
}

// NewCollection creates an empty collection. An empty palette falls back to
// DefaultPalette.
func NewCollection(palette []string) *Collection {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Collection{palette: slices.Clone(palette)}
}

// Add appends a record. It never overwrites an existing one.
func (c *Collection) Add(id domain.RepositoryIdentifier, series domain.Series, color string) error {
	if c.Contains(id) {
		return ErrDuplicateRecord
	}
	c.records = append(c.records, domain.RepositoryRecord{
		ID:     id,
		Series: slices.Clone(series),
		Color:  color,
	})
	return nil
}

// Remove deletes the record for id. Removing an absent id is a no-op.
func (c *Collection) Remove(id domain.RepositoryIdentifier) bool {
	before := len(c.records)
	c.records = slices.DeleteFunc(c.records, func(r domain.RepositoryRecord) bool {
		return r.ID == id
	})
	return len(c.records) != before
}

// List returns a copy of the records in insertion order.
func (c *Collection) List() []domain.RepositoryRecord {
	return slices.Clone(c.records)
}

// Contains reports whether id is loaded.
func (c *Collection) Contains(id domain.RepositoryIdentifier) bool {
	return slices.ContainsFunc(c.records, func(r domain.RepositoryRecord) bool {
		return r.ID == id
	})
}

// Len returns the number of loaded repositories.
func (c *Collection) Len() int {
	return len(c.records)
}

// NextColor picks the color for the next record by current size. Colors are
// not reassigned after removals, so two records may end up sharing one.
func (c *Collection) NextColor() string {
	return c.palette[len(c.records)%len(c.palette)]
}
