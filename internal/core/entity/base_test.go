package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBaseDocument(t *testing.T) {
	doc := NewBaseDocument()

	assert.False(t, doc.ID.String() == "")
	assert.Equal(t, 1, doc.Version)
	assert.False(t, doc.DeletionMark)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestBaseDocument_TouchKeepsVersion(t *testing.T) {
	doc := NewBaseDocument()
	doc.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	before := doc.UpdatedAt

	doc.Touch()
	doc.Touch()

	// The version is the optimistic locking guard. Touch must never move it,
	// otherwise the guarded update compares against a value the store has
	// never seen and every write is rejected as a concurrent modification.
	assert.Equal(t, 1, doc.Version)
	assert.True(t, doc.UpdatedAt.After(before))
}

func TestBaseEntity_MarkDeleted(t *testing.T) {
	e := NewBaseEntity()
	e.MarkDeleted()
	assert.True(t, e.DeletionMark)
	assert.Equal(t, 1, e.Version)
}
