package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestPostFields_Apply(t *testing.T) {
	p := &Post{
		ID:      "p1",
		Title:   "A title",
		Author:  Author{FirstName: "Ada", LastName: "Lovelace"},
		Content: "body",
	}

	assert.True(t, PostFields{}.Empty())

	f := PostFields{Title: ptr("A better title"), AuthorLastName: ptr("Byron")}
	assert.False(t, f.Empty())
	f.Apply(p)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "A better title", p.Title)
	assert.Equal(t, Author{FirstName: "Ada", LastName: "Byron"}, p.Author)
	assert.Equal(t, "body", p.Content)
}

func TestAuthor_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Author{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Author{FirstName: "Ada"}.FullName())
	assert.Equal(t, "Lovelace", Author{LastName: "Lovelace"}.FullName())
}
