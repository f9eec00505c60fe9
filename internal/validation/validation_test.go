package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type author struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=100"`
	LastName  string `json:"lastName" validate:"required,notblank,max=100"`
}

type post struct {
	Title   string  `json:"title" validate:"required,notblank,max=255"`
	Author  *author `json:"author" validate:"required"`
	Content string  `json:"content" validate:"required,notblank"`
}

func TestMissingFields(t *testing.T) {
	v := New()

	err := v.Struct(post{Title: "   ", Author: &author{FirstName: "Ada"}})
	require.Error(t, err)
	assert.Equal(t, []string{"author.lastName", "content", "title"}, MissingFields(err))

	err = v.Struct(post{Title: "t", Content: "c"})
	require.Error(t, err)
	assert.Equal(t, []string{"author"}, MissingFields(err))

	assert.NoError(t, v.Struct(post{Title: "t", Content: "c", Author: &author{FirstName: "a", LastName: "b"}}))
	assert.Nil(t, MissingFields(nil))
}

func TestTooLong(t *testing.T) {
	v := New()
	long := strings.Repeat("x", 256)

	err := v.Struct(post{Title: long, Content: "c", Author: &author{FirstName: strings.Repeat("a", 101), LastName: "b"}})
	require.Error(t, err)
	assert.Equal(t, []string{"author.firstName (max 100)", "title (max 255)"}, TooLong(err))
	assert.Empty(t, MissingFields(err))

	// 多字节字符按字符计数
	assert.NoError(t, v.Struct(post{Title: strings.Repeat("é", 255), Content: "c", Author: &author{FirstName: "a", LastName: "b"}}))
}

func TestMissingFields_IgnoresLength(t *testing.T) {
	v := New()

	err := v.Struct(post{Title: strings.Repeat("x", 300), Author: &author{FirstName: "a", LastName: "b"}})
	require.Error(t, err)
	assert.Equal(t, []string{"content"}, MissingFields(err))
	assert.Equal(t, []string{"title (max 255)"}, TooLong(err))
}
