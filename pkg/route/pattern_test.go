package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathPattern(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"index", "/"},
		{"books", "/books"},
		{"books/[category]", "/books/:category"},
		{"users/[id]/edit", "/users/:id/edit"},
		{"files/[[folder]]", "/files{/:folder}"},
		{"articles/[...path]", "/articles{/*path}"},
		{"feed.xml", "/feed.xml"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PathPattern(ParsePath(tt.path)), tt.path)
	}
}

func TestSortBySpecificity(t *testing.T) {
	names := []string{
		"users/[id]",
		"articles/[...path]",
		"users/account",
		"books",
		"books/[category]",
		"users/account/settings",
		"index",
	}

	SortBySpecificity(names, ParsePath)

	// equal static counts fall back to pattern order: "/" < "/articles..." < "/books" ...
	assert.Equal(t, []string{
		"users/account/settings",
		"users/account",
		"index",
		"articles/[...path]",
		"books",
		"books/[category]",
		"users/[id]",
	}, names)
}

func TestSortBySpecificityIsStable(t *testing.T) {
	type item struct {
		name string
		seq  int
	}
	items := []item{{"a/[x]", 1}, {"a/[x]", 2}, {"a/[x]", 3}}

	SortBySpecificity(items, func(i item) []PathToken { return ParsePath(i.name) })

	assert.Equal(t, 1, items[0].seq)
	assert.Equal(t, 2, items[1].seq)
	assert.Equal(t, 3, items[2].seq)
}

func TestStaticSegments(t *testing.T) {
	assert.Equal(t, 0, StaticSegments(ParsePath("[id]")))
	assert.Equal(t, 2, StaticSegments(ParsePath("users/[id]/edit")))
}
