package route

import (
	"cmp"
	"slices"
	"strings"
)

// PathPattern renders tokens as a router pattern:
//
//	books/[category]          → /books/:category
//	files/[[folder]]/[[id]]   → /files{/:folder}{/:id}
//	articles/[...path]        → /articles{/*path}
//	index                     → /
func PathPattern(tokens []PathToken) string {
	var b strings.Builder
	for _, t := range tokens {
		switch {
		case t.Param == nil:
			if t.Path == "/" {
				continue
			}
			b.WriteString("/" + t.Path)
		case t.Param.IsRest:
			b.WriteString("{/*" + t.Param.Name + t.Ext + "}")
		case t.Param.IsOptional:
			b.WriteString("{/:" + t.Param.Name + t.Ext + "}")
		default:
			b.WriteString("/:" + t.Param.Name + t.Ext)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// StaticSegments counts the literal segments of tokens.
func StaticSegments(tokens []PathToken) int {
	n := 0
	for _, t := range tokens {
		if t.Param == nil {
			n++
		}
	}
	return n
}

// SortBySpecificity orders items so that routes with more static segments
// come first; ties are broken by comparing rendered patterns byte-wise.
// The sort is stable.
//
// Given /users/account and /users/:id, the static route must be matched
// first or "account" would be captured as an id.
func SortBySpecificity[T any](items []T, tokensOf func(T) []PathToken) {
	slices.SortStableFunc(items, func(a, b T) int {
		at, bt := tokensOf(a), tokensOf(b)
		if c := cmp.Compare(StaticSegments(bt), StaticSegments(at)); c != 0 {
			return c
		}
		return strings.Compare(PathPattern(at), PathPattern(bt))
	})
}
