package route

import (
	"regexp"
	"strings"
)

var (
	restParam     = regexp.MustCompile(`^\[\.\.\.([^\]]+)\]$`)
	optionalParam = regexp.MustCompile(`^\[\[([^\]]+)\]\]$`)
	requiredParam = regexp.MustCompile(`^\[([^\]]+)\]$`)

	extension = regexp.MustCompile(`\.([\w-]+)$`)
	safeIdent = regexp.MustCompile(`^\w+$`)
	nonWord   = regexp.MustCompile(`\W`)
)

// ParsePath splits a slash-separated route path into tokens, one per
// segment, in order.
//
// Segments are classified in precedence rest ([...name]), optional
// ([[name]]), required ([name]). Anything else, including a segment that
// starts with "[" but matches none of the patterns, is static.
func ParsePath(path string) []PathToken {
	segments := strings.Split(path, "/")
	tokens := make([]PathToken, 0, len(segments))

	for i, orig := range segments {
		base, ext := orig, ""
		if loc := extension.FindStringIndex(orig); loc != nil {
			base, ext = orig[:loc[0]], orig[loc[0]:]
		}

		token := PathToken{
			Orig: orig,
			Base: base,
			Path: orig,
			Ext:  ext,
		}

		if i == 0 && orig == "index" {
			token.Path = "/"
		}

		if m := restParam.FindStringSubmatch(base); m != nil {
			token.Param = newParam(m[1], orig)
			token.Param.IsRest = true
		} else if m := optionalParam.FindStringSubmatch(base); m != nil {
			token.Param = newParam(m[1], orig)
			token.Param.IsOptional = true
		} else if m := requiredParam.FindStringSubmatch(base); m != nil {
			token.Param = newParam(m[1], orig)
			token.Param.IsRequired = true
		}

		tokens = append(tokens, token)
	}

	return tokens
}

func newParam(name, orig string) *ParamSpec {
	return &ParamSpec{Name: name, Const: paramConst(name, orig)}
}

// paramConst returns name if it is a valid identifier, otherwise name with
// non-word characters replaced and a hash of the raw segment appended.
func paramConst(name, orig string) string {
	if safeIdent.MatchString(name) {
		return name
	}
	return nonWord.ReplaceAllString(name, "_") + "_" + ShortHash(orig)
}
