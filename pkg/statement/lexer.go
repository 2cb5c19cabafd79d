package statement

import (
	stderrors "errors"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
)

type token struct {
	kind  tokenKind
	text  string // identifier, punctuation, or the unquoted string value
	quote byte   // quote character of a string token
	end   int    // byte offset just past the token
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

var (
	errOpenComment = stderrors.New("unterminated block comment")
	errOpenString  = stderrors.New("unterminated string literal")
)

// lexResult is the token stream of a statement candidate plus the comments
// that were skipped while producing it.
type lexResult struct {
	tokens   []token
	comments []comment
}

type comment struct {
	offset int // byte offset of the comment start in the source
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// lex splits src into identifiers, strings and single-character punctuation.
// Block comments left open at the end of src return errOpenComment so the
// caller can keep accumulating lines; an unterminated quote is an error.
func lex(src string) (lexResult, error) {
	var res lexResult
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := i
			for end < len(src) && src[end] != '\n' {
				end++
			}
			res.comments = append(res.comments, comment{offset: i})
			i = end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := -1
			for k := i + 2; k+1 < len(src); k++ {
				if src[k] == '*' && src[k+1] == '/' {
					end = k + 2
					break
				}
			}
			if end < 0 {
				return res, errOpenComment
			}
			res.comments = append(res.comments, comment{offset: i})
			i = end
		case c == '\'' || c == '"':
			value, n, ok := lexString(src[i:])
			if !ok {
				return res, errOpenString
			}
			i += n
			res.tokens = append(res.tokens, token{kind: tokString, text: value, quote: c, end: i})
		default:
			r, size := utf8.DecodeRuneInString(src[i:])
			if isIdentStart(r) {
				start := i
				i += size
				for i < len(src) {
					r, size = utf8.DecodeRuneInString(src[i:])
					if !isIdentPart(r) {
						break
					}
					i += size
				}
				res.tokens = append(res.tokens, token{kind: tokIdent, text: src[start:i], end: i})
				continue
			}
			res.tokens = append(res.tokens, token{kind: tokPunct, text: src[i : i+size], end: i + size})
			i += size
		}
	}
	return res, nil
}

// lexString reads a quoted literal at the start of s and returns its
// contents and the number of bytes consumed including both quotes.
func lexString(s string) (string, int, bool) {
	quote := s[0]
	for k := 1; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '\n':
			return "", 0, false
		case quote:
			return s[1:k], k + 1, true
		}
	}
	return "", 0, false
}
