package executor

import "unicode"

var typeKeywords = map[string]struct{}{
	"class": {}, "interface": {}, "enum": {}, "record": {},
}

var typeModifiers = map[string]struct{}{
	"abstract": {}, "final": {}, "static": {}, "strictfp": {}, "sealed": {}, "non": {},
}

var javaReserved = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {}, "case": {}, "catch": {},
	"char": {}, "class": {}, "const": {}, "continue": {}, "default": {}, "do": {}, "double": {},
	"else": {}, "enum": {}, "extends": {}, "final": {}, "finally": {}, "float": {}, "for": {},
	"goto": {}, "if": {}, "implements": {}, "import": {}, "instanceof": {}, "int": {},
	"interface": {}, "long": {}, "native": {}, "new": {}, "package": {}, "private": {},
	"protected": {}, "public": {}, "return": {}, "short": {}, "static": {}, "strictfp": {},
	"super": {}, "switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {}, "true": {}, "false": {},
	"null": {}, "_": {},
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokPunct
)

type token struct {
	kind  tokenKind
	text  string
	depth int
}

// JavaTypeName returns the name of the public top-level type declared in src,
// or Main when there is none. Comments, string and char literals and text
// blocks are skipped, so a declaration quoted inside them never matches.
func JavaTypeName(src string) string {
	const (
		seekPublic = iota
		seekKeyword
		seekName
	)
	state := seekPublic
	for _, tok := range tokenize(src) {
		if tok.depth != 0 {
			state = seekPublic
			continue
		}
		switch state {
		case seekPublic:
			if tok.kind == tokIdent && tok.text == "public" {
				state = seekKeyword
			}
		case seekKeyword:
			switch {
			case tok.kind == tokIdent && isTypeKeyword(tok.text):
				state = seekName
			case tok.kind == tokIdent && isTypeModifier(tok.text):
			case tok.kind == tokPunct && (tok.text == "-" || tok.text == "@"):
			default:
				state = seekPublic
			}
		case seekName:
			if tok.kind == tokIdent && isJavaIdentifier(tok.text) {
				return tok.text
			}
			state = seekPublic
		}
	}
	return defaultJavaClass
}

func isTypeKeyword(s string) bool {
	_, ok := typeKeywords[s]
	return ok
}

func isTypeModifier(s string) bool {
	_, ok := typeModifiers[s]
	return ok
}

func isJavaIdentifier(s string) bool {
	if _, reserved := javaReserved[s]; reserved {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return s != ""
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// tokenize splits Java source into identifiers and punctuation, tagging each
// token with its brace depth. Literals and comments produce no tokens.
func tokenize(src string) []token {
	var tokens []token
	runes := []rune(src)
	depth := 0
	n := len(runes)
	for i := 0; i < n; {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i = skipBlockComment(runes, i+2)
		case r == '"' && i+2 < n && runes[i+1] == '"' && runes[i+2] == '"':
			i = skipTextBlock(runes, i+3)
		case r == '"' || r == '\'':
			i = skipQuoted(runes, i+1, r)
		case isIdentStart(r):
			start := i
			for i < n && isIdentPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), depth: depth})
		case r == '{':
			tokens = append(tokens, token{kind: tokPunct, text: "{", depth: depth})
			depth++
			i++
		case r == '}':
			if depth > 0 {
				depth--
			}
			tokens = append(tokens, token{kind: tokPunct, text: "}", depth: depth})
			i++
		default:
			tokens = append(tokens, token{kind: tokPunct, text: string(r), depth: depth})
			i++
		}
	}
	return tokens
}

func skipBlockComment(runes []rune, i int) int {
	for i+1 < len(runes) {
		if runes[i] == '*' && runes[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(runes)
}

// skipQuoted returns the index after the closing quote. An unterminated
// literal stops at the end of the line, like javac reports it.
func skipQuoted(runes []rune, i int, quote rune) int {
	for i < len(runes) {
		switch runes[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			return i + 1
		default:
			i++
		}
	}
	return len(runes)
}

func skipTextBlock(runes []rune, i int) int {
	for i < len(runes) {
		if runes[i] == '\\' {
			i += 2
			continue
		}
		if runes[i] == '"' && i+2 < len(runes) && runes[i+1] == '"' && runes[i+2] == '"' {
			return i + 3
		}
		i++
	}
	return len(runes)
}
