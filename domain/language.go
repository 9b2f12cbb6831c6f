package domain

import (
	"fmt"
	"strings"

	"code-lab/errors"
)

type Language string

const (
	Python Language = "python"
	Cpp    Language = "cpp"
	Java   Language = "java"
)

// Languages lists every toolchain the server knows how to run, in display order.
var Languages = []Language{Python, Cpp, Java}

// DefaultLanguage is the selection a freshly created room starts with.
const DefaultLanguage = Python

// ParseLanguage accepts the wire tag of a language, case-insensitively.
func ParseLanguage(tag string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(tag)))
	for _, l := range Languages {
		if l == lang {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedLanguage, tag)
}

func (l Language) String() string {
	return string(l)
}
