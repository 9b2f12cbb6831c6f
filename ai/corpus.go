package ai

import (
	"bufio"
	"bytes"
	"code-lab/domain"
	"embed"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed corpus/examples.jsonl
var defaultCorpus embed.FS

const (
	defaultCorpusPath = "corpus/examples.jsonl"
	// MaxExamples bounds the few-shot section of a prompt.
	MaxExamples = 3
	maxLineSize = 1 << 20
)

// Corpus is the read-only example set loaded once at startup.
type Corpus struct {
	examples []domain.Example
}

// NewCorpus normalizes every supported language tag, lookups then compare exactly.
func NewCorpus(examples ...domain.Example) *Corpus {
	normalized := lo.Map(examples, func(ex domain.Example, _ int) domain.Example {
		if lang, err := domain.ParseLanguage(string(ex.Language)); err == nil {
			ex.Language = lang
		}
		return ex
	})
	return &Corpus{examples: normalized}
}

// LoadCorpus reads JSON lines from path, or the embedded set when path is empty.
func LoadCorpus(log *slog.Logger, path string) (*Corpus, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = defaultCorpus.ReadFile(defaultCorpusPath)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	c, err := ParseCorpus(log, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	log.Info("Example corpus loaded", "examples", c.Len(), "path", lo.Ternary(path == "", "embedded", path))
	return c, nil
}

// ParseCorpus skips blank and malformed lines, a broken row never fails the load.
func ParseCorpus(log *slog.Logger, r io.Reader) (*Corpus, error) {
	var examples []domain.Example
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ex domain.Example
		if err := json.Unmarshal([]byte(text), &ex); err != nil {
			log.Debug("Skipping malformed corpus line", "line", line, "error", err)
			continue
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewCorpus(examples...), nil
}

// Lookup returns at most n examples tagged with language, in corpus order.
func (c *Corpus) Lookup(language domain.Language, n int) []domain.Example {
	if c == nil || n <= 0 {
		return nil
	}
	matches := lo.Filter(c.examples, func(ex domain.Example, _ int) bool {
		return ex.Language == language
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.examples)
}
