package executor

import (
	"code-lab/domain"
	"path/filepath"
	"strings"
)

const (
	defaultBaseName  = "temp_code"
	defaultBinary    = "temp_out"
	defaultJavaClass = "Main"
)

// Toolchain is the dispatch record of one language. Command templates may
// reference {src}, {bin}, {class} and {dir}.
type Toolchain struct {
	Language  domain.Language
	Extension string
	// ClassBound toolchains need the file named after the declared public type.
	ClassBound bool
	Compile    []string
	Run        []string
	// Outputs are the files a successful compile must leave behind.
	Outputs []string
	// Requires lists the binaries that must be on PATH at startup.
	Requires []string
}

// DefaultToolchains is the fixed set of languages the server runs.
func DefaultToolchains() map[domain.Language]Toolchain {
	return map[domain.Language]Toolchain{
		domain.Python: {
			Language:  domain.Python,
			Extension: "py",
			Run:       []string{"python3", "{src}"},
			Requires:  []string{"python3"},
		},
		domain.Cpp: {
			Language:  domain.Cpp,
			Extension: "cpp",
			Compile:   []string{"g++", "{src}", "-o", "{bin}"},
			Run:       []string{"{bin}"},
			Outputs:   []string{"{bin}"},
			Requires:  []string{"g++"},
		},
		domain.Java: {
			Language:   domain.Java,
			Extension:  "java",
			ClassBound: true,
			Compile:    []string{"javac", "-d", "{dir}", "{src}"},
			Run:        []string{"java", "-cp", "{dir}", "{class}"},
			Outputs:    []string{"{dir}/{class}.class"},
			Requires:   []string{"javac", "java"},
		},
	}
}

// plan is a toolchain resolved against one workspace and one source text.
type plan struct {
	source  string
	compile []string
	run     []string
	outputs []string
}

func (t Toolchain) resolve(dir, code string) plan {
	base := defaultBaseName
	class := ""
	if t.ClassBound {
		class = JavaTypeName(code)
		base = class
	}
	source := filepath.Join(dir, base+"."+t.Extension)
	r := strings.NewReplacer(
		"{src}", source,
		"{bin}", filepath.Join(dir, defaultBinary),
		"{class}", class,
		"{dir}", dir,
	)
	expand := func(tmpl []string) []string {
		if len(tmpl) == 0 {
			return nil
		}
		out := make([]string, len(tmpl))
		for i, arg := range tmpl {
			out[i] = r.Replace(arg)
		}
		return out
	}
	return plan{
		source:  source,
		compile: expand(t.Compile),
		run:     expand(t.Run),
		outputs: expand(t.Outputs),
	}
}
