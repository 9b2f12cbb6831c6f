package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJavaTypeName(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"plain public class", "public class Hello { public static void main(String[] a) {} }", "Hello"},
		{"modifiers", "public final class Solver {}", "Solver"},
		{"generic type", "public class Box<T> { T v; }", "Box"},
		{"record", "public record Point(int x, int y) {}", "Point"},
		{"interface", "public interface Shape {}", "Shape"},
		{"annotation type", "public @interface Marker {}", "Marker"},
		{"non-sealed", "public non-sealed class Leaf extends Node {}", "Leaf"},
		{"annotated", "@SuppressWarnings(\"unused\")\npublic class Quiet {}", "Quiet"},
		{"newlines between tokens", "public\n\tclass\n  Spaced\n{}", "Spaced"},
		{"package and imports", "package a.b;\nimport java.util.*;\n\npublic class App {}", "App"},
		{"line comment", "// public class Fake {}\npublic class Real {}", "Real"},
		{"block comment", "/* public class Fake {} */ public class Real {}", "Real"},
		{"string literal", "class A { String s = \"public class Fake {\"; }\npublic class Real {}", "Real"},
		{"char literal brace", "class A { char c = '{'; }\npublic class Real {}", "Real"},
		{"text block", "class A { String s = \"\"\"\n public class Fake {}\n\"\"\"; }\npublic class Real {}", "Real"},
		{"nested public class only", "class Outer { public class Inner {} }", "Main"},
		{"no public type", "class Hello { public static void main(String[] a) {} }", "Main"},
		{"empty source", "", "Main"},
		{"truncated declaration", "public class", "Main"},
		{"keyword as name", "public class class {}", "Main"},
		{"digit name", "public class 9Lives {}", "Main"},
		{"unterminated comment", "/* public class Fake {}", "Main"},
		{"unicode name", "public class Überblick {}", "Überblick"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, JavaTypeName(tc.src))
		})
	}
}
