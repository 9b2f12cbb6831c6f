//go:build tools

// Package codelab pins the code generators run by go generate.
package codelab

import (
	_ "go.uber.org/mock/mockgen"
)
