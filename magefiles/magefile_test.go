//go:build mage

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKeepsStateDir(t *testing.T) {
	assert.NotContains(t, workDirs, stateDir)
	assert.NotContains(t, workDirs, ".grayscaler/secrets")
}
