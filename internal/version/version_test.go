package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.4.0"
	assert.Equal(t, "srt 1.4.0 (git unknown, built unknown)", String())
}
