package proposer

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release version of proposer.
var Version = strings.TrimSpace(rawVersion)
