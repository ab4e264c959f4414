package audit

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestEncode_Golden pins the exact wire bytes of the worked example. The
// golden file is the source of truth for the audit wire format: any change
// to field sets, discriminators, or canonicalization shows up as a diff
// here before it breaks downstream tooling.
//
// To regenerate the golden file, run:
//
//	go test ./internal/audit -update
func TestEncode_Golden(t *testing.T) {
	s := exampleSession(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(&buf, s.Snapshot()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "session", buf.Bytes())
}
