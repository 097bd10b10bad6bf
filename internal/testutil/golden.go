package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenHelper compares rendered output with files under testdata/golden.
// Run the tests with -update to rewrite the fixtures.
type GoldenHelper struct {
	t *testing.T
	g *goldie.Goldie
}

// NewGoldenHelper creates a golden file helper rooted at goldenDir.
func NewGoldenHelper(t *testing.T, goldenDir string) *GoldenHelper {
	t.Helper()

	return &GoldenHelper{
		t: t,
		g: goldie.New(t,
			goldie.WithFixtureDir(goldenDir),
			goldie.WithNameSuffix(".golden"),
		),
	}
}

// AssertGolden compares actual with the named golden file.
func (h *GoldenHelper) AssertGolden(name string, actual []byte) {
	h.t.Helper()
	h.g.Assert(h.t, name, actual)
}

// AssertGoldenString is a convenience method for string content.
func (h *GoldenHelper) AssertGoldenString(name, actual string) {
	h.t.Helper()
	h.AssertGolden(name, []byte(actual))
}

// AssertGoldenJSON marshals actual as indented JSON and compares it.
func (h *GoldenHelper) AssertGoldenJSON(name string, actual any) {
	h.t.Helper()
	h.g.AssertJson(h.t, name, actual)
}
