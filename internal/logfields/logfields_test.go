package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{Engine("mkdocs"), KeyEngine, "mkdocs"},
		{Stage("content"), KeyStage, "content"},
		{RunID("r1"), KeyRunID, "r1"},
		{Path("_posts/a.md"), KeyPath, "_posts/a.md"},
		{Source("/src"), KeySource, "/src"},
		{Dest("/dst"), KeyDest, "/dst"},
		{ChangeType("converted"), KeyChangeType, "converted"},
	}
	for _, c := range cases {
		assert.Equal(t, c.key, c.attr.Key)
		assert.Equal(t, c.val, c.attr.Value.String())
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	assert.Equal(t, int64(3), Count(3).Value.Int64())
	assert.InDelta(t, 1.5, DurationMS(1.5).Value.Float64(), 0.0001)
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Empty(t, Error(nil).Value.String())
}
