package models

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_CountsAndSummary(t *testing.T) {
	res := NewResult("MkDocs", "run-1")
	res.AddChange(Change{FilePath: "_config.yml", Type: ChangeCreated})
	res.AddChange(Change{FilePath: "_pages/index.md", Type: ChangeConverted})
	res.AddChange(Change{FilePath: "_pages/guide.md", Type: ChangeConverted})
	res.AddChange(Change{FilePath: "assets/logo.png", Type: ChangeCopied})
	res.AddWarning("symlink skipped")
	res.Finish()

	counts := res.Counts()
	assert.Equal(t, 1, counts[ChangeCreated])
	assert.Equal(t, 2, counts[ChangeConverted])
	assert.Equal(t, 1, counts[ChangeCopied])
	assert.Equal(t, 0, counts[ChangeSkipped])

	s := res.Summary()
	assert.Equal(t, "warning", s.Outcome)
	assert.Equal(t, 4, s.Changes)
	assert.Equal(t, "MkDocs: 4 changes (1 created, 2 converted, 1 copied, 0 skipped), 1 warnings, 0 errors", s.String())

	assert.Equal(t, "_pages/guide.md", res.Changes[2].FilePath)
	assert.Equal(t, ChangeConverted, res.Changes[2].Type)
}

func TestResult_Outcome(t *testing.T) {
	res := NewResult("Zola", "r")
	assert.Equal(t, "success", res.Outcome())

	res.AddError("a.md: boom")
	assert.Equal(t, "partial", res.Outcome())

	res.StageResults[StageContent] = StageResultFatal
	assert.Equal(t, "failed", res.Outcome())

	res.StageResults[StageData] = StageResultCanceled
	assert.Equal(t, "canceled", res.Outcome())
}

func TestState_RecordStampsStage(t *testing.T) {
	res := NewResult("Nanoc", "r")
	st := NewState(Options{}, res, slog.New(slog.NewTextHandler(io.Discard, nil)))
	st.SetStage(StageLayouts)
	st.Record("_layouts/default.html", ChangeConverted, "converted ERB layout")
	st.RecordChange(Change{FilePath: "x", Type: ChangeCopied, Stage: StageStatic})

	require.Len(t, res.Changes, 2)
	assert.Equal(t, StageLayouts, res.Changes[0].Stage)
	assert.Equal(t, StageStatic, res.Changes[1].Stage)
}

func TestState_FailHonoursKeepGoing(t *testing.T) {
	boom := errors.New("boom")
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	strict := NewState(Options{}, NewResult("e", "r"), discard)
	require.ErrorIs(t, strict.Fail("a.md", boom), boom)
	assert.Empty(t, strict.Result.Errors)

	lenient := NewState(Options{KeepGoing: true}, NewResult("e", "r"), discard)
	require.NoError(t, lenient.Fail("a.md", boom))
	assert.Equal(t, []string{"a.md: boom"}, lenient.Result.Errors)
}

func TestState_DeferredUntilHandled(t *testing.T) {
	st := NewState(Options{}, NewResult("e", "r"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	st.Defer("content/_notes.md")
	st.Defer("layouts/default.html")
	st.RecordChange(Change{FilePath: "_layouts/default.html", Type: ChangeConverted, Source: "layouts/default.html"})
	st.Defer("layouts/default.html")

	assert.Equal(t, []string{"content/_notes.md"}, st.Unmigrated())
	assert.True(t, st.Handled("layouts/default.html"))
	assert.False(t, st.Handled("content/_notes.md"))
}

func TestState_WarnFileOncePerSource(t *testing.T) {
	st := NewState(Options{}, NewResult("e", "r"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	st.Defer("source/layouts/link.erb")
	st.WarnFile("source/layouts/link.erb", "symbolic link skipped")
	st.WarnFile("source/layouts/link.erb", "symbolic link skipped")

	assert.Equal(t, []string{"source/layouts/link.erb: symbolic link skipped"}, st.Result.Warnings)
	assert.Empty(t, st.Unmigrated())
}

func TestPipeline_AddIf(t *testing.T) {
	p := NewPipeline().
		Add(StageConfig, nil).
		AddIf(false, StageContent, nil).
		AddIf(true, StageDocumentation, nil)
	defs := p.Build()
	require.Len(t, defs, 2)
	assert.Equal(t, StageConfig, defs[0].Name)
	assert.Equal(t, StageDocumentation, defs[1].Name)
}

func TestState_Claim(t *testing.T) {
	st := NewState(Options{}, NewResult("e", "r"), nil)
	st.SetStage(StageContent)
	_, ok := st.Claim("assets/logo.png")
	require.True(t, ok)

	st.SetStage(StageStatic)
	owner, ok := st.Claim("assets/logo.png")
	require.False(t, ok)
	assert.Equal(t, StageContent, owner)
}
