package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

const (
	// DocumentationFile is the generated migration report at the destination root.
	DocumentationFile = "MIGRATION.md"
	gitignoreFile     = ".gitignore"
)

var gitignoreEntries = []string{"_site/", ".jekyll-cache/", ".jekyll-metadata", ".sass-cache/", "vendor/", ".bundle/"}

// Documentation is the final stage: it writes .gitignore and MIGRATION.md.
func Documentation(_ context.Context, st *models.State) error {
	if err := WriteGitignore(st); err != nil {
		return err
	}
	return WriteDocumentation(st, time.Now().UTC())
}

// WriteGitignore writes the Jekyll build artefact ignore list.
func WriteGitignore(st *models.State) error {
	return WriteCreated(st, gitignoreFile, []byte(strings.Join(gitignoreEntries, "\n")+"\n"), "Jekyll ignore rules")
}

// WriteDocumentation renders the migration report. Apart from the generation
// timestamp the output depends only on the ledger.
func WriteDocumentation(st *models.State, generated time.Time) error {
	res := st.Result
	var b strings.Builder
	fmt.Fprintf(&b, "# Migration report\n\n")
	fmt.Fprintf(&b, "This site was migrated from %s to Jekyll.\n\n", res.EngineName)
	fmt.Fprintf(&b, "- Run: `%s`\n", res.RunID)
	if title, ok := st.Site["title"].(string); ok && title != "" {
		fmt.Fprintf(&b, "- Site: %s\n", title)
	}
	if !st.Provenance.Empty() {
		rev := st.Provenance.Commit
		if st.Provenance.Branch != "" {
			rev += " (" + st.Provenance.Branch + ")"
		}
		fmt.Fprintf(&b, "- Source revision: `%s`\n", rev)
		if st.Provenance.Remote != "" {
			fmt.Fprintf(&b, "- Source remote: %s\n", st.Provenance.Remote)
		}
	}
	fmt.Fprintf(&b, "- Generated: %s\n", generated.Format(time.RFC3339))
	if len(res.ResumedStages) > 0 {
		names := make([]string, len(res.ResumedStages))
		for i, s := range res.ResumedStages {
			names[i] = string(s)
		}
		fmt.Fprintf(&b, "- Resumed stages: %s\n", strings.Join(names, ", "))
	}

	counts := res.Counts()
	b.WriteString("\n## Summary\n\n| Change | Files |\n| --- | --- |\n")
	for _, t := range models.ChangeTypes {
		fmt.Fprintf(&b, "| %s | %d |\n", t, counts[t])
	}
	fmt.Fprintf(&b, "| warnings | %d |\n", len(res.Warnings))
	if len(res.Errors) > 0 {
		fmt.Fprintf(&b, "| errors | %d |\n", len(res.Errors))
	}

	b.WriteString("\n## Changes\n\n")
	if len(res.Changes) == 0 {
		b.WriteString("No files were changed.\n")
	}
	for _, c := range res.Changes {
		fmt.Fprintf(&b, "- `%s` (%s): %s\n", c.FilePath, c.Type, c.Description)
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\nThese items need manual review.\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if len(res.Errors) > 0 {
		b.WriteString("\n## Errors\n\nThese files could not be migrated.\n\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	b.WriteString("\n## Next steps\n\n")
	b.WriteString("1. Add a `Gemfile` with `gem \"jekyll\"` and run `bundle install`.\n")
	b.WriteString("2. Run `bundle exec jekyll serve` and compare the result with the original site.\n")
	b.WriteString("3. Resolve the warnings above, starting with untranslated template constructs.\n")

	return WriteCreated(st, DocumentationFile, []byte(b.String()), "migration report")
}
