package stages

import (
	"context"
	"path"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// Sequence runs several stage functions as one stage, stopping at the first error.
func Sequence(parts ...models.Stage) models.Stage {
	return func(ctx context.Context, st *models.State) error {
		for _, p := range parts {
			if p == nil {
				continue
			}
			if err := p(ctx, st); err != nil {
				return err
			}
		}
		return nil
	}
}

// IsSassPartial reports whether rel names a Sass partial (`_name.scss`).
func IsSassPartial(rel string) bool {
	return strings.HasPrefix(path.Base(rel), "_") && hasExt(rel, ".scss", ".sass")
}

// SassTransform prepares Sass entry points for Jekyll: the `.css.scss`
// double extension collapses and an empty front matter block is prepended
// so Jekyll compiles the file.
func SassTransform(rel string, data []byte) (Output, error) {
	if !hasExt(rel, ".scss", ".sass") || IsSassPartial(rel) {
		return Output{Rel: rel}, nil
	}
	target := rel
	for _, ext := range []string{".css.scss", ".css.sass"} {
		if strings.HasSuffix(strings.ToLower(rel), ext) {
			target = rel[:len(rel)-len(ext)] + path.Ext(rel)
		}
	}
	if strings.HasPrefix(string(data), "---\n") {
		return Output{Rel: target}, nil
	}
	out := append([]byte("---\n---\n"), data...)
	return Output{Rel: target, Data: out, Description: "Sass entry point prepared for Jekyll"}, nil
}

// StylesheetTrees copies a stylesheet directory: Sass partials go to _sass,
// everything else to dest with Sass entry points prepared.
func StylesheetTrees(src, dest string) models.Stage {
	return Sequence(
		CopyTree(TreeSpec{SourceSubdir: src, DestSubdir: "_sass", Filter: IsSassPartial}),
		CopyTree(TreeSpec{SourceSubdir: src, DestSubdir: dest, Filter: func(rel string) bool { return !IsSassPartial(rel) }, Transform: SassTransform}),
	)
}

// AssetDirs copies each named source directory to assets/<basename>.
func AssetDirs(root string, dirs ...string) models.Stage {
	parts := make([]models.Stage, 0, len(dirs))
	for _, d := range dirs {
		parts = append(parts, CopyTree(TreeSpec{SourceSubdir: path.Join(root, d), DestSubdir: path.Join(assetsDir, path.Base(d))}))
	}
	return Sequence(parts...)
}
