package engines

import (
	"encoding/json"
	"path/filepath"
	"regexp"

	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
)

func fileAt(dir, rel string) bool { return fsutil.IsFile(filepath.Join(dir, filepath.FromSlash(rel))) }
func dirAt(dir, rel string) bool  { return fsutil.IsDir(filepath.Join(dir, filepath.FromSlash(rel))) }

func fileContains(dir, rel, needle string) bool {
	return fsutil.FileContains(filepath.Join(dir, filepath.FromSlash(rel)), needle)
}

// gemfileHas reports whether the Gemfile declares gem name (or a gem whose
// name starts with name followed by '-').
func gemfileHas(dir, name string) bool {
	data, err := fsutil.Sniff(filepath.Join(dir, "Gemfile"))
	if err != nil {
		return false
	}
	re := regexp.MustCompile(`(?m)^\s*gem\s+['"]` + regexp.QuoteMeta(name) + `(?:-[\w-]+)?['"]`)
	return re.Match(data)
}

// packageJSON is the subset of package.json detectors read.
type packageJSON struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readPackageJSON(dir string) (packageJSON, bool) {
	var pkg packageJSON
	data, err := fsutil.Sniff(filepath.Join(dir, "package.json"))
	if err != nil {
		return pkg, false
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return pkg, false
	}
	return pkg, true
}

// packageDependsOn reports whether package.json lists dep in dependencies or
// devDependencies.
func packageDependsOn(dir, dep string) bool {
	pkg, ok := readPackageJSON(dir)
	if !ok {
		return false
	}
	if _, ok := pkg.Dependencies[dep]; ok {
		return true
	}
	_, ok = pkg.DevDependencies[dep]
	return ok
}
