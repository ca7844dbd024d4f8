package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks the migrations on disk before they are committed.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return validateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return validateFS(embedded, embeddedDir)
}

// validateFS reports every broken file at once: bad names, reused versions
// and missing goose annotations.
func validateFS(fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations in %q: %w", dir, err)
	}
	if files == nil {
		if _, err := fs.Stat(fsys, dir); err != nil {
			return fmt.Errorf("read dir %q: %w", dir, err)
		}
	}

	var problems error
	versions := make(map[string]string, len(files))
	for _, file := range files {
		name := path.Base(file)
		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if first, dup := versions[match[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, match[1], first))
			continue
		}
		versions[match[1]] = name

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for _, annotation := range requiredAnnotations {
			if !strings.Contains(string(content), annotation) {
				problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", name, annotation))
			}
		}
	}
	return problems
}
