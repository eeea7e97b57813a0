// Package catalog loads the list of world clock pages to download.
package catalog

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Catalog maps a logical page name to the page URL
type Catalog map[string]string

// Names returns the page names in sorted order
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of pages
func (c Catalog) Len() int {
	return len(c)
}

// Load reads a catalog file. A missing or unreadable file is an error the
// caller should treat as fatal.
func Load(path string) (Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s (it lists the pages to download, one name=url per line)", path)
	}
	defer func() { _ = file.Close() }()

	cat, err := Parse(file)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return cat, nil
}

// Parse reads name=url lines. Blank lines and lines starting with '#' or
// '//' are skipped, as are lines without a value. Later names overwrite
// earlier ones.
func Parse(r io.Reader) (Catalog, error) {
	cat := make(Catalog)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !usable(line) {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found || value == "" {
			continue
		}
		cat[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: scan")
	}

	return cat, nil
}

func usable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "//")
}
