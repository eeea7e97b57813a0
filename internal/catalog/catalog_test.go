package catalog

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MixedLines(t *testing.T) {
	input := strings.Join([]string{
		"",
		"   ",
		"# Europe=https://example.com/europe",
		"  // Asia=https://example.com/asia",
		" Popular Cities = https://www.timeanddate.com/worldclock/ ",
		"Broken line without separator",
		"Empty=",
		"Africa=https://www.timeanddate.com/worldclock/africa.html",
		"Query=https://example.com/?a=b",
		"Africa=https://example.com/africa-v2",
	}, "\n")

	cat, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, Catalog{
		"Popular Cities": "https://www.timeanddate.com/worldclock/",
		"Africa":         "https://example.com/africa-v2",
		"Query":          "https://example.com/?a=b",
	}, cat)
}

func TestParse_WhitespaceOnlyValueIsKept(t *testing.T) {
	// Only an empty value is rejected; trimming happens afterwards.
	cat, err := Parse(strings.NewReader("Key=  \n"))
	require.NoError(t, err)
	assert.Equal(t, Catalog{"Key": ""}, cat)
}

func flatten(cat Catalog) string {
	var b strings.Builder
	for _, name := range cat.Names() {
		b.WriteString(name + "=" + cat[name] + "|")
	}
	return b.String()
}

func TestLoad(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "urls.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Afrika=A|Asia=A|Australasia=A|Europa=E|North Americas=N|Popular Cities=P|South Americas=S|", flatten(cat))
	assert.Equal(t, 7, cat.Len())
}

func TestLoad_SomeCommentedOut(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "urls-some-commented-out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Afrika=A|Asia=A|Europa=E|North Americas=N|South Americas=S|", flatten(cat))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: open")
}
