package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidInput(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello", true},
		{"don't", true},
		{"e-mail", true},
		{"b2b", true},
		{"", false},
		{"1234", false},
		{"hi!", false},
		{"two words", false},
		{"zzz", false},
		{"zz", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidInput(tt.in), "%q", tt.in)
	}
}

func TestIsRepetitive(t *testing.T) {
	assert.True(t, IsRepetitive("ééé"))
	assert.False(t, IsRepetitive("éé"))
	assert.False(t, IsRepetitive("aab"))
}

func TestCase(t *testing.T) {
	assert.Equal(t, CaseLower, CaseOf("hello"))
	assert.Equal(t, CaseTitle, CaseOf("Hello"))
	assert.Equal(t, CaseTitle, CaseOf("H"))
	assert.Equal(t, CaseUpper, CaseOf("HELLO"))
	assert.Equal(t, CaseUpper, CaseOf("DON'T"))
	assert.Equal(t, CaseLower, CaseOf("'twas"))

	assert.Equal(t, "Hello", ApplyCase("hello", CaseTitle))
	assert.Equal(t, "Élan", ApplyCase("élan", CaseTitle))
	assert.Equal(t, "HELLO", ApplyCase("hello", CaseUpper))
	assert.Equal(t, "Paris", ApplyCase("Paris", CaseLower))
	assert.Equal(t, "", ApplyCase("", CaseTitle))
}

func TestSuggestionFilter(t *testing.T) {
	f := NewSuggestionFilter("The")
	assert.False(t, f.ShouldInclude("the"))
	assert.True(t, f.ShouldInclude("then"))
	assert.False(t, f.ShouldInclude("THEN"))
	assert.True(t, NewSuggestionFilter().ShouldInclude("x"))
}

func TestCreateRankList(t *testing.T) {
	assert.Equal(t, []uint16{1, 2, 3}, CreateRankList(3))
	assert.Nil(t, CreateRankList(0))
	ranks := CreateRankList(70000)
	assert.Equal(t, uint16(65535), ranks[len(ranks)-1])
}

type sample struct {
	Engine struct {
		Limit int  `toml:"limit"`
		On    bool `toml:"on"`
	} `toml:"engine"`
}

func TestTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	var in sample
	in.Engine.Limit = 9
	in.Engine.On = true
	require.NoError(t, SaveTOMLFile(in, path))

	var out sample
	unknown, err := LoadTOMLFile(path, &out)
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoadTOMLFileUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nlimit = 3\nextra = 1\n"), 0o644))
	var out sample
	unknown, err := LoadTOMLFile(path, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine.extra"}, unknown)
}

func TestParseTOMLWithRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	content := "[engine]\nlimit = \"ten\"\non = true\nname = \"x\"\nlist = [\"a\", 1, \"b\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var strict sample
	_, err := LoadTOMLFile(path, &strict)
	require.Error(t, err)

	doc, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	s, ok := ExtractSection(doc, "engine")
	require.True(t, ok)

	_, ok = s.Int("limit")
	assert.False(t, ok)
	on, ok := s.Bool("on")
	assert.True(t, ok)
	assert.True(t, on)
	name, _ := s.String("name")
	assert.Equal(t, "x", name)
	list, ok := s.Strings("list")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)

	_, ok = ExtractSection(doc, "missing")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("[broken"), 0o644))
	_, err = ParseTOMLWithRecovery(path)
	assert.Error(t, err)
}

func TestFS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	res := CheckDirStatus(dir)
	assert.True(t, res.Exists)
	assert.True(t, res.Writable)
	assert.NoError(t, res.Error)
	assert.True(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))
	assert.Equal(t, "unknown", GetAbsolutePath(""))
	assert.True(t, filepath.IsAbs(GetAbsolutePath("rel")))
}

func TestIsDataDir(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsDataDir(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dict_0001.bin"), []byte{0, 0, 0, 0}, 0o644))
	assert.True(t, IsDataDir(dir))
	assert.False(t, IsDataDir(filepath.Join(dir, "dict_0001.bin")))
}

func TestPathResolverDataDir(t *testing.T) {
	pr, err := NewPathResolver()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "words.txt"), []byte("a 1\n"), 0o644))
	assert.Equal(t, dir, pr.GetDataDir(dir))
	assert.Equal(t, []string{dir}, pr.DataDirCandidates(dir))

	candidates := pr.DataDirCandidates("data")
	assert.GreaterOrEqual(t, len(candidates), 3)
	assert.Equal(t, filepath.Join(pr.ConfigDir(), "data"), candidates[len(candidates)-1])
}
