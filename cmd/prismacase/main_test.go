package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismacase"
)

const input = `model user_profile {
  id         Int    @id
  first_name String
}
`

const normalized = `model UserProfile {
  id        Int    @id @map("id")
  firstName String @map("first_name")

  @@map("user_profile")
}
`

// execute runs the CLI in a fresh working directory holding files
func execute(t *testing.T, files map[string]string, args ...string) (stdout, stderr string, dir string, err error) {
	t.Helper()

	dir = t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), dir, err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDryRunPrintsResult(t *testing.T) {
	stdout, _, dir, err := execute(t, map[string]string{"schema.prisma": input}, "--dry")
	require.NoError(t, err)

	assert.Equal(t, normalized, stdout)
	assert.Equal(t, input, readFile(t, filepath.Join(dir, "schema.prisma")))
}

func TestRewritesFileInPlace(t *testing.T) {
	stdout, stderr, dir, err := execute(t, map[string]string{"prisma/schema.prisma": input})
	require.NoError(t, err)

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "wrote schema")
	assert.Equal(t, normalized, readFile(t, filepath.Join(dir, "prisma", "schema.prisma")))
}

func TestExplicitSchemaPath(t *testing.T) {
	stdout, _, _, err := execute(t, map[string]string{"db/app.prisma": input}, "--dry", "db/app.prisma")
	require.NoError(t, err)
	assert.Equal(t, normalized, stdout)
}

func TestMissingSchema(t *testing.T) {
	_, stderr, _, err := execute(t, nil, "--dry")
	require.Error(t, err)
	assert.ErrorIs(t, err, prismacase.ErrInputNotFound)
	assert.Contains(t, stderr, "./prisma/schema.prisma")
}

func TestParseErrorNamesFile(t *testing.T) {
	_, _, dir, err := execute(t, map[string]string{"schema.prisma": "model x {\n  id Int @id(\n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema.prisma")
	assert.Equal(t, "model x {\n  id Int @id(\n", readFile(t, filepath.Join(dir, "schema.prisma")))
}

func TestSummary(t *testing.T) {
	_, stderr, _, err := execute(t, map[string]string{"schema.prisma": input}, "--dry", "--summary", "text")
	require.NoError(t, err)

	assert.Contains(t, stderr, "MODEL user_profile -> UserProfile\n")
	assert.Contains(t, stderr, "  first_name -> firstName\n")
}

func TestInvalidSummaryLeavesFile(t *testing.T) {
	_, _, dir, err := execute(t, map[string]string{"schema.prisma": input}, "--summary", "html")
	require.Error(t, err)
	assert.Equal(t, input, readFile(t, filepath.Join(dir, "schema.prisma")))
}

func TestDefaultConfigFile(t *testing.T) {
	files := map[string]string{
		"schema.prisma":    input,
		".prismacase.yaml": "overrides:\n  fields:\n    first_name: givenName\nskip_unchanged_maps: true\n",
	}
	stdout, _, _, err := execute(t, files, "--dry")
	require.NoError(t, err)

	assert.Contains(t, stdout, `givenName String @map("first_name")`)
	assert.NotContains(t, stdout, `@map("id")`)
}

func TestFlagsOverrideConfig(t *testing.T) {
	files := map[string]string{
		"schema.prisma": input,
		"custom.yaml":   "skip_unchanged_maps: true\n",
	}
	stdout, _, _, err := execute(t, files, "--dry", "--config", "custom.yaml", "--skip-unchanged-maps=false")
	require.NoError(t, err)
	assert.Equal(t, normalized, stdout)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, _, _, err := execute(t, map[string]string{"schema.prisma": input}, "--dry", "--config", "missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExcludeModelsFlag(t *testing.T) {
	stdout, _, _, err := execute(t, map[string]string{"schema.prisma": input}, "--dry", "--exclude-models", "user_profile")
	require.NoError(t, err)
	assert.Equal(t, input, stdout)
}

func TestDebugDumpsSchema(t *testing.T) {
	_, stderr, _, err := execute(t, map[string]string{"schema.prisma": input}, "--dry", "--debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "(*schema.Schema)")
	assert.Contains(t, stderr, `"first_name"`)
}

func TestPullToFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	conn, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE blog_posts (id INTEGER PRIMARY KEY, post_title TEXT NOT NULL)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	outPath := filepath.Join(dir, "schema.prisma")
	_, _, _, err = execute(t, nil, "pull", "--db-url", "sqlite://"+dbPath, "-o", outPath)
	require.NoError(t, err)

	out := readFile(t, outPath)
	assert.Contains(t, out, "model BlogPosts {")
	assert.Contains(t, out, `postTitle String @map("post_title")`)
	assert.Contains(t, out, `@@map("blog_posts")`)
}

func TestPullRequiresURL(t *testing.T) {
	_, _, _, err := execute(t, nil, "pull")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"users", "orders"}, splitList("users, orders"))
	assert.Equal(t, []string{"a"}, splitList(" a ,, "))
}
