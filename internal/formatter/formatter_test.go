package formatter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismacase/internal/transform"
)

func sampleReport() *transform.Report {
	return &transform.Report{Renames: []transform.Rename{
		{Kind: transform.RenamedModel, From: "auth_otp", To: "AuthOtp"},
		{Kind: transform.RenamedField, Model: "AuthOtp", From: "id", To: "id"},
		{Kind: transform.RenamedField, Model: "AuthOtp", From: "user_id", To: "userId"},
		{Kind: transform.RenamedField, Model: "AuthOtp", From: "created_at", To: "createdAt"},
		{Kind: transform.RenamedIndex, Model: "AuthOtp", From: "user_id", To: "userId"},
		{Kind: transform.RenamedModel, From: "Session", To: "Session"},
		{Kind: transform.RenamedField, Model: "Session", From: "token", To: "token"},
	}}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(sampleReport()))

	want := `MODEL auth_otp -> AuthOtp
  user_id -> userId
  created_at -> createdAt
  INDEX user_id -> userId

4 renamed (1 model, 2 fields, 1 index), 3 unchanged.
`
	assert.Equal(t, want, buf.String())
}

func TestTextFormatterFieldsOnly(t *testing.T) {
	report := &transform.Report{Renames: []transform.Rename{
		{Kind: transform.RenamedModel, From: "User", To: "User"},
		{Kind: transform.RenamedField, Model: "User", From: "first_name", To: "firstName"},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(report))
	assert.Equal(t, "MODEL User\n  first_name -> firstName\n\n1 renamed (0 models, 1 field, 0 indexes), 1 unchanged.\n", buf.String())
}

func TestTextFormatterNoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(&transform.Report{}))
	assert.Equal(t, "No identifiers changed.\n", buf.String())
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(sampleReport()))

	want := "# Rename Summary\n" +
		"\n" +
		"## AuthOtp\n" +
		"\n" +
		"Mapped from `auth_otp`.\n" +
		"\n" +
		"| Kind | From | To |\n" +
		"|------|------|----|\n" +
		"| field | `user_id` | `userId` |\n" +
		"| field | `created_at` | `createdAt` |\n" +
		"| index | `user_id` | `userId` |\n" +
		"\n" +
		"4 renamed (1 model, 2 fields, 1 index), 3 unchanged.\n"
	assert.Equal(t, want, buf.String())
}

func TestMarkdownFormatterNoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(&transform.Report{}))
	assert.Equal(t, "# Rename Summary\n\nNo identifiers changed.\n", buf.String())
}
