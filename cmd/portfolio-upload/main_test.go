package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	jpg := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(jpg, []byte("jpeg-bytes"), 0o600))

	files, closeAll, err := openFiles([]string{jpg})
	require.NoError(t, err)
	defer closeAll()

	require.Len(t, files, 1)
	assert.Equal(t, "a.jpg", files[0].Name)
	assert.Equal(t, int64(10), files[0].Size)
	assert.Equal(t, "image/jpeg", files[0].ContentType)

	body, err := io.ReadAll(files[0].Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
}

func TestOpenFiles_Missing(t *testing.T) {
	_, _, err := openFiles([]string{filepath.Join(t.TempDir(), "nope.png")})
	assert.ErrorContains(t, err, "nope.png")
}

func TestRootCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no files", args: []string{"--project", "P1"}, want: "requires at least 1 arg"},
		{name: "no project", args: []string{"a.jpg"}, want: `required flag(s) "project" not set`},
		{name: "bad category", args: []string{"--project", "P1", "--category", "thumbs", "a.jpg"}, want: "category must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := rootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
