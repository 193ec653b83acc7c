package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certer/internal/auth"
	"certer/internal/config"
)

func TestHashPasswordCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader("correct horse battery\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"hash-password"})
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	digest := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(digest, "$argon2id$"), digest)

	cfg := config.AuthConfig{Username: "admin", PasswordHash: digest}
	assert.NoError(t, auth.CheckCredentials(cfg, "admin", "correct horse battery"))
}

func TestReadPassword_RejectsEmpty(t *testing.T) {
	_, err := readPassword(strings.NewReader("\n"), &bytes.Buffer{})
	assert.EqualError(t, err, "password must not be empty")
}
