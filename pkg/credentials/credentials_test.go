package credentials

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

func pipeFile(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestReadSecretPipedInput(t *testing.T) {
	var out bytes.Buffer
	reader := &Terminal{In: pipeFile(t, "s3cret\n"), Out: &out}

	secret, err := reader.ReadSecret("Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
	assert.Contains(t, out.String(), "Password")
}

func TestReadSecretTrimsCRLF(t *testing.T) {
	reader := &Terminal{In: pipeFile(t, "s3cret\r\n"), Out: &bytes.Buffer{}}

	secret, err := reader.ReadSecret("Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}

func TestReadSecretEmptyInput(t *testing.T) {
	reader := &Terminal{In: pipeFile(t, ""), Out: &bytes.Buffer{}}

	_, err := reader.ReadSecret("Password")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCredentialRead))
}

func TestStaticReader(t *testing.T) {
	s := &Static{Secret: "hunter2"}

	secret, err := s.ReadSecret("Password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
	assert.Equal(t, 1, s.Calls)

	s.Err = errors.New(errors.ErrCredentialRead, "nope")
	_, err = s.ReadSecret("Password")
	require.Error(t, err)
	assert.Equal(t, 2, s.Calls)
}
