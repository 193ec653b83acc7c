package csrgen

import (
	"context"
	"crypto"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certer/internal/certdir"
	"certer/internal/models"
)

type countingKeyGenerator struct {
	key   crypto.Signer
	err   error
	calls int
}

func (g *countingKeyGenerator) GenerateKey(bits int) (crypto.Signer, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.key, nil
}

type countingSigner struct {
	inner CSRSigner
	calls int
}

func (s *countingSigner) CreateCSR(req *Request, key crypto.Signer) ([]byte, error) {
	s.calls++
	return s.inner.CreateCSR(req, key)
}

func newTestManager(t *testing.T) (*Manager, *certdir.Dir, *countingKeyGenerator, *countingSigner) {
	t.Helper()

	dir, err := certdir.Open(t.TempDir())
	require.NoError(t, err)

	keys := &countingKeyGenerator{key: sharedTestKey(t)}
	signer := &countingSigner{inner: X509CSRSigner{}}
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	m := NewManager(dir, DefaultKeyBits, nil,
		WithKeyGenerator(keys),
		WithCSRSigner(signer),
		WithClock(clock),
	)
	return m, dir, keys, signer
}

var testProfile = models.SubjectProfile{
	CommonName: "srv1",
	Country:    "CH",
	DNSNames:   []string{"srv1.corp.local"},
}

func TestManager_ProduceGeneratesNewKey(t *testing.T) {
	m, dir, keys, _ := newTestManager(t)

	assert.False(t, m.KeyExists("srv1"))

	result := m.Produce(context.Background(), testProfile, false)

	require.True(t, result.Succeeded(), result.Log)
	assert.Equal(t, 1, keys.calls)
	assert.Equal(t, []string{"srv1-openssl.cnf", "srv1.key", "srv1.csr"}, result.GeneratedFiles)
	assert.Contains(t, result.CSR, "-----BEGIN CERTIFICATE REQUEST-----")
	assert.Contains(t, result.Log, "[2024-05-01 12:00:00] Generated CSR: srv1.csr")
	assert.True(t, m.KeyExists("srv1"))

	onDisk, err := dir.ReadFile("srv1.csr")
	require.NoError(t, err)
	assert.Equal(t, result.CSR, string(onDisk))

	info, err := os.Stat(filepath.Join(dir.Path(), "srv1.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestManager_ProduceReusesExistingKey(t *testing.T) {
	m, dir, keys, _ := newTestManager(t)

	first := m.Produce(context.Background(), testProfile, false)
	require.True(t, first.Succeeded())
	keyBefore, err := dir.ReadFile("srv1.key")
	require.NoError(t, err)

	second := m.Produce(context.Background(), testProfile, false)
	require.True(t, second.Succeeded(), second.Log)

	assert.Equal(t, 1, keys.calls)
	assert.Contains(t, second.Log, "Using existing private key: srv1.key")

	keyAfter, err := dir.ReadFile("srv1.key")
	require.NoError(t, err)
	assert.Equal(t, keyBefore, keyAfter)
}

func TestManager_ProduceForceRegenerate(t *testing.T) {
	m, _, keys, _ := newTestManager(t)

	first := m.Produce(context.Background(), testProfile, false)
	require.True(t, first.Succeeded())
	result := m.Produce(context.Background(), testProfile, true)

	require.True(t, result.Succeeded())
	assert.Equal(t, 2, keys.calls)
	assert.Contains(t, result.Log, "Generated new 2048-bit private key: srv1.key")
}

func TestManager_GenerateReuseMissingKeyFails(t *testing.T) {
	m, dir, keys, signer := newTestManager(t)

	result := m.Generate(context.Background(), testProfile, false)

	assert.Equal(t, models.GenerationFail, result.Status)
	assert.Equal(t, 0, keys.calls)
	assert.Equal(t, 0, signer.calls)
	assert.Empty(t, result.CSR)
	assert.Equal(t, []string{"srv1-openssl.cnf"}, result.GeneratedFiles)
	assert.Contains(t, result.Log, "ERROR: existing key expected but missing: srv1.key")
	assert.False(t, dir.Exists("srv1.key"))
	assert.False(t, dir.Exists("srv1.csr"))
}

func TestManager_KeyGenerationFailure(t *testing.T) {
	m, dir, keys, signer := newTestManager(t)
	keys.err = errors.New("entropy exhausted")

	result := m.Produce(context.Background(), testProfile, false)

	assert.Equal(t, models.GenerationFail, result.Status)
	assert.Equal(t, 0, signer.calls)
	assert.Contains(t, result.Log, "ERROR: failed to generate private key: entropy exhausted")
	assert.False(t, dir.Exists("srv1.csr"))
}

func TestManager_CSRFailure(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	profile := testProfile
	profile.IPAddresses = []string{"not-an-ip"}

	result := m.Produce(context.Background(), profile, false)

	assert.Equal(t, models.GenerationFail, result.Status)
	assert.Empty(t, result.CSR)
	assert.Equal(t, []string{"srv1-openssl.cnf", "srv1.key"}, result.GeneratedFiles)
	assert.Contains(t, result.Log, "ERROR: failed to generate CSR")
}

func TestManager_RequestConfigWritten(t *testing.T) {
	m, dir, _, _ := newTestManager(t)

	m.Produce(context.Background(), testProfile, false)

	cnf, err := dir.ReadFile("srv1-openssl.cnf")
	require.NoError(t, err)
	assert.Equal(t, BuildRequest(testProfile).OpenSSLConfig(DefaultKeyBits), string(cnf))
}
