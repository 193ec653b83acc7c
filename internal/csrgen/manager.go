package csrgen

import (
	"context"
	"crypto"
	"log/slog"
	"time"

	"certer/internal/certdir"
	"certer/internal/metrics"
	"certer/internal/models"
	"certer/internal/utils"
)

// Manager produces the key, CSR and request-config artifacts for a host in the
// certificate directory.
type Manager struct {
	dir     *certdir.Dir
	keys    KeyGenerator
	signer  CSRSigner
	keyBits int
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Manager)

func WithKeyGenerator(g KeyGenerator) Option {
	return func(m *Manager) { m.keys = g }
}

func WithCSRSigner(s CSRSigner) Option {
	return func(m *Manager) { m.signer = s }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(dir *certdir.Dir, keyBits int, logger *slog.Logger, opts ...Option) *Manager {
	if keyBits == 0 {
		keyBits = DefaultKeyBits
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		dir:     dir,
		keys:    RSAKeyGenerator{},
		signer:  X509CSRSigner{},
		keyBits: keyBits,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// KeyExists reports whether a private key for cn is already on disk.
func (m *Manager) KeyExists(cn string) bool {
	return m.dir.Exists(certdir.KeyFile(cn))
}

// Produce resolves the key decision and runs Generate. A new key is generated
// when forceRegenerate is set or no key exists yet.
func (m *Manager) Produce(ctx context.Context, profile models.SubjectProfile, forceRegenerate bool) models.GenerationResult {
	return m.Generate(ctx, profile, forceRegenerate || !m.KeyExists(profile.CommonName))
}

// Generate writes the request config, obtains a key and signs a CSR. When the
// existing key is to be reused but is gone, the run fails without attempting a
// CSR.
func (m *Manager) Generate(ctx context.Context, profile models.SubjectProfile, generateNewKey bool) (result models.GenerationResult) {
	cn := profile.CommonName
	runLog := utils.NewRunLog(m.now)
	result.Status = models.GenerationFail

	logger := m.logger.With("common_name", cn)

	defer func() {
		result.Log = runLog.String()
		metrics.CSRGenerationsTotal.WithLabelValues(string(result.Status)).Inc()
	}()

	runLog.Printf("Generating certificate components for %s", cn)

	req := BuildRequest(profile)

	cnfName := certdir.RequestConfigFile(cn)
	if err := m.dir.WriteFile(cnfName, []byte(req.OpenSSLConfig(m.keyBits))); err != nil {
		logger.Error("failed to write request config", "error", err)
		runLog.Errorf("failed to write request config %s: %v", cnfName, err)
		return result
	}
	result.GeneratedFiles = append(result.GeneratedFiles, cnfName)
	runLog.Printf("Wrote request config: %s", cnfName)

	if err := ctx.Err(); err != nil {
		runLog.Errorf("generation cancelled: %v", err)
		return result
	}

	keyName := certdir.KeyFile(cn)

	var key crypto.Signer
	if generateNewKey {
		var err error
		key, err = m.generateKey(keyName)
		if err != nil {
			metrics.KeyOperationsTotal.WithLabelValues(metrics.KeyOperationFailed).Inc()
			logger.Error("failed to generate private key", "error", err)
			runLog.Errorf("failed to generate private key: %v", err)
			runLog.Errorf("CSR generation skipped: private key not available")
			return result
		}
		metrics.KeyOperationsTotal.WithLabelValues(metrics.KeyOperationGenerated).Inc()
		runLog.Printf("Generated new %d-bit private key: %s", m.keyBits, keyName)
	} else {
		runLog.Printf("Using existing private key: %s", keyName)

		if !m.dir.Exists(keyName) {
			metrics.KeyOperationsTotal.WithLabelValues(metrics.KeyOperationFailed).Inc()
			logger.Warn("existing key expected but missing", "key", keyName)
			runLog.Errorf("existing key expected but missing: %s", keyName)
			return result
		}

		path, err := m.dir.File(keyName)
		if err == nil {
			key, err = LoadPrivateKey(path)
		}
		if err != nil {
			metrics.KeyOperationsTotal.WithLabelValues(metrics.KeyOperationFailed).Inc()
			logger.Error("failed to load existing private key", "error", err)
			runLog.Errorf("failed to load existing private key %s: %v", keyName, err)
			runLog.Errorf("CSR generation skipped: private key not available")
			return result
		}
		metrics.KeyOperationsTotal.WithLabelValues(metrics.KeyOperationReused).Inc()
	}
	result.GeneratedFiles = append(result.GeneratedFiles, keyName)

	csrName := certdir.CSRFile(cn)
	der, err := m.signer.CreateCSR(req, key)
	if err != nil {
		logger.Error("failed to generate CSR", "error", err)
		runLog.Errorf("failed to generate CSR: %v", err)
		return result
	}

	csrPEM := EncodeCSRPEM(der)
	if err := m.dir.WriteFile(csrName, csrPEM); err != nil {
		logger.Error("failed to write CSR", "error", err)
		runLog.Errorf("failed to write CSR %s: %v", csrName, err)
		return result
	}
	result.GeneratedFiles = append(result.GeneratedFiles, csrName)
	result.CSR = string(csrPEM)
	runLog.Printf("Generated CSR: %s", csrName)

	result.Status = models.GenerationSuccess
	logger.Info("generated certificate signing request", "new_key", generateNewKey, "files", result.GeneratedFiles)

	return result
}

func (m *Manager) generateKey(name string) (crypto.Signer, error) {
	key, err := m.keys.GenerateKey(m.keyBits)
	if err != nil {
		return nil, err
	}

	data, err := EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}

	if err := m.dir.WriteFile(name, data); err != nil {
		return nil, err
	}

	return key, nil
}
