package workflow

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/csrgen"
	"certer/internal/enrollment"
	"certer/internal/hostconfig"
	"certer/internal/models"
)

type fakeMaterial struct {
	existing map[string]bool
	result   models.GenerationResult

	calls          int
	generateNewKey bool
	profile        models.SubjectProfile
}

func (f *fakeMaterial) KeyExists(cn string) bool {
	return f.existing[cn]
}

func (f *fakeMaterial) Produce(_ context.Context, p models.SubjectProfile, forceRegenerate bool) models.GenerationResult {
	f.calls++
	f.generateNewKey = forceRegenerate || !f.existing[p.CommonName]
	f.profile = p
	return f.result
}

type staticKeyGenerator struct {
	key crypto.Signer
}

func (g staticKeyGenerator) GenerateKey(int) (crypto.Signer, error) {
	return g.key, nil
}

type fakeEnroller struct {
	result *enrollment.Result
	calls  int
	req    enrollment.Request
}

func (f *fakeEnroller) Enroll(_ context.Context, req enrollment.Request) *enrollment.Result {
	f.calls++
	f.req = req
	return f.result
}

type failingStore struct {
	hostconfig.Store
}

func (failingStore) Save(context.Context, string, models.SubjectProfile) error {
	return errors.New("disk full")
}

func (failingStore) Load(context.Context, string) (*models.SubjectProfile, error) {
	return nil, hostconfig.ErrNotFound
}

var testDefaults = config.SubjectDefaults{
	Organization:       "Example AG",
	OrganizationalUnit: "IT",
	City:               "Bern",
	State:              "BE",
	Country:            "CH",
}

func successfulGeneration(cn string) models.GenerationResult {
	return models.GenerationResult{
		GeneratedFiles: []string{
			certdir.RequestConfigFile(cn),
			certdir.KeyFile(cn),
			certdir.CSRFile(cn),
		},
		Status: models.GenerationSuccess,
		Log:    "[2024-05-01 12:00:00] Generated CSR: " + certdir.CSRFile(cn) + "\n",
		CSR:    "-----BEGIN CERTIFICATE REQUEST-----\nMIIB\n-----END CERTIFICATE REQUEST-----\n",
	}
}

type machineFixture struct {
	machine  *Machine
	dir      *certdir.Dir
	hosts    hostconfig.Store
	material *fakeMaterial
	enroller *fakeEnroller
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()

	dir, err := certdir.Open(t.TempDir())
	require.NoError(t, err)

	f := &machineFixture{
		dir:      dir,
		hosts:    hostconfig.NewFileStore(dir),
		material: &fakeMaterial{existing: map[string]bool{}, result: successfulGeneration("srv1")},
		enroller: &fakeEnroller{result: &enrollment.Result{
			Status:             models.EnrollmentSuccess,
			Certificate:        []byte("-----BEGIN CERTIFICATE-----\nMIIC\n-----END CERTIFICATE-----\n"),
			VerificationOutput: "srv1.crt.tmp: OK",
			Log:                "[2024-05-01 12:00:01] Certificate verification successful\n",
		}},
	}
	f.machine = NewMachine(f.hosts, f.material, f.enroller, dir, testDefaults, nil)
	f.machine.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *machineFixture) advance(t *testing.T, hostname string) State {
	t.Helper()
	s, err := f.machine.Apply(context.Background(), Fresh(), Input{Action: ActionAdvance, Hostname: hostname})
	require.NoError(t, err)
	return s
}

func TestMachine_AdvanceWithoutStoredConfig(t *testing.T) {
	f := newMachineFixture(t)

	s := f.advance(t, "  srv1 ")

	assert.Equal(t, models.StepCollectDetails, s.Step)
	require.NotNil(t, s.Draft)
	assert.Equal(t, "srv1", s.Draft.CommonName)
	assert.Empty(t, s.Draft.DNSNames)
	assert.Empty(t, s.Draft.IPAddresses)
	assert.Equal(t, "Example AG", s.Draft.Organization)
	assert.Equal(t, "CH", s.Draft.Country)
	assert.False(t, s.KeyExists)
}

func TestMachine_AdvanceWithStoredConfig(t *testing.T) {
	f := newMachineFixture(t)
	f.material.existing["srv1"] = true

	require.NoError(t, f.hosts.Save(context.Background(), "srv1", models.SubjectProfile{
		CommonName:   "old-name",
		Organization: "Stored Org",
		Country:      "DE",
		DNSNames:     []string{"www.srv1", "api.srv1"},
		IPAddresses:  []string{"10.0.0.1"},
	}))

	s := f.advance(t, "srv1")

	require.NotNil(t, s.Draft)
	assert.Equal(t, "srv1", s.Draft.CommonName)
	assert.Equal(t, "Stored Org", s.Draft.Organization)
	assert.Equal(t, "DE", s.Draft.Country)
	assert.Equal(t, []string{"www.srv1", "api.srv1"}, s.Draft.DNSNames)
	assert.Equal(t, []string{"10.0.0.1"}, s.Draft.IPAddresses)
	assert.True(t, s.KeyExists)
}

func TestMachine_AdvanceRejectsBadHostname(t *testing.T) {
	f := newMachineFixture(t)

	for _, hostname := range []string{"", "   ", "../etc", "a/b", ".hidden"} {
		t.Run(hostname, func(t *testing.T) {
			s, err := f.machine.Apply(context.Background(), Fresh(), Input{Action: ActionAdvance, Hostname: hostname})
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, Fresh(), s)
		})
	}
}

func TestMachine_Retreat(t *testing.T) {
	f := newMachineFixture(t)
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{Action: ActionRetreat})
	require.NoError(t, err)
	assert.Equal(t, Fresh(), s)
}

func TestMachine_SubmitSuccess(t *testing.T) {
	f := newMachineFixture(t)
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{
		Action: ActionSubmit,
		Profile: models.SubjectProfile{
			CommonName:   "ignored",
			Organization: "Example AG",
			Country:      "CH",
			DNSNames:     []string{"srv1, www.srv1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StepShowResult, s.Step)
	assert.True(t, s.JustCompleted)
	assert.Nil(t, s.Draft)
	assert.Equal(t, models.GenerationSuccess, s.Status)
	assert.Equal(t, []string{"srv1-openssl.cnf", "srv1.key", "srv1.csr", "srv1.crt"}, s.GeneratedFiles)
	require.NotNil(t, s.Enrollment)
	assert.Equal(t, models.EnrollmentSuccess, s.Enrollment.Status)

	assert.Equal(t, 1, f.material.calls)
	assert.True(t, f.material.generateNewKey, "no key on disk means a new key")
	assert.Equal(t, "srv1", f.material.profile.CommonName)
	assert.Equal(t, []string{"srv1", "www.srv1"}, f.material.profile.DNSNames)

	assert.Equal(t, 1, f.enroller.calls)
	assert.Equal(t, "srv1", f.enroller.req.Name)

	crt, err := f.dir.ReadFile("srv1.crt")
	require.NoError(t, err)
	assert.Contains(t, string(crt), "BEGIN CERTIFICATE")

	assert.Contains(t, s.Log, "Generated CSR: srv1.csr")
	assert.Contains(t, s.Log, "--- CA Certificate Request Log ---")
	assert.Contains(t, s.Log, "Certificate verification successful")
	assert.Contains(t, s.Log, "Certificate fetched from CA and saved: srv1.crt")

	stored, err := f.hosts.Load(context.Background(), "srv1")
	require.NoError(t, err)
	assert.Equal(t, "Example AG", stored.Organization)

	shown := Observe(s)
	assert.Equal(t, models.StepShowResult, shown.Step)
	assert.Equal(t, Fresh(), Observe(shown))
}

func TestMachine_SubmitReusesExistingKey(t *testing.T) {
	f := newMachineFixture(t)
	f.material.existing["srv1"] = true
	s := f.advance(t, "srv1")

	_, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit, Profile: models.SubjectProfile{}})
	require.NoError(t, err)
	assert.False(t, f.material.generateNewKey)

	s = f.advance(t, "srv1")
	_, err = f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit, ForceRegenerate: true})
	require.NoError(t, err)
	assert.True(t, f.material.generateNewKey)
}

func TestMachine_SubmitChecksKeyFileAtSubmitTime(t *testing.T) {
	t.Run("key removed after advance", func(t *testing.T) {
		f := newMachineFixture(t)
		f.material.existing["srv1"] = true
		s := f.advance(t, "srv1")
		require.True(t, s.KeyExists)

		delete(f.material.existing, "srv1")

		_, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
		require.NoError(t, err)
		assert.True(t, f.material.generateNewKey)
	})

	t.Run("key created after advance", func(t *testing.T) {
		f := newMachineFixture(t)
		s := f.advance(t, "srv1")
		require.False(t, s.KeyExists)

		f.material.existing["srv1"] = true

		_, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
		require.NoError(t, err)
		assert.False(t, f.material.generateNewKey)
	})
}

func TestMachine_SubmitRegeneratesDeletedKeyWithRealManager(t *testing.T) {
	dir, err := certdir.Open(t.TempDir())
	require.NoError(t, err)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	keyPEM, err := csrgen.EncodePrivateKeyPEM(key)
	require.NoError(t, err)
	require.NoError(t, dir.WriteFile("srv1.key", keyPEM))

	manager := csrgen.NewManager(dir, csrgen.DefaultKeyBits, nil, csrgen.WithKeyGenerator(staticKeyGenerator{key: key}))
	enroller := &fakeEnroller{result: &enrollment.Result{
		Status:      models.EnrollmentSuccess,
		Certificate: []byte("-----BEGIN CERTIFICATE-----\nMIIC\n-----END CERTIFICATE-----\n"),
	}}
	machine := NewMachine(hostconfig.NewFileStore(dir), manager, enroller, dir, testDefaults, nil)

	s, err := machine.Apply(context.Background(), Fresh(), Input{Action: ActionAdvance, Hostname: "srv1"})
	require.NoError(t, err)
	require.True(t, s.KeyExists)

	require.NoError(t, dir.Remove("srv1.key"))

	s, err = machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
	require.NoError(t, err)
	assert.Equal(t, models.GenerationSuccess, s.Status, s.Log)
	assert.Equal(t, 1, enroller.calls)
	assert.True(t, dir.Exists("srv1.key"))
	assert.NotContains(t, s.Log, "existing key expected but missing")
}

func TestMachine_SubmitCAErrorThenReset(t *testing.T) {
	f := newMachineFixture(t)
	f.enroller.result = &enrollment.Result{
		Status:  models.EnrollmentError,
		Message: "Failed to submit certificate request to CA.",
		Log:     "[2024-05-01 12:00:01] ERROR: CA request returned HTTP 503\n",
		Err:     &enrollment.ProtocolError{Op: "CA request", StatusCode: 503},
	}
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
	require.NoError(t, err)

	assert.True(t, s.Failed())
	assert.Equal(t, models.GenerationSuccess, s.Generation.Status)
	assert.Equal(t, models.EnrollmentError, s.Enrollment.Status)
	assert.Equal(t, []string{"srv1-openssl.cnf", "srv1.key", "srv1.csr"}, s.GeneratedFiles)
	assert.Contains(t, s.Log, "HTTP 503")
	assert.False(t, f.dir.Exists("srv1.crt"))

	s, err = f.machine.Apply(context.Background(), s, Input{Action: ActionReset})
	require.NoError(t, err)
	assert.Equal(t, Fresh(), s)
}

func TestMachine_SubmitGenerationFailureSkipsCA(t *testing.T) {
	f := newMachineFixture(t)
	f.material.result = models.GenerationResult{
		GeneratedFiles: []string{"srv1-openssl.cnf"},
		Status:         models.GenerationFail,
		Log:            "[2024-05-01 12:00:00] ERROR: key generation failed\n",
	}
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
	require.NoError(t, err)

	assert.True(t, s.Failed())
	assert.Equal(t, 0, f.enroller.calls)
	require.NotNil(t, s.Enrollment)
	assert.Equal(t, models.EnrollmentNotAttempted, s.Enrollment.Status)
	assert.Contains(t, s.Log, "CA Certificate Request Log (Not Attempted)")
	assert.Contains(t, s.Log, "CSR generation failed or CSR content was empty")
}

func TestMachine_SubmitEmptyCSRSkipsCA(t *testing.T) {
	f := newMachineFixture(t)
	f.material.result.CSR = " \n"
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
	require.NoError(t, err)

	assert.True(t, s.Failed())
	assert.Equal(t, 0, f.enroller.calls)
	assert.Equal(t, models.EnrollmentNotAttempted, s.Enrollment.Status)
}

func TestMachine_SubmitHostConfigSaveFailure(t *testing.T) {
	f := newMachineFixture(t)
	f.machine.hosts = failingStore{}
	s := f.advance(t, "srv1")

	s, err := f.machine.Apply(context.Background(), s, Input{Action: ActionSubmit})
	require.NoError(t, err)

	assert.True(t, s.Failed())
	assert.Equal(t, 0, f.material.calls)
	assert.Equal(t, 0, f.enroller.calls)
	assert.Equal(t, models.EnrollmentNotAttempted, s.Enrollment.Status)
	assert.Contains(t, s.Log, "disk full")
}

func TestMachine_SubmitInvalidCountry(t *testing.T) {
	f := newMachineFixture(t)
	s := f.advance(t, "srv1")

	next, err := f.machine.Apply(context.Background(), s, Input{
		Action:  ActionSubmit,
		Profile: models.SubjectProfile{Country: "CHE"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, models.ErrInvalidCountry)
	assert.Equal(t, s, next)
	assert.Equal(t, 0, f.material.calls)
}

func TestMachine_InvalidTransitions(t *testing.T) {
	f := newMachineFixture(t)
	details := f.advance(t, "srv1")
	succeeded := State{Step: models.StepShowResult, Status: models.GenerationSuccess}

	tests := []struct {
		name  string
		state State
		input Input
	}{
		{"retreat from step 1", Fresh(), Input{Action: ActionRetreat}},
		{"submit from step 1", Fresh(), Input{Action: ActionSubmit}},
		{"reset from step 1", Fresh(), Input{Action: ActionReset}},
		{"advance from step 2", details, Input{Action: ActionAdvance, Hostname: "srv2"}},
		{"reset from step 2", details, Input{Action: ActionReset}},
		{"reset after success", succeeded, Input{Action: ActionReset}},
		{"submit without draft", State{Step: models.StepCollectDetails}, Input{Action: ActionSubmit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := f.machine.Apply(context.Background(), tt.state, tt.input)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, next)
		})
	}

	_, err := f.machine.Apply(context.Background(), Fresh(), Input{Action: "jump"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"advance", "retreat", "submit", "reset"} {
		a, ok := ParseAction(s)
		assert.True(t, ok)
		assert.Equal(t, s, string(a))
	}

	_, ok := ParseAction(strings.ToUpper("advance"))
	assert.False(t, ok)
}
