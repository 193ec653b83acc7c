package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/enrollment"
	"certer/internal/hostconfig"
	"certer/internal/metrics"
	"certer/internal/models"
	"certer/internal/utils"
)

var (
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrInvalidInput      = errors.New("invalid workflow input")
)

type Action string

const (
	ActionAdvance Action = "advance"
	ActionRetreat Action = "retreat"
	ActionSubmit  Action = "submit"
	ActionReset   Action = "reset"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionAdvance, ActionRetreat, ActionSubmit, ActionReset:
		return a, true
	}
	return "", false
}

// Input carries the fields an action needs. Hostname is read by advance,
// Profile and ForceRegenerate by submit.
type Input struct {
	Action          Action                `json:"action"`
	Hostname        string                `json:"hostname"`
	Profile         models.SubjectProfile `json:"profile"`
	ForceRegenerate bool                  `json:"force_regenerate"`
}

// MaterialProducer makes the key decision against the key file at the time
// the CSR is built: a new key when forceRegenerate is set or none exists.
type MaterialProducer interface {
	KeyExists(cn string) bool
	Produce(ctx context.Context, profile models.SubjectProfile, forceRegenerate bool) models.GenerationResult
}

type Enroller interface {
	Enroll(ctx context.Context, req enrollment.Request) *enrollment.Result
}

type ArtifactWriter interface {
	WriteFile(name string, data []byte) error
}

const (
	sectionCALog           = "CA Certificate Request Log"
	sectionCALogNotStarted = "CA Certificate Request Log (Not Attempted)"
	notAttemptedReason     = "CA certificate request skipped because CSR generation failed or CSR content was empty."
)

type Machine struct {
	hosts     hostconfig.Store
	material  MaterialProducer
	enroller  Enroller
	artifacts ArtifactWriter
	defaults  config.SubjectDefaults
	logger    *slog.Logger
	now       func() time.Time
}

func NewMachine(
	hosts hostconfig.Store,
	material MaterialProducer,
	enroller Enroller,
	artifacts ArtifactWriter,
	defaults config.SubjectDefaults,
	logger *slog.Logger,
) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		hosts:     hosts,
		material:  material,
		enroller:  enroller,
		artifacts: artifacts,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply runs one user action against state and returns the next state. The
// input state is never modified.
func (m *Machine) Apply(ctx context.Context, state State, in Input) (next State, err error) {
	defer func() {
		result := "ok"
		switch {
		case errors.Is(err, ErrInvalidTransition):
			result = "invalid_transition"
		case errors.Is(err, ErrInvalidInput):
			result = "invalid_input"
		case err != nil:
			result = "error"
		}
		metrics.WorkflowTransitionsTotal.WithLabelValues(string(in.Action), result).Inc()
	}()

	switch in.Action {
	case ActionAdvance:
		if state.Step != models.StepCollectHostname {
			return state, transitionError(in.Action, state.Step)
		}
		return m.advance(ctx, in.Hostname)

	case ActionRetreat:
		if state.Step != models.StepCollectDetails {
			return state, transitionError(in.Action, state.Step)
		}
		return Fresh(), nil

	case ActionSubmit:
		if state.Step != models.StepCollectDetails || state.Draft == nil {
			return state, transitionError(in.Action, state.Step)
		}
		return m.submit(ctx, state, in)

	case ActionReset:
		if !state.Failed() {
			return state, transitionError(in.Action, state.Step)
		}
		return Fresh(), nil

	default:
		return state, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, in.Action)
	}
}

func transitionError(a Action, step models.WorkflowStep) error {
	return fmt.Errorf("%w: %s is not allowed in step %s", ErrInvalidTransition, a, step)
}

func (m *Machine) advance(ctx context.Context, hostname string) (State, error) {
	hostname = strings.TrimSpace(hostname)
	if err := certdir.ValidateName(hostname); err != nil {
		return Fresh(), fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	draft := models.SubjectProfile{
		CommonName:         hostname,
		Organization:       m.defaults.Organization,
		OrganizationalUnit: m.defaults.OrganizationalUnit,
		City:               m.defaults.City,
		State:              m.defaults.State,
		Country:            m.defaults.Country,
	}

	stored, err := m.hosts.Load(ctx, hostname)
	switch {
	case err == nil:
		draft = *stored
		draft.CommonName = hostname
		m.logger.Debug("loaded stored host configuration", "hostname", hostname)
	case errors.Is(err, hostconfig.ErrNotFound):
	default:
		m.logger.Warn("failed to load host configuration, starting from defaults", "hostname", hostname, "error", err)
	}

	return State{
		Step:      models.StepCollectDetails,
		Draft:     &draft,
		KeyExists: m.material.KeyExists(hostname),
	}, nil
}

func (m *Machine) submit(ctx context.Context, state State, in Input) (State, error) {
	submitted := in.Profile
	submitted.CommonName = state.Draft.CommonName

	profile, err := models.NewSubjectProfile(submitted)
	if err != nil {
		return state, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	next := State{
		Step:            models.StepShowResult,
		Submitted:       &profile,
		ForceRegenerate: in.ForceRegenerate,
		Status:          models.GenerationFail,
		JustCompleted:   true,
	}

	logger := m.logger.With("hostname", profile.CommonName)
	runLog := utils.NewRunLog(m.now)

	if err := m.hosts.Save(ctx, profile.CommonName, profile); err != nil {
		logger.Error("failed to save host configuration", "error", err)
		runLog.Errorf("failed to save host configuration for %s: %v", profile.CommonName, err)
		runLog.Section(sectionCALogNotStarted, notAttemptedReason)
		next.Enrollment = &models.EnrollmentResult{Status: models.EnrollmentNotAttempted, Message: notAttemptedReason}
		next.Log = runLog.String()
		return next, nil
	}

	generation := m.material.Produce(ctx, profile, in.ForceRegenerate)

	next.Generation = &generation
	next.Status = generation.Status
	next.GeneratedFiles = append([]string(nil), generation.GeneratedFiles...)
	runLog.Append(generation.Log)

	if !generation.Succeeded() || strings.TrimSpace(generation.CSR) == "" {
		next.Status = models.GenerationFail
		next.Enrollment = &models.EnrollmentResult{Status: models.EnrollmentNotAttempted, Message: notAttemptedReason}
		runLog.Section(sectionCALogNotStarted, notAttemptedReason)
		next.Log = runLog.String()
		logger.Info("CSR generation failed, CA request not attempted")
		return next, nil
	}

	caResult := m.enroller.Enroll(ctx, enrollment.Request{CSR: generation.CSR, Name: profile.CommonName})
	enrolled := caResult.Model()
	next.Enrollment = &enrolled
	runLog.Section(sectionCALog, caResult.Log)

	if !caResult.Succeeded() {
		next.Status = models.GenerationFail
		next.Log = runLog.String()
		return next, nil
	}

	crtName := certdir.CertificateFile(profile.CommonName)
	if err := m.artifacts.WriteFile(crtName, caResult.Certificate); err != nil {
		logger.Error("failed to store issued certificate", "error", err)
		runLog.Errorf("failed to save certificate %s: %v", crtName, err)
		next.Status = models.GenerationFail
		next.Log = runLog.String()
		return next, nil
	}

	next.GeneratedFiles = append(next.GeneratedFiles, crtName)
	runLog.Printf("Certificate fetched from CA and saved: %s", crtName)
	next.Log = runLog.String()

	logger.Info("certificate issued", "files", next.GeneratedFiles)
	return next, nil
}
