package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingCommonName = errors.New("common name is required")
	ErrInvalidCountry    = errors.New("country code must be at most 2 characters")
)

// SubjectProfile is the subject and SAN data collected on the details step.
type SubjectProfile struct {
	CommonName         string   `json:"common_name"`
	Organization       string   `json:"organization"`
	OrganizationalUnit string   `json:"organizational_unit"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	Country            string   `json:"country"`
	DNSNames           []string `json:"dns_names"`
	IPAddresses        []string `json:"ip_addresses"`
}

// NewSubjectProfile trims every field and checks the profile invariants.
func NewSubjectProfile(p SubjectProfile) (SubjectProfile, error) {
	profile := SubjectProfile{
		CommonName:         strings.TrimSpace(p.CommonName),
		Organization:       strings.TrimSpace(p.Organization),
		OrganizationalUnit: strings.TrimSpace(p.OrganizationalUnit),
		City:               strings.TrimSpace(p.City),
		State:              strings.TrimSpace(p.State),
		Country:            strings.TrimSpace(p.Country),
		DNSNames:           SplitList(p.DNSNames...),
		IPAddresses:        SplitList(p.IPAddresses...),
	}

	if err := profile.Validate(); err != nil {
		return SubjectProfile{}, err
	}

	return profile, nil
}

func (p SubjectProfile) Validate() error {
	if p.CommonName == "" {
		return ErrMissingCommonName
	}

	if utf8.RuneCountInString(p.Country) > 2 {
		return fmt.Errorf("%w: got %q", ErrInvalidCountry, p.Country)
	}

	return nil
}

// SplitList splits every value on commas, trims the pieces and drops empty ones.
// Order is preserved.
func SplitList(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

type GenerationStatus string

const (
	GenerationSuccess GenerationStatus = "success"
	GenerationFail    GenerationStatus = "fail"
)

// GenerationResult is produced once per submit and never modified afterwards.
type GenerationResult struct {
	GeneratedFiles []string         `json:"generated_files"`
	Status         GenerationStatus `json:"status"`
	Log            string           `json:"log"`
	CSR            string           `json:"csr,omitempty"`
}

func (r *GenerationResult) Succeeded() bool {
	return r != nil && r.Status == GenerationSuccess
}

type EnrollmentStatus string

const (
	EnrollmentSuccess      EnrollmentStatus = "success"
	EnrollmentError        EnrollmentStatus = "error"
	EnrollmentNotAttempted EnrollmentStatus = "not_attempted"
)

type EnrollmentResult struct {
	Status             EnrollmentStatus `json:"status"`
	Certificate        string           `json:"certificate,omitempty"`
	VerificationOutput string           `json:"verification_output,omitempty"`
	Log                string           `json:"log,omitempty"`
	Message            string           `json:"message,omitempty"`
}
