// Package hostconfig remembers the subject details last submitted for a host
// so the details step can be prefilled on the next run.
package hostconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/models"
)

var ErrNotFound = errors.New("host configuration not found")

type Store interface {
	// Save replaces the stored document for hostname.
	Save(ctx context.Context, hostname string, profile models.SubjectProfile) error
	Load(ctx context.Context, hostname string) (*models.SubjectProfile, error)
	Close() error
}

// Document is the persisted form. dns and ips hold comma separated lists.
type Document struct {
	CN      string `json:"cn"`
	Org     string `json:"org"`
	OU      string `json:"ou"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	DNS     string `json:"dns"`
	IPs     string `json:"ips"`
}

const listSeparator = ", "

func NewDocument(p models.SubjectProfile) Document {
	return Document{
		CN:      p.CommonName,
		Org:     p.Organization,
		OU:      p.OrganizationalUnit,
		City:    p.City,
		State:   p.State,
		Country: p.Country,
		DNS:     strings.Join(p.DNSNames, listSeparator),
		IPs:     strings.Join(p.IPAddresses, listSeparator),
	}
}

func (d Document) Profile() models.SubjectProfile {
	return models.SubjectProfile{
		CommonName:         d.CN,
		Organization:       d.Org,
		OrganizationalUnit: d.OU,
		City:               d.City,
		State:              d.State,
		Country:            d.Country,
		DNSNames:           models.SplitList(d.DNS),
		IPAddresses:        models.SplitList(d.IPs),
	}
}

func encode(p models.SubjectProfile) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(p), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode host configuration: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*models.SubjectProfile, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode host configuration: %w", err)
	}
	p := doc.Profile()
	return &p, nil
}

// NewStore opens the backend selected in the configuration.
func NewStore(cfg config.HostConfigConfig, dir *certdir.Dir) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(dir), nil
	case "bolt":
		return NewBoltStore(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unknown host configuration backend %q", cfg.Backend)
	}
}
