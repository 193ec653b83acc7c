// Package csrgen turns a subject profile into a private key, a certificate
// signing request and the matching request-config artifact.
package csrgen

import (
	"fmt"
	"strings"

	"certer/internal/models"
)

type SANType string

const (
	SANTypeDNS SANType = "DNS"
	SANTypeIP  SANType = "IP"
)

// SAN is one numbered subjectAltName entry.
type SAN struct {
	Type  SANType
	Index int
	Value string
}

func (s SAN) String() string {
	return fmt.Sprintf("%s.%d = %s", s.Type, s.Index, s.Value)
}

// Request is the distinguished name plus the ordered SAN list of one CSR.
type Request struct {
	CommonName         string
	Organization       string
	OrganizationalUnit string
	City               string
	State              string
	Country            string
	SANs               []SAN
}

// BuildRequest derives the SAN list from a profile. The common name is always
// DNS.1, duplicates of it in the DNS list are skipped. No syntax checks happen
// here.
func BuildRequest(profile models.SubjectProfile) *Request {
	req := &Request{
		CommonName:         profile.CommonName,
		Organization:       profile.Organization,
		OrganizationalUnit: profile.OrganizationalUnit,
		City:               profile.City,
		State:              profile.State,
		Country:            profile.Country,
	}

	req.SANs = append(req.SANs, SAN{Type: SANTypeDNS, Index: 1, Value: profile.CommonName})

	n := 2
	for _, name := range models.SplitList(profile.DNSNames...) {
		if name == profile.CommonName {
			continue
		}
		req.SANs = append(req.SANs, SAN{Type: SANTypeDNS, Index: n, Value: name})
		n++
	}

	for i, ip := range models.SplitList(profile.IPAddresses...) {
		req.SANs = append(req.SANs, SAN{Type: SANTypeIP, Index: i + 1, Value: ip})
	}

	return req
}

func (r *Request) DNSNames() []string {
	return r.values(SANTypeDNS)
}

func (r *Request) IPAddresses() []string {
	return r.values(SANTypeIP)
}

func (r *Request) values(t SANType) []string {
	var out []string
	for _, s := range r.SANs {
		if s.Type == t {
			out = append(out, s.Value)
		}
	}
	return out
}

// SANLines renders the [alt_names] body.
func (r *Request) SANLines() []string {
	lines := make([]string, 0, len(r.SANs))
	for _, s := range r.SANs {
		lines = append(lines, s.String())
	}
	return lines
}

// OpenSSLConfig renders an `openssl req -config` file equivalent to the
// request, so the CSR can be regenerated by hand.
func (r *Request) OpenSSLConfig(bits int) string {
	var b strings.Builder

	b.WriteString("[req]\n")
	b.WriteString("distinguished_name = req_distinguished_name\n")
	b.WriteString("req_extensions = req_cert_extensions\n")
	b.WriteString("prompt = no\n")
	b.WriteString("encrypt_key = no\n")
	b.WriteString("dirstring_type = nombstr\n")
	fmt.Fprintf(&b, "default_bits = %d\n", bits)
	fmt.Fprintf(&b, "default_keyfile = %s.key\n", r.CommonName)

	b.WriteString("\n[req_distinguished_name]\n")
	fmt.Fprintf(&b, "C = %s\n", r.Country)
	fmt.Fprintf(&b, "ST = %s\n", r.State)
	fmt.Fprintf(&b, "L = %s\n", r.City)
	fmt.Fprintf(&b, "O = %s\n", r.Organization)
	fmt.Fprintf(&b, "OU = %s\n", r.OrganizationalUnit)
	fmt.Fprintf(&b, "CN = %s\n", r.CommonName)

	b.WriteString("\n[req_cert_extensions]\n")
	b.WriteString("subjectAltName = @alt_names\n")

	b.WriteString("\n[alt_names]\n")
	b.WriteString(strings.Join(r.SANLines(), "\n"))
	b.WriteString("\n")

	return b.String()
}
