package utils

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"certer/internal/models"
)

var ErrNoCertificate = errors.New("no certificate found")

// ParseCertificate accepts a PEM encoded certificate or raw DER, as returned by
// certsrv depending on the requested encoding.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("expected CERTIFICATE block, got %s", block.Type)
		}
		data = block.Bytes
	}

	if len(data) == 0 {
		return nil, ErrNoCertificate
	}

	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// ParseCertificateBundle returns every certificate in a PEM bundle, or the single
// DER certificate when data is not PEM.
func ParseCertificateBundle(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	rest := data
	for len(rest) > 0 {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		cert, err := ParseCertificate(data)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

// ParseCertificateDetails extracts details from a PEM or DER encoded certificate
func ParseCertificateDetails(data []byte) (*models.CertificateDetails, error) {
	cert, err := ParseCertificate(data)
	if err != nil {
		return nil, err
	}

	ips := make([]string, 0, len(cert.IPAddresses))
	for _, ip := range cert.IPAddresses {
		ips = append(ips, ip.String())
	}

	return &models.CertificateDetails{
		SerialNumber: cert.SerialNumber.String(),
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		DNSNames:     cert.DNSNames,
		IPAddresses:  ips,
		CommonName:   cert.Subject.CommonName,
	}, nil
}
