package csrgen

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"net"

	"github.com/globalsign/pemfile"
)

const (
	pkcs8PrivateKeyPEMType = "PRIVATE KEY"
	pkcs1PrivateKeyPEMType = "RSA PRIVATE KEY"
	csrPEMType             = "CERTIFICATE REQUEST"

	DefaultKeyBits = 2048
	minKeyBits     = 2048
)

var (
	ErrInvalidIPAddress = errors.New("invalid IP address")
	ErrNoPrivateKey     = errors.New("no private key found")
)

// KeyGenerator creates new private keys.
type KeyGenerator interface {
	GenerateKey(bits int) (crypto.Signer, error)
}

// CSRSigner turns a request into a DER-encoded CSR signed by key.
type CSRSigner interface {
	CreateCSR(req *Request, key crypto.Signer) ([]byte, error)
}

type RSAKeyGenerator struct{}

func (RSAKeyGenerator) GenerateKey(bits int) (crypto.Signer, error) {
	if bits < minKeyBits {
		return nil, fmt.Errorf("key size %d is below the minimum of %d bits", bits, minKeyBits)
	}
	return rsa.GenerateKey(rand.Reader, bits)
}

type X509CSRSigner struct{}

func (X509CSRSigner) CreateCSR(req *Request, key crypto.Signer) ([]byte, error) {
	template := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName:         req.CommonName,
			Country:            nonEmpty(req.Country),
			Province:           nonEmpty(req.State),
			Locality:           nonEmpty(req.City),
			Organization:       nonEmpty(req.Organization),
			OrganizationalUnit: nonEmpty(req.OrganizationalUnit),
		},
		DNSNames: req.DNSNames(),
	}

	for _, v := range req.IPAddresses() {
		ip := net.ParseIP(v)
		if ip == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIPAddress, v)
		}
		template.IPAddresses = append(template.IPAddresses, ip)
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, &template, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSR: %w", err)
	}

	return der, nil
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// EncodePrivateKeyPEM writes key as a PKCS#8 block.
func EncodePrivateKeyPEM(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pkcs8PrivateKeyPEMType, Bytes: der}), nil
}

func EncodeCSRPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: csrPEMType, Bytes: der})
}

// LoadPrivateKey reads the first PKCS#8 or PKCS#1 key in a PEM file.
func LoadPrivateKey(path string) (crypto.Signer, error) {
	blocks, err := pemfile.ReadBlocks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	for _, block := range blocks {
		if err := pemfile.IsType(block, pkcs8PrivateKeyPEMType, pkcs1PrivateKeyPEMType); err != nil {
			continue
		}

		var key any
		switch block.Type {
		case pkcs8PrivateKeyPEMType:
			key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		case pkcs1PrivateKeyPEMType:
			key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("unsupported private key type %T", key)
		}
		return signer, nil
	}

	return nil, ErrNoPrivateKey
}
