package enrollment

import (
	"net/url"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// EncodeCSR flattens a PEM CSR and form-encodes it the way certsrv expects.
// Every '+' left after encoding, including the ones standing for spaces, is
// sent as %2B so base64 padding and alphabet survive the round trip.
func EncodeCSR(csr string) string {
	encoded := url.QueryEscape(lineBreaks.Replace(csr))
	return strings.ReplaceAll(encoded, "+", "%2B")
}

// EncodeTemplate renders the CertAttrib value for a certificate template.
func EncodeTemplate(name string) string {
	return url.QueryEscape("CertificateTemplate:" + name + "\r\n")
}

func submissionBody(csr, template string) string {
	var b strings.Builder
	b.WriteString("Mode=newreq")
	b.WriteString("&CertRequest=")
	b.WriteString(EncodeCSR(csr))
	b.WriteString("&CertAttrib=")
	b.WriteString(EncodeTemplate(template))
	b.WriteString("&TargetStoreFlags=0")
	b.WriteString("&SaveCert=yes")
	b.WriteString("&ThumbPrint=")
	return b.String()
}
