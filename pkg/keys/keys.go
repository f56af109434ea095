package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

const (
	// Gossip signing key size: matches the platform's expectations for
	// long-lived node identity keys.
	gossipKeySize = 3072
	// TLS key size: rotated more often, faster to generate.
	tlsKeySize = 2048

	// Test network certificates are effectively permanent.
	certValidity = 10 * 365 * 24 * time.Hour
)

// NodeKeyFiles names the key and certificate files for one node alias
// inside a keys directory.
type NodeKeyFiles struct {
	GossipKey  string
	GossipCert string
	TLSKey     string
	TLSCert    string
}

// Files returns the canonical key file paths for an alias.
func Files(keysDir, alias string) NodeKeyFiles {
	return NodeKeyFiles{
		GossipKey:  filepath.Join(keysDir, fmt.Sprintf("s-%s-key.pem", alias)),
		GossipCert: filepath.Join(keysDir, fmt.Sprintf("s-%s-cert.pem", alias)),
		TLSKey:     filepath.Join(keysDir, fmt.Sprintf("hedera-%s.key", alias)),
		TLSCert:    filepath.Join(keysDir, fmt.Sprintf("hedera-%s.crt", alias)),
	}
}

// GossipKeysExist reports whether both gossip key files are present.
func (f NodeKeyFiles) GossipKeysExist() bool {
	return fileExists(f.GossipKey) && fileExists(f.GossipCert)
}

// TLSKeysExist reports whether both TLS key files are present.
func (f NodeKeyFiles) TLSKeysExist() bool {
	return fileExists(f.TLSKey) && fileExists(f.TLSCert)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateGossipKeyPair generates the signing keypair and self-signed
// certificate for an alias and writes them under keysDir.
func GenerateGossipKeyPair(keysDir, alias string) (NodeKeyFiles, error) {
	files := Files(keysDir, alias)
	err := generateKeyPair(gossipKeySize, "s-"+alias, files.GossipKey, files.GossipCert)
	if err != nil {
		return files, fmt.Errorf("failed to generate gossip keys for %s: %w", alias, err)
	}
	return files, nil
}

// GenerateTLSKeyPair generates the gRPC TLS keypair and self-signed
// certificate for an alias and writes them under keysDir.
func GenerateTLSKeyPair(keysDir, alias string) (NodeKeyFiles, error) {
	files := Files(keysDir, alias)
	err := generateKeyPair(tlsKeySize, alias, files.TLSKey, files.TLSCert)
	if err != nil {
		return files, fmt.Errorf("failed to generate TLS keys for %s: %w", alias, err)
	}
	return files, nil
}

func generateKeyPair(bits int, commonName, keyPath, certPath string) error {
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: commonName,
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: der,
	})
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}

	return nil
}

// LoadCertDER reads a PEM certificate file and returns the DER bytes.
func LoadCertDER(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%s does not contain a PEM certificate", path)
	}
	return block.Bytes, nil
}

// LoadPublicKeyDER reads a PEM key or certificate file and returns the
// DER-encoded public key, used as the admin key on node transactions.
func LoadPublicKeyDER(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s does not contain PEM data", path)
	}

	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		return x509.MarshalPKIXPublicKey(cert.PublicKey)
	case "PUBLIC KEY":
		return block.Bytes, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key: %w", err)
		}
		return x509.MarshalPKIXPublicKey(&key.PublicKey)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q in %s", block.Type, path)
	}
}

// CertHash computes the SHA-384 hash of a certificate's DER bytes, as
// carried on node create/update transactions.
func CertHash(der []byte) []byte {
	sum := sha512.Sum384(der)
	return sum[:]
}
