// internal/platform/sealer/keys.go
package sealer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"netintel/internal/platform/errors"
	"netintel/internal/platform/logx"
)

const (
	keySize        = 2048
	publicKeyFile  = "public_key.pem"
	privateKeyFile = "private_key.pem"
)

// KeyPair holds the process-wide RSA key pair. It is generated or loaded once
// at startup and read-only afterwards.
type KeyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// LoadOrGenerate loads the PEM key pair from dir, generating and persisting a
// new 2048-bit pair when the files are missing. Key material problems are
// startup-fatal configuration errors, never per-request errors.
func LoadOrGenerate(dir string, logger logx.Logger) (*KeyPair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create keys directory")
	}

	privPath := filepath.Join(dir, privateKeyFile)
	pubPath := filepath.Join(dir, publicKeyFile)

	if data, err := os.ReadFile(privPath); err == nil {
		kp, err := parsePrivatePEM(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", privPath)
		}
		logger.Info("RSA key pair loaded", "dir", dir, "bits", kp.private.N.BitLen())
		return kp, nil
	}

	logger.Info("generating RSA key pair", "bits", keySize, "dir", dir)

	priv, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate RSA key pair")
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal private key")
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal public key")
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return nil, errors.Wrap(err, "failed to persist private key")
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to persist public key")
	}

	logger.Info("RSA key pair generated and persisted", "dir", dir)

	return &KeyPair{private: priv, public: &priv.PublicKey}, nil
}

// Public returns the public key used for sealing.
func (k *KeyPair) Public() *rsa.PublicKey {
	return k.public
}

// PublicKeyPath returns the path of the persisted public key inside dir.
func PublicKeyPath(dir string) string {
	return filepath.Join(dir, publicKeyFile)
}

func parsePrivatePEM(data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}

	return &KeyPair{private: priv, public: &priv.PublicKey}, nil
}
