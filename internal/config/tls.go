package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSFiles names the PEM files of a broker client identity. Cert and Key
// go together; CA alone only pins the broker's certificate authority.
type TLSFiles struct {
	Cert string
	Key  string
	CA   string
}

func (f TLSFiles) empty() bool {
	return f.Cert == "" && f.Key == "" && f.CA == ""
}

// Load builds a client *tls.Config for the named broker. It returns nil, nil
// when no file is set, which means plaintext.
func (f TLSFiles) Load(name string) (*tls.Config, error) {
	if f.empty() {
		return nil, nil
	}
	if (f.Cert == "") != (f.Key == "") {
		return nil, fmt.Errorf("%s TLS cert and key must be set together", name)
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if f.Cert != "" {
		cert, err := tls.LoadX509KeyPair(f.Cert, f.Key)
		if err != nil {
			return nil, fmt.Errorf("load %s client cert: %w", name, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if f.CA != "" {
		caPEM, err := os.ReadFile(f.CA)
		if err != nil {
			return nil, fmt.Errorf("read %s CA cert: %w", name, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("parse %s CA cert: no certificates found", name)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// MQTTTLS is the station broker's client TLS config, nil for plaintext.
func (c *Config) MQTTTLS() (*tls.Config, error) {
	return TLSFiles{Cert: c.MQTTTLSCert, Key: c.MQTTTLSKey, CA: c.MQTTTLSCACert}.Load("mqtt")
}

// KafkaTLS is the pipeline brokers' client TLS config, nil for plaintext.
func (c *Config) KafkaTLS() (*tls.Config, error) {
	return TLSFiles{Cert: c.KafkaTLSCert, Key: c.KafkaTLSKey, CA: c.KafkaTLSCACert}.Load("kafka")
}
