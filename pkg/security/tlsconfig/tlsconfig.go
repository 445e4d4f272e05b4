package tlsconfig

import (
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "os"
)

// Options defines TLS inputs for the database connection.
type Options struct {
    Enable             bool
    CAFile             string
    CertFile           string
    KeyFile            string
    InsecureSkipVerify bool
    ServerName         string
}

// Client returns a tls.Config for the driver if enabled, otherwise nil. A
// client certificate is optional but cert and key must be given together.
func (o Options) Client() (*tls.Config, error) {
    if !o.Enable {
        return nil, nil
    }
    if (o.CertFile == "") != (o.KeyFile == "") {
        return nil, errors.New("tls: client cert and key must be set together")
    }
    cfg := &tls.Config{InsecureSkipVerify: o.InsecureSkipVerify, MinVersion: tls.VersionTLS12} //nolint:gosec
    if o.ServerName != "" { cfg.ServerName = o.ServerName }
    if o.CAFile != "" {
        ca, err := os.ReadFile(o.CAFile)
        if err != nil { return nil, err }
        pool := x509.NewCertPool()
        if !pool.AppendCertsFromPEM(ca) {
            return nil, fmt.Errorf("tls: no certificates found in %s", o.CAFile)
        }
        cfg.RootCAs = pool
    }
    if o.CertFile != "" {
        cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
        if err != nil { return nil, err }
        cfg.Certificates = []tls.Certificate{cert}
    }
    return cfg, nil
}
