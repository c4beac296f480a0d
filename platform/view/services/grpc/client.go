/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// TLSOption tweaks the tls.Config used when establishing a connection
type TLSOption func(tlsConfig *tls.Config)

// ServerNameOverride sets the server name used to verify the hostname of the
// certificate returned by the server. Used for testing and for peers reached
// through a different address than the one in their certificate.
func ServerNameOverride(name string) TLSOption {
	return func(tlsConfig *tls.Config) {
		tlsConfig.ServerName = name
	}
}

// Client models a grpc-based client for communicating with a remote endpoint
type Client struct {
	// TLS configuration used by the grpc.ClientConn
	tlsConfig *tls.Config
	// Options for setting up new connections
	dialOpts []grpc.DialOption
	// Duration for which to block while established a new connection
	timeout time.Duration
}

// NewGRPCClient creates a new implementation of Client given an address and
// client configuration
func NewGRPCClient(config ClientConfig) (*Client, error) {
	client := &Client{}

	// parse secure options
	err := client.parseSecureOptions(config.SecOpts)
	if err != nil {
		return client, err
	}

	// keepalive options
	client.dialOpts = append(client.dialOpts, ClientKeepaliveOptions(config.KeepAliveConfig)...)

	// Unless asynchronous connect is set, make connection establishment blocking.
	if !config.AsyncConnect {
		client.dialOpts = append(client.dialOpts, grpc.WithBlock())
		client.dialOpts = append(client.dialOpts, grpc.FailOnNonTempDialError(true))
	}
	// set send/recv message size to package defaults
	client.dialOpts = append(client.dialOpts, grpc.WithDefaultCallOptions(
		grpc.MaxCallRecvMsgSize(MaxRecvMsgSize),
		grpc.MaxCallSendMsgSize(MaxSendMsgSize),
	))
	client.timeout = config.Timeout
	if client.timeout <= 0 {
		client.timeout = DefaultConnectionTimeout
	}

	return client, nil
}

func (client *Client) parseSecureOptions(opts SecureOptions) error {
	if !opts.UseTLS {
		return nil
	}

	client.tlsConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if len(opts.ServerRootCAs) > 0 {
		client.tlsConfig.RootCAs = x509.NewCertPool()
		for _, certBytes := range opts.ServerRootCAs {
			if err := AddPemToCertPool(certBytes, client.tlsConfig.RootCAs); err != nil {
				return errors.WithMessage(err, "error adding root certificate")
			}
		}
	}
	if opts.RequireClientCert {
		cert, err := tls.X509KeyPair(opts.Certificate, opts.Key)
		if err != nil {
			return errors.WithMessage(err, "failed to load client certificate")
		}
		client.tlsConfig.Certificates = append(client.tlsConfig.Certificates, cert)
	}
	if len(opts.CipherSuites) > 0 {
		client.tlsConfig.CipherSuites = opts.CipherSuites
	} else {
		client.tlsConfig.CipherSuites = DefaultTLSCipherSuites
	}

	return nil
}

// Certificate returns the tls.Certificate used to make TLS connections
// when client certificates are required by the server
func (client *Client) Certificate() tls.Certificate {
	cert := tls.Certificate{}
	if client.tlsConfig != nil && len(client.tlsConfig.Certificates) > 0 {
		cert = client.tlsConfig.Certificates[0]
	}
	return cert
}

// NewConnection returns a grpc.ClientConn for the target address and
// overrides the server name used to verify the hostname on the
// certificate returned by a server when using TLS
func (client *Client) NewConnection(address string, tlsOptions ...TLSOption) (*grpc.ClientConn, error) {
	var dialOpts []grpc.DialOption
	dialOpts = append(dialOpts, client.dialOpts...)

	if client.tlsConfig != nil {
		tlsConfigCopy := client.tlsConfig.Clone()
		for _, tlsOption := range tlsOptions {
			tlsOption(tlsConfigCopy)
		}
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfigCopy)))
	} else {
		dialOpts = append(dialOpts, grpc.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.timeout)
	defer cancel()
	conn, err := grpc.DialContext(ctx, address, dialOpts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create new connection to [%s]", address)
	}
	return conn, nil
}

// CreateGRPCClient creates a Client out of the passed connection configuration
func CreateGRPCClient(config *ConnectionConfig) (*Client, error) {
	timeout := config.ConnectionTimeout
	if timeout <= 0 {
		timeout = DefaultConnectionTimeout
	}

	clientConfig := ClientConfig{
		Timeout: timeout,
	}

	if config.TLSEnabled {
		secOpts := SecureOptions{
			UseTLS:            true,
			RequireClientCert: config.TLSClientSideAuth,
		}

		switch {
		case len(config.TLSRootCertBytes) != 0:
			secOpts.ServerRootCAs = config.TLSRootCertBytes
		case len(config.TLSRootCertFile) != 0:
			caPEM, err := os.ReadFile(config.TLSRootCertFile)
			if err != nil {
				return nil, errors.WithMessagef(err, "unable to load TLS root cert file from [%s]", config.TLSRootCertFile)
			}
			secOpts.ServerRootCAs = [][]byte{caPEM}
		default:
			return nil, errors.Errorf("tls root certificate missing for [%s]", config.Address)
		}
		clientConfig.SecOpts = secOpts
	}

	return NewGRPCClient(clientConfig)
}
