/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package grpc

import (
	"crypto/sha256"
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sha256Hasher struct{}

func (sha256Hasher) Hash(msg []byte) ([]byte, error) {
	h := sha256.Sum256(msg)
	return h[:], nil
}

func TestNewGRPCClientDefaults(t *testing.T) {
	client, err := NewGRPCClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConnectionTimeout, client.timeout)
	assert.Nil(t, client.tlsConfig)
	assert.Equal(t, tls.Certificate{}, client.Certificate())
}

func TestCreateGRPCClientRequiresRootCert(t *testing.T) {
	_, err := CreateGRPCClient(&ConnectionConfig{
		Address:    "localhost:7051",
		TLSEnabled: true,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tls root certificate missing")
}

func TestGetTLSCertHash(t *testing.T) {
	hash, err := GetTLSCertHash(nil, sha256Hasher{})
	require.NoError(t, err)
	assert.Nil(t, hash)

	cert := &tls.Certificate{Certificate: [][]byte{[]byte("a certificate")}}
	hash, err = GetTLSCertHash(cert, sha256Hasher{})
	require.NoError(t, err)
	assert.Len(t, hash, 32)
}

func TestServerNameOverride(t *testing.T) {
	tlsConfig := &tls.Config{}
	ServerNameOverride("peer0.org1")(tlsConfig)
	assert.Equal(t, "peer0.org1", tlsConfig.ServerName)
}
