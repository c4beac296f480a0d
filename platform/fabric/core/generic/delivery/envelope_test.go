/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"testing"

	"github.com/hyperledger-labs/fabric-event-client/pkg/utils/proto"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/hash"
	"github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct{}

func (fakeSigner) Serialize() ([]byte, error)      { return []byte("test-identity"), nil }
func (fakeSigner) Sign(msg []byte) ([]byte, error) { return []byte("a signature"), nil }

func TestCreateDeliverEnvelope(t *testing.T) {
	env, err := CreateDeliverEnvelope("testchannel", fakeSigner{}, nil, hash.SHA256Hasher{}, StartNewest)
	require.NoError(t, err)

	payload := &common.Payload{}
	require.NoError(t, proto.Unmarshal(env.Payload, payload))
	assert.Equal(t, []byte("a signature"), env.Signature)

	chdr := &common.ChannelHeader{}
	require.NoError(t, proto.Unmarshal(payload.Header.ChannelHeader, chdr))
	assert.Equal(t, "testchannel", chdr.ChannelId)
	assert.Equal(t, int32(common.HeaderType_DELIVER_SEEK_INFO), chdr.Type)
	assert.NotEmpty(t, chdr.TxId)

	shdr := &common.SignatureHeader{}
	require.NoError(t, proto.Unmarshal(payload.Header.SignatureHeader, shdr))
	assert.Equal(t, []byte("test-identity"), shdr.Creator)
	assert.Len(t, shdr.Nonce, 24)

	seekInfo := &ab.SeekInfo{}
	require.NoError(t, proto.Unmarshal(payload.Data, seekInfo))
	assert.NotNil(t, seekInfo.Start.GetNewest())
	assert.Equal(t, ab.SeekInfo_BLOCK_UNTIL_READY, seekInfo.Behavior)
}

func TestSeekPositions(t *testing.T) {
	assert.NotNil(t, StartGenesis.GetOldest())
	assert.Equal(t, uint64(42), SeekPositionFrom(42).GetSpecified().Number)
}
