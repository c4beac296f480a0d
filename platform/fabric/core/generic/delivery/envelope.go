/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package delivery

import (
	"crypto/rand"
	"crypto/tls"
	"math"

	"github.com/hyperledger-labs/fabric-event-client/pkg/utils/proto"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	grpc2 "github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/hyperledger/fabric/protoutil"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Hasher hashes a message
type Hasher interface {
	Hash(msg []byte) (hash []byte, err error)
}

var (
	// StartGenesis seeks from the first block of the ledger
	StartGenesis = &ab.SeekPosition{
		Type: &ab.SeekPosition_Oldest{
			Oldest: &ab.SeekOldest{},
		},
	}
	// StartNewest seeks from the next block the peer appends
	StartNewest = &ab.SeekPosition{
		Type: &ab.SeekPosition_Newest{
			Newest: &ab.SeekNewest{},
		},
	}
)

// SeekPositionFrom seeks from the passed block number
func SeekPositionFrom(block uint64) *ab.SeekPosition {
	return &ab.SeekPosition{
		Type: &ab.SeekPosition_Specified{
			Specified: &ab.SeekSpecified{
				Number: block,
			},
		},
	}
}

// CreateDeliverEnvelope creates a signed envelope that asks the deliver
// service for blocks starting at the passed position
func CreateDeliverEnvelope(channelID string, signingIdentity driver.SigningIdentity, cert *tls.Certificate, hasher Hasher, start *ab.SeekPosition) (*common.Envelope, error) {
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("create delivery envelope starting from: [%s]", start.String())
	}
	creator, err := signingIdentity.Serialize()
	if err != nil {
		return nil, err
	}

	// check for client certificate and compute SHA2-256 on certificate if present
	tlsCertHash, err := grpc2.GetTLSCertHash(cert, hasher)
	if err != nil {
		return nil, err
	}

	_, header, err := CreateHeader(common.HeaderType_DELIVER_SEEK_INFO, channelID, creator, tlsCertHash)
	if err != nil {
		return nil, err
	}

	stop := &ab.SeekPosition{
		Type: &ab.SeekPosition_Specified{
			Specified: &ab.SeekSpecified{
				Number: math.MaxUint64,
			},
		},
	}

	seekInfo := &ab.SeekInfo{
		Start:    start,
		Stop:     stop,
		Behavior: ab.SeekInfo_BLOCK_UNTIL_READY,
	}

	raw, err := proto.Marshal(seekInfo)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling SeekInfo")
	}

	envelope, err := CreateEnvelope(raw, header, signingIdentity)
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

// CreateHeader creates a common.Header for a deliver request.
// tlsCertHash is for the client TLS cert, only applicable when client side TLS auth is required
func CreateHeader(txType common.HeaderType, channelID string, creator []byte, tlsCertHash []byte) (string, *common.Header, error) {
	ts := timestamppb.Now()

	nonce, err := GetRandomNonce()
	if err != nil {
		return "", nil, err
	}

	txID := protoutil.ComputeTxID(nonce, creator)

	chdr := &common.ChannelHeader{
		Type:        int32(txType),
		ChannelId:   channelID,
		TxId:        txID,
		Epoch:       0,
		Timestamp:   ts,
		TlsCertHash: tlsCertHash,
	}
	chdrBytes, err := proto.Marshal(chdr)
	if err != nil {
		return "", nil, err
	}

	shdr := &common.SignatureHeader{
		Creator: creator,
		Nonce:   nonce,
	}
	shdrBytes, err := proto.Marshal(shdr)
	if err != nil {
		return "", nil, err
	}

	header := &common.Header{
		ChannelHeader:   chdrBytes,
		SignatureHeader: shdrBytes,
	}

	return txID, header, nil
}

// CreateEnvelope creates a common.Envelope with the given payload data, header, and signing identity
func CreateEnvelope(data []byte, header *common.Header, signingIdentity driver.SigningIdentity) (*common.Envelope, error) {
	payload := &common.Payload{
		Header: header,
		Data:   data,
	}

	payloadBytes, err := proto.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal common.Payload")
	}

	signature, err := signingIdentity.Sign(payloadBytes)
	if err != nil {
		return nil, err
	}

	txEnvelope := &common.Envelope{
		Payload:   payloadBytes,
		Signature: signature,
	}

	return txEnvelope, nil
}

// GetRandomNonce returns a random byte array of length 24
func GetRandomNonce() ([]byte, error) {
	key := make([]byte, 24)

	_, err := rand.Read(key)
	if err != nil {
		return nil, errors.Wrap(err, "error getting random bytes")
	}
	return key, nil
}
