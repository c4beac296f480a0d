/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric/protoutil"
)

// TransactionStatusChanged is published on the event bus whenever a hub
// observes the final validation code of a transaction
type TransactionStatusChanged struct {
	ThisTopic string
	TxID      string
	VC        pb.TxValidationCode
	Block     uint64
}

func (t *TransactionStatusChanged) Topic() string {
	return t.ThisTopic
}

func (t *TransactionStatusChanged) Message() interface{} {
	return t
}

// ChaincodeEvent is published on the event bus for every chaincode event
// found in a full block, under the chaincode id as topic
type ChaincodeEvent struct {
	BlockNumber   uint64
	TransactionID string
	ChaincodeID   string
	EventName     string
	Payload       []byte
}

func (chaincodeEvent *ChaincodeEvent) Topic() string {
	return chaincodeEvent.ChaincodeID
}

func (chaincodeEvent *ChaincodeEvent) Message() interface{} {
	return chaincodeEvent
}

func validChaincodeEvent(event *pb.ChaincodeEvent) bool {
	return len(event.GetChaincodeId()) > 0 && len(event.GetEventName()) > 0 && len(event.GetTxId()) > 0
}

func getChaincodeEvent(env *common.Envelope, blockNumber uint64) (*ChaincodeEvent, error) {
	chaincodeAction, err := protoutil.GetActionFromEnvelopeMsg(env)
	if err != nil {
		logger.Errorf("error getting chaincode actions from envelope: %s", err)
		return nil, err
	}

	chaincodeEventData, err := protoutil.UnmarshalChaincodeEvents(chaincodeAction.GetEvents())
	if err != nil {
		logger.Errorf("error getting chaincode event from chaincode actions: %s", err)
		return nil, err
	}

	if !validChaincodeEvent(chaincodeEventData) {
		return nil, nil
	}

	return &ChaincodeEvent{
		BlockNumber:   blockNumber,
		TransactionID: chaincodeEventData.GetTxId(),
		ChaincodeID:   chaincodeEventData.GetChaincodeId(),
		EventName:     chaincodeEventData.GetEventName(),
		Payload:       chaincodeEventData.GetPayload(),
	}, nil
}
