/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eventhub

import (
	"context"
	"sync"
	"time"

	"github.com/hyperledger-labs/fabric-event-client/pkg/utils"
	"github.com/hyperledger-labs/fabric-event-client/pkg/utils/compose"
	errors2 "github.com/hyperledger-labs/fabric-event-client/pkg/utils/errors"
	"github.com/hyperledger-labs/fabric-event-client/platform/common/utils/collections"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/delivery"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/core/generic/peer"
	"github.com/hyperledger-labs/fabric-event-client/platform/fabric/driver"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/events"
	"github.com/hyperledger-labs/fabric-event-client/platform/view/services/grpc"
	"github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric/protoutil"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	connectRetries = 3
	connectDelay   = 1 * time.Second
)

// TxEventCallback is invoked when the final validation code of a watched
// transaction is observed. The block number is passed in whatever
// representation the source produced, the listener coerces it.
type TxEventCallback func(txID string, code pb.TxValidationCode, blockNumber interface{})

// TxErrorCallback is invoked when the event stream fails
type TxErrorCallback func(err error)

// TxRegistration is the hub-side record of a transaction watch
type TxRegistration struct {
	TxID string
	// Unregister tells the listener to remove the watch after the first delivery
	Unregister bool
	OnEvent    TxEventCallback
	OnError    TxErrorCallback
}

// BlockEvent carries one block observed by the hub. Block is set when the
// hub is connected with full blocks, FilteredBlock otherwise.
type BlockEvent struct {
	Number        uint64
	Block         *common.Block
	FilteredBlock *pb.FilteredBlock
}

type BlockCallback func(event *BlockEvent)

// BlockRegistration identifies an installed block watch
type BlockRegistration struct {
	ID      string
	OnBlock BlockCallback
}

// Hub is a managed event connection to the deliver service of one peer.
// All registration callbacks are invoked from the hub's single dispatch
// goroutine, in block order.
type Hub struct {
	handleID    string
	networkName string
	channel     string
	peerConfig  *grpc.ConnectionConfig
	clients     peer.ClientFactory
	signer      driver.SigningIdentity
	hasher      delivery.Hasher
	publisher   events.Publisher
	metrics     *Metrics
	replay      bool

	// deliverClientFor can be swapped in tests to script the stream
	deliverClientFor func(peer.Client) (delivery.DeliverClient, error)

	mutex              sync.RWMutex
	txRegistrations    map[string]*TxRegistration
	blockRegistrations []*BlockRegistration
	startBlock         *uint64
	connected          bool
	fullBlock          bool
	client             peer.Client
	cancel             context.CancelFunc
}

func newHub(networkName, channel string, peerConfig *grpc.ConnectionConfig, clients peer.ClientFactory, signer driver.SigningIdentity, hasher delivery.Hasher, publisher events.Publisher, metrics *Metrics, replay bool) *Hub {
	return &Hub{
		handleID:         utils.GenerateUUID(),
		networkName:      networkName,
		channel:          channel,
		peerConfig:       peerConfig,
		clients:          clients,
		signer:           signer,
		hasher:           hasher,
		publisher:        publisher,
		metrics:          metrics,
		replay:           replay,
		deliverClientFor: delivery.NewDeliverClient,
		txRegistrations:  map[string]*TxRegistration{},
	}
}

// HandleID returns the unique id of this hub instance
func (h *Hub) HandleID() string {
	return h.handleID
}

// RegisterTxEvent installs a watch for the passed transaction id.
// A transaction id can be watched at most once per hub, a second
// registration fails.
func (h *Hub) RegisterTxEvent(txID string, onEvent TxEventCallback, onError TxErrorCallback, opts RegistrationOptions) (*TxRegistration, error) {
	if len(txID) == 0 {
		return nil, errors.New("transaction id must not be empty")
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.txRegistrations[txID]; ok {
		return nil, errors.Errorf("transaction [%s] is already registered on event hub [%s]", txID, h.handleID)
	}
	if opts.StartBlock != nil && !h.connected {
		h.startBlock = opts.StartBlock
	}
	reg := &TxRegistration{
		TxID:       txID,
		Unregister: opts.Unregister,
		OnEvent:    onEvent,
		OnError:    onError,
	}
	h.txRegistrations[txID] = reg
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("registered transaction [%s] on event hub [%s:%s]", txID, h.handleID, h.PeerAddress())
	}
	return reg, nil
}

// UnregisterTxEvent removes the watch for the passed transaction id, if any
func (h *Hub) UnregisterTxEvent(txID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.txRegistrations, txID)
}

// HasTxRegistration returns true if the hub already watches the passed transaction id
func (h *Hub) HasTxRegistration(txID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.txRegistrations[txID]
	return ok
}

// Registration returns the watch record for the passed transaction id, nil if none
func (h *Hub) Registration(txID string) *TxRegistration {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.txRegistrations[txID]
}

// RegisteredTxIDs returns the transaction ids currently watched
func (h *Hub) RegisteredTxIDs() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return collections.Keys(h.txRegistrations)
}

// RegisterBlockEvent installs a block watch
func (h *Hub) RegisterBlockEvent(callback BlockCallback) *BlockRegistration {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	reg := &BlockRegistration{ID: utils.GenerateUUID(), OnBlock: callback}
	h.blockRegistrations = append(h.blockRegistrations, reg)
	return reg
}

// UnregisterBlockEvent removes the passed block watch
func (h *Hub) UnregisterBlockEvent(registration *BlockRegistration) {
	if registration == nil {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.blockRegistrations, _ = collections.Remove(h.blockRegistrations, registration)
}

// Connect makes sure the deliver stream is open. It is idempotent, a
// connected hub returns immediately. With fullBlock set, the hub asks for
// full block data instead of the filtered stream.
func (h *Hub) Connect(ctx context.Context, fullBlock bool) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connected {
		return nil
	}
	if h.peerConfig == nil {
		return errors.Errorf("event hub [%s] has no peer to connect to", h.handleID)
	}
	return utils.NewRetryRunner(connectRetries, connectDelay, true).Run(func() error {
		return h.open(ctx, fullBlock)
	})
}

// open dials the peer and starts the dispatch goroutine.
// Caller holds the hub mutex.
func (h *Hub) open(ctx context.Context, fullBlock bool) error {
	client, err := h.clients.NewClient(*h.peerConfig)
	if err != nil {
		return errors.WithMessagef(err, "failed creating peer client for address [%s]", h.peerConfig.Address)
	}
	deliverClient, err := h.deliverClientFor(client)
	if err != nil {
		client.Close()
		return errors.WithMessagef(err, "failed creating deliver client for address [%s]", h.peerConfig.Address)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	var stream delivery.DeliverStream
	if fullBlock {
		stream, err = deliverClient.NewDeliver(streamCtx)
	} else {
		stream, err = deliverClient.NewDeliverFiltered(streamCtx)
	}
	if err != nil {
		cancel()
		client.Close()
		return err
	}

	envelope, err := delivery.CreateDeliverEnvelope(h.channel, h.signer, deliverClient.Certificate(), h.hasher, h.startPosition())
	if err != nil {
		cancel()
		client.Close()
		return errors.WithMessagef(err, "failed creating deliver envelope for channel [%s]", h.channel)
	}
	if err := delivery.DeliverSend(stream, envelope); err != nil {
		cancel()
		client.Close()
		return errors.WithMessagef(err, "failed sending seek envelope to [%s]", h.peerConfig.Address)
	}

	h.client = client
	h.cancel = cancel
	h.connected = true
	h.fullBlock = fullBlock
	go h.run(streamCtx, stream)
	logger.Debugf("event hub [%s] connected to [%s], full block [%v]", h.handleID, h.peerConfig.Address, fullBlock)
	return nil
}

func (h *Hub) startPosition() *ab.SeekPosition {
	if h.startBlock != nil {
		return delivery.SeekPositionFrom(*h.startBlock)
	}
	if h.replay {
		return delivery.StartGenesis
	}
	return delivery.StartNewest
}

// Disconnect tears down the stream and the peer connection.
// Registrations are kept, a later Connect resumes dispatching.
func (h *Hub) Disconnect() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.client != nil {
		h.client.Close()
		h.client = nil
	}
	h.connected = false
}

// IsConnected returns true if the deliver stream is open
func (h *Hub) IsConnected() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connected
}

// PeerAddress returns the address of the peer this hub is bound to
func (h *Hub) PeerAddress() string {
	if h.peerConfig == nil {
		return ""
	}
	return h.peerConfig.Address
}

// PeerConfig returns the connection configuration of the peer this hub is bound to
func (h *Hub) PeerConfig() *grpc.ConnectionConfig {
	return h.peerConfig
}

// run is the single dispatch goroutine of this hub
func (h *Hub) run(ctx context.Context, stream delivery.DeliverStream) {
	for {
		response, err := stream.Recv()
		if err != nil {
			h.mutex.Lock()
			h.connected = false
			h.mutex.Unlock()
			// a Recv failure caused by Disconnect is not an error the
			// registrations need to hear about
			if ctx.Err() != nil || errors2.HasCause(err, context.Canceled) {
				logger.Debugf("event hub [%s] stream to [%s] closed", h.handleID, h.PeerAddress())
				return
			}
			h.notifyError(errors2.Wrapf(err, "error receiving deliver response from [%s]", h.PeerAddress()))
			return
		}
		switch r := response.Type.(type) {
		case *pb.DeliverResponse_FilteredBlock:
			h.onFilteredBlock(r.FilteredBlock)
		case *pb.DeliverResponse_Block:
			h.onBlock(r.Block)
		case *pb.DeliverResponse_Status:
			h.notifyError(errors.Errorf("deliver stream to [%s] terminated with status [%s]", h.PeerAddress(), r.Status))
		default:
			h.notifyError(errors.Errorf("unexpected deliver response type [%T] from [%s]", r, h.PeerAddress()))
		}
	}
}

func (h *Hub) onFilteredBlock(block *pb.FilteredBlock) {
	if block == nil {
		return
	}
	h.metrics.BlocksReceived.With("channel", h.channel).Add(1)
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("event hub [%s] received filtered block [%d] with [%d] transactions", h.handleID, block.Number, len(block.FilteredTransactions))
	}
	for _, tx := range block.FilteredTransactions {
		h.dispatchTxEvent(tx.Txid, tx.TxValidationCode, block.Number)
	}
	h.dispatchBlockEvent(&BlockEvent{Number: block.Number, FilteredBlock: block})
}

func (h *Hub) onBlock(block *common.Block) {
	if block == nil || block.Header == nil || block.Data == nil {
		logger.Warnf("event hub [%s] received a block without header or payload, skipping", h.handleID)
		return
	}
	h.metrics.BlocksReceived.With("channel", h.channel).Add(1)
	number := block.Header.Number
	var flags []byte
	if block.Metadata != nil && len(block.Metadata.Metadata) > int(common.BlockMetadataIndex_TRANSACTIONS_FILTER) {
		flags = block.Metadata.Metadata[common.BlockMetadataIndex_TRANSACTIONS_FILTER]
	}
	for i, raw := range block.Data.Data {
		env, err := protoutil.UnmarshalEnvelope(raw)
		if err != nil {
			logger.Errorf("error unmarshalling envelope [%d] in block [%d]: %s", i, number, err)
			continue
		}
		payload, err := protoutil.UnmarshalPayload(env.Payload)
		if err != nil {
			logger.Errorf("error unmarshalling payload [%d] in block [%d]: %s", i, number, err)
			continue
		}
		channelHeader, err := protoutil.UnmarshalChannelHeader(payload.Header.ChannelHeader)
		if err != nil {
			logger.Errorf("error unmarshalling channel header [%d] in block [%d]: %s", i, number, err)
			continue
		}
		if common.HeaderType(channelHeader.Type) != common.HeaderType_ENDORSER_TRANSACTION {
			continue
		}
		code := pb.TxValidationCode_VALID
		if len(flags) > i {
			code = pb.TxValidationCode(flags[i])
		}
		h.dispatchTxEvent(channelHeader.TxId, code, number)
		if h.publisher != nil {
			chaincodeEvent, err := getChaincodeEvent(env, number)
			if err == nil && chaincodeEvent != nil {
				h.publisher.Publish(chaincodeEvent)
			}
		}
	}
	h.dispatchBlockEvent(&BlockEvent{Number: number, Block: block})
}

func (h *Hub) dispatchTxEvent(txID string, code pb.TxValidationCode, blockNumber uint64) {
	h.mutex.RLock()
	reg := h.txRegistrations[txID]
	h.mutex.RUnlock()
	if reg != nil {
		h.metrics.EventsDispatched.With("channel", h.channel).Add(1)
		h.invokeTxCallback(reg, txID, code, blockNumber)
	}
	h.publishTxStatus(txID, code, blockNumber)
}

// invokeTxCallback shields the dispatch loop from misbehaving callbacks
func (h *Hub) invokeTxCallback(reg *TxRegistration, txID string, code pb.TxValidationCode, blockNumber uint64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("callback for transaction [%s] panicked [%s]", txID, r)
		}
	}()
	reg.OnEvent(txID, code, blockNumber)
}

func (h *Hub) publishTxStatus(txID string, code pb.TxValidationCode, blockNumber uint64) {
	if h.publisher == nil {
		return
	}
	sb, topic := compose.CreateTxTopic(h.networkName, h.channel, "")
	h.publisher.Publish(&TransactionStatusChanged{
		ThisTopic: topic,
		TxID:      txID,
		VC:        code,
		Block:     blockNumber,
	})
	h.publisher.Publish(&TransactionStatusChanged{
		ThisTopic: compose.AppendAttributesOrPanic(sb, txID),
		TxID:      txID,
		VC:        code,
		Block:     blockNumber,
	})
}

func (h *Hub) dispatchBlockEvent(event *BlockEvent) {
	h.mutex.RLock()
	regs := make([]*BlockRegistration, len(h.blockRegistrations))
	copy(regs, h.blockRegistrations)
	h.mutex.RUnlock()
	for _, reg := range regs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("block callback [%s] panicked [%s]", reg.ID, r)
				}
			}()
			reg.OnBlock(event)
		}()
	}
}

// notifyError fans the error out to every registration's error callback.
// Registrations are kept, callers decide whether to retry elsewhere.
func (h *Hub) notifyError(err error) {
	logger.Errorf("event hub [%s]: %s", h.handleID, err)
	h.metrics.StreamErrors.With("channel", h.channel).Add(1)
	h.mutex.RLock()
	regs := collections.Values(h.txRegistrations)
	h.mutex.RUnlock()
	for _, reg := range regs {
		if reg.OnError == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("error callback for transaction [%s] panicked [%s]", reg.TxID, r)
				}
			}()
			reg.OnError(err)
		}()
	}
}
