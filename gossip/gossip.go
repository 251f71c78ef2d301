// Package gossip defines the ports the engine's HTTP/bootstrap adapters
// talk through to the (externally provided) gossip transport: publish/
// subscribe by topic plus point-to-point notification, both carrying
// opaque payloads with a type tag. This models netadapter/router's
// request/response router shape and protocol/flowcontext's "relay what
// the engine produced" pattern, without implementing any real network
// transport.
package gossip

import (
	"sync"

	"github.com/daglabs/chaincore/engine"
)

// Topics used on the gossip bus.
const (
	TopicTransaction = "transaction"
	TopicBlock       = "block"
)

// Frame is a two-part [topic, payload] gossip message.
type Frame struct {
	Topic   string
	Payload []byte
}

// Publisher publishes a message to every subscriber of a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Notifier sends a message to one specific peer, used for the NEW_PEER /
// BLOCKS_AND_TRANS onboarding exchange.
type Notifier interface {
	Notify(peerAddr string, payload []byte) error
}

// Subscriber receives a callback for every message published to a topic it
// is subscribed to.
type Subscriber interface {
	Subscribe(topic string, handler func(payload []byte)) error
}

// LoopbackBus is a Publisher/Subscriber/Notifier test double: every
// publish is delivered synchronously, in-process, to every local
// subscriber of that topic. It has no network component; chaincore only
// defines the ports the gossip transport is expected to satisfy.
type LoopbackBus struct {
	mtx  sync.Mutex
	subs map[string][]func(payload []byte)
}

// NewLoopbackBus returns an empty LoopbackBus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{subs: make(map[string][]func(payload []byte))}
}

// Publish delivers payload to every subscriber of topic, synchronously.
// Duplicate receipts must be silently swallowed by the subscriber; gossip
// delivery offers no dedup guarantee of its own.
func (b *LoopbackBus) Publish(topic string, payload []byte) error {
	b.mtx.Lock()
	handlers := append([]func(payload []byte){}, b.subs[topic]...)
	b.mtx.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// Subscribe registers handler for topic.
func (b *LoopbackBus) Subscribe(topic string, handler func(payload []byte)) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.subs[topic] = append(b.subs[topic], handler)
	return nil
}

// Notify is a no-op point-to-point send on the loopback bus: there is only
// one node, so there is no peer to notify. It exists so LoopbackBus
// satisfies Notifier for wiring tests.
func (b *LoopbackBus) Notify(_ string, _ []byte) error { return nil }

// PublishBlock implements api.Publisher by marshaling and publishing a
// block over TopicBlock.
func (b *LoopbackBus) PublishBlock(blockJSON engine.BlockJSON) error {
	payload, err := marshalJSON(blockJSON)
	if err != nil {
		return err
	}
	return b.Publish(TopicBlock, payload)
}

// PublishTransaction implements api.Publisher by marshaling and publishing
// a transaction over TopicTransaction.
func (b *LoopbackBus) PublishTransaction(txJSON engine.TransactionJSON) error {
	payload, err := marshalJSON(txJSON)
	if err != nil {
		return err
	}
	return b.Publish(TopicTransaction, payload)
}
