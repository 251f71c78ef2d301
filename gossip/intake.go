package gossip

import (
	"encoding/json"
	"errors"

	"github.com/daglabs/chaincore/chainblock"
	"github.com/daglabs/chaincore/chainerrors"
	"github.com/daglabs/chaincore/chainlog"
	"github.com/daglabs/chaincore/engine"
)

// Intake wires a Subscriber's transaction/block topics to an Engine,
// silently swallowing duplicate receipts as gossip delivery requires.
type Intake struct {
	eng *engine.Engine
	log *chainlog.Logger
}

// NewIntake returns an Intake bound to eng.
func NewIntake(eng *engine.Engine, log *chainlog.Logger) *Intake {
	return &Intake{eng: eng, log: log}
}

// Wire subscribes to both gossip topics on sub.
func (in *Intake) Wire(sub Subscriber) error {
	if err := sub.Subscribe(TopicTransaction, in.handleTransaction); err != nil {
		return err
	}
	return sub.Subscribe(TopicBlock, in.handleBlock)
}

func (in *Intake) handleTransaction(payload []byte) {
	var j engine.TransactionJSON
	if err := json.Unmarshal(payload, &j); err != nil {
		in.log.Warnf("gossip: malformed transaction payload: %s", err)
		return
	}
	tx := engine.FromTransactionJSON(j)
	if _, err := in.eng.SubmitTransaction(tx); err != nil {
		if errors.Is(err, chainerrors.ErrAlreadyAdded) {
			return // expected under gossip
		}
		in.log.Warnf("gossip: rejected transaction %s:%d: %s", tx.UserID, tx.TransNo, err)
	}
}

func (in *Intake) handleBlock(payload []byte) {
	var j engine.BlockJSON
	if err := json.Unmarshal(payload, &j); err != nil {
		in.log.Warnf("gossip: malformed block payload: %s", err)
		return
	}
	b := engine.FromBlockJSON(j)
	if err := in.eng.SubmitExternalBlock(b); err != nil {
		if errors.Is(err, chainerrors.ErrDuplicateBlock) {
			return // expected under gossip
		}
		in.log.Warnf("gossip: rejected block %s: %s", b.BlockHash, err)
	}
}

// Bootstrap applies a BLOCKS_AND_TRANS onboarding reply: blocks first,
// then free transactions, tolerating duplicates.
func (in *Intake) Bootstrap(blocks []engine.BlockJSON, freeTxs []engine.TransactionJSON) {
	for _, bj := range blocks {
		in.handleBlockDirect(engine.FromBlockJSON(bj))
	}
	for _, tj := range freeTxs {
		tx := engine.FromTransactionJSON(tj)
		if _, err := in.eng.SubmitTransaction(tx); err != nil && !errors.Is(err, chainerrors.ErrAlreadyAdded) {
			in.log.Warnf("bootstrap: rejected transaction %s:%d: %s", tx.UserID, tx.TransNo, err)
		}
	}
}

func (in *Intake) handleBlockDirect(b chainblock.Block) {
	if err := in.eng.SubmitExternalBlock(b); err != nil {
		if errors.Is(err, chainerrors.ErrDuplicateBlock) {
			return
		}
		in.log.Warnf("bootstrap: rejected block %s: %s", b.BlockHash, err)
	}
}
