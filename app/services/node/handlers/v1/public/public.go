// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/hashlight/chain/business/web/errs"
	"github.com/hashlight/chain/foundation/blockchain/light"
	"github.com/hashlight/chain/foundation/blockchain/merkle"
	"github.com/hashlight/chain/foundation/blockchain/state"
	"github.com/hashlight/chain/foundation/blockchain/storage/memory"
	"github.com/hashlight/chain/foundation/events"
	"github.com/hashlight/chain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// SubmitTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var st submitTx
	if err := web.Decode(r, &st); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	dbTx, err := toDatabaseTx(st)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", dbTx, "recipient", dbTx.Recipient, "amount", dbTx.Amount, "tip", dbTx.Tip)
	if err := h.State.SubmitTransaction(dbTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		TxID   string `json:"tx_id"`
	}{
		Status: "transaction added to mempool",
		TxID:   dbTx.ID(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitWitness registers a detached signature for a pending transaction.
func (h Handlers) SubmitWitness(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sw submitWitness
	if err := web.Decode(r, &sw); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	sig, err := hexutil.Decode(sw.Signature)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode signature: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("add witness", "traceid", v.TraceID, "tx_id", sw.TxID)
	if err := h.State.SubmitWitness(sw.TxID, sig); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		TxID   string `json:"tx_id"`
	}{
		Status: "witness recorded",
		TxID:   sw.TxID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Witness returns the recorded signature for the specified transaction id.
func (h Handlers) Witness(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txID := web.Param(r, "tx")

	sig, exists := h.State.RetrieveWitness(txID)
	if !exists {
		return errs.NewTrusted(errors.New("no witness for transaction"), http.StatusNotFound)
	}

	resp := struct {
		TxID      string `json:"tx_id"`
		Signature string `json:"signature"`
	}{
		TxID:      txID,
		Signature: hexutil.Encode(sig),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Supply returns the supply breakdown and proves the books still balance.
func (h Handlers) Supply(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	supply := h.State.QuerySupply()
	return web.Respond(ctx, w, supply, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = toAppTx(tran)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current balances for all accounts or the one specified.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var balances map[string]uint
	switch account {
	case "":
		balances = h.State.RetrieveBalances()

	default:
		balances = map[string]uint{account: h.State.QueryBalance(account)}
	}

	acts := make([]balance, 0, len(balances))
	for act, bal := range balances {
		acts = append(acts, balance{Account: act, Balance: bal})
	}
	sort.Slice(acts, func(i, j int) bool { return acts[i].Account < acts[j].Account })

	ai := actInfo{
		LastestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted:  h.State.QueryMempoolLength(),
		Balances:     acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByHeight returns the blocks in the specified height range. Either
// bound accepts the literal "latest" to mean the chain head.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLastest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLastest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	dbBlocks := h.State.QueryBlocksByHeight(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toAppBlock(dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// SignalMining signals the background worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// Proof returns the merkle inclusion proof for a transaction inside the
// block at the specified height.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := parseHeight(r)
	if err != nil {
		return err
	}
	txID := web.Param(r, "tx")

	entry, err := h.State.QueryArchiveEntry(height)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	pf, err := h.State.TxProof(height, txID)
	if err != nil {
		if errors.Is(err, merkle.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp := proof{
		Height:     height,
		TxID:       txID,
		MerkleRoot: entry.Block.Header.MerkleRoot,
		Proof:      pf,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Bloom returns the bloom filter for the block at the specified height. The
// geometry and raw bits are enough for a client to reconstruct the filter.
func (h Handlers) Bloom(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := parseHeight(r)
	if err != nil {
		return err
	}

	filter, err := h.State.BlockBloom(height)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	resp := bloomInfo{
		Height:    height,
		MBits:     filter.MBits(),
		HashCount: filter.HashCount(),
		SetBits:   filter.SetBits(),
		Bits:      hexutil.Encode(filter.Bits()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Inclusion runs the two phase inclusion check for a transaction against the
// block at the specified height and reports how the answer was reached.
func (h Handlers) Inclusion(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := parseHeight(r)
	if err != nil {
		return err
	}
	txID := web.Param(r, "tx")

	entry, err := h.State.QueryArchiveEntry(height)
	if err != nil {
		if errors.Is(err, memory.ErrUnknownBlock) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	lc := light.NewClient(h.State)
	lc.TrackHeader(entry.Block.Header)

	result, err := lc.VerifyInclusion(height, txID)
	if err != nil {
		return err
	}

	resp := inclusion{
		Height:        height,
		TxID:          txID,
		Status:        string(result.Status),
		BloomScreened: result.BloomScreened,
		Proof:         result.Proof,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func parseHeight(r *http.Request) (uint64, error) {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid height: %w", err), http.StatusBadRequest)
	}

	return height, nil
}
