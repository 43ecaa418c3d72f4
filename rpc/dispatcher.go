package rpc

import (
	"encoding/json"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jamesatomc/kanari-sdk-V2/engine"
	"github.com/jamesatomc/kanari-sdk-V2/log"
	"github.com/jamesatomc/kanari-sdk-V2/metrics"
)

var logger = log.WithContext("pkg", "rpc")

var requestLatency = metrics.LazyLoadHistogramVec("rpc_request_duration_ms", []string{"method"}, metrics.BucketRPCLatency)

type methodFunc func(d *Dispatcher, params json.RawMessage) (any, *Error)

// methods is the routing table from §4.6: every name the dispatcher
// recognizes, mapped to its handler. writeMethods below records which
// of these acquire the writer lease.
var methods = map[string]methodFunc{
	"kanari_getAccount":        handleGetAccount,
	"kanari_getBalance":        handleGetBalance,
	"kanari_getBlock":          handleGetBlock,
	"kanari_getBlockHeight":    handleGetBlockHeight,
	"kanari_getStats":          handleGetStats,
	"kanari_submitTransaction": handleSubmitTransaction,
	"kanari_publishModule":     handlePublishModule,
	"kanari_callFunction":      handleCallFunction,
	"kanari_getContract":       handleGetContract,
	"kanari_listContracts":     handleListContracts,
}

// writeMethods are the three routes that end up calling Engine.Submit
// and therefore contend for the writer lease. A batch request runs
// these in array order on the calling goroutine so the order in which
// they appear in the batch is the order in which they acquire the
// lease; every other method is dispatched onto the read worker pool.
var writeMethods = map[string]bool{
	"kanari_submitTransaction": true,
	"kanari_publishModule":     true,
	"kanari_callFunction":      true,
}

// Dispatcher routes JSON-RPC 2.0 requests to the Engine. It holds no
// state of its own beyond the Engine reference: all synchronization
// happens inside Engine.Submit's writer lease.
type Dispatcher struct {
	engine *engine.Engine
}

// New wires a Dispatcher to eng.
func New(eng *engine.Engine) *Dispatcher {
	return &Dispatcher{engine: eng}
}

func (d *Dispatcher) dispatchOne(req Request) Response {
	start := time.Now()
	defer func() {
		requestLatency().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"method": req.Method})
	}()

	fn, ok := methods[req.Method]
	if !ok {
		return replyErr(req.ID, methodNotFound(req.Method))
	}
	result, rpcErr := fn(d, req.Params)
	if rpcErr != nil {
		logger.Debug("rpc call failed", "method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
		return replyErr(req.ID, rpcErr)
	}
	return reply(req.ID, result)
}

// dispatchBatch runs every request in reqs and returns their
// responses in the same order. Read methods run concurrently on a
// pool bounded to the host's core count (§5's read worker pool);
// write methods run synchronously on the calling goroutine, in array
// order, so their lease-acquisition order matches the batch's order.
func (d *Dispatcher) dispatchBatch(reqs []Request) []Response {
	results := make([]Response, len(reqs))
	group := &errgroup.Group{}
	group.SetLimit(runtime.NumCPU())

	for i, req := range reqs {
		if writeMethods[req.Method] {
			results[i] = d.dispatchOne(req)
			continue
		}
		i, req := i, req
		group.Go(func() error {
			results[i] = d.dispatchOne(req)
			return nil
		})
	}
	group.Wait()
	return results
}
