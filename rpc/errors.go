package rpc

import "github.com/jamesatomc/kanari-sdk-V2/kanari"

// Transport-level JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// domainCodes assigns each domain error kind a stable code in the
// 1000-1999 range. KindStoreIoError deliberately has no entry: per
// the error taxonomy it never reaches a client as a domain error, it
// propagates as an internal error instead (see internalError).
var domainCodes = map[kanari.Kind]int{
	kanari.KindInvalidSignature:       1000,
	kanari.KindSequenceMismatch:       1001,
	kanari.KindInsufficientFee:        1002,
	kanari.KindGasExceeded:            1003,
	kanari.KindInsufficientBalance:    1004,
	kanari.KindBalanceOverflow:        1005,
	kanari.KindSupplyOverflow:         1006,
	kanari.KindSupplyUnderflow:        1007,
	kanari.KindSequenceOverflow:       1008,
	kanari.KindModuleAlreadyPublished: 1009,
	kanari.KindInvalidTransfer:        1010,
	kanari.KindVmExecutionFailure:     1011,
}

func domainError(kind kanari.Kind, message string) *Error {
	code, ok := domainCodes[kind]
	if !ok {
		code = codeInternalError
	}
	return &Error{Code: code, Message: message, Data: map[string]any{"kind": string(kind)}}
}

func parseError(err error) *Error {
	return &Error{Code: codeParseError, Message: err.Error()}
}

func methodNotFound(method string) *Error {
	return &Error{Code: codeMethodNotFound, Message: "method not found: " + method}
}

func invalidParams(err error) *Error {
	return &Error{Code: codeInvalidParams, Message: err.Error()}
}

// internalError is used both for genuinely unexpected failures and
// for the StoreIoError case: §7 requires an I/O failure inside apply
// to propagate as an internal error rather than a domain receipt.
func internalError(err error) *Error {
	return &Error{Code: codeInternalError, Message: err.Error()}
}
