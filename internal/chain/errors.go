package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"fighterarena/internal/submit"
)

// Selector of OpenZeppelin's AccessControlUnauthorizedAccount(address,bytes32)
var accessControlSelector = crypto.Keccak256([]byte("AccessControlUnauthorizedAccount(address,bytes32)"))[:4]

// Substrings of node errors that clear up on their own. Node errors quote
// addresses and wei amounts, so no entry may be a bare number.
var transientMessages = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"nonce too low",
	"replacement transaction underpriced",
	"already known",
}

// Substrings of node errors that recur until someone intervenes
var terminalMessages = []string{
	"insufficient funds",
	"invalid sender",
	"intrinsic gas too low",
	"exceeds block gas limit",
}

// HTTP statuses of an RPC endpoint that is overloaded or restarting
var transientStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// classifyError wraps a geth or RPC error with the matching submit sentinel
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isTransport(err) {
		return fmt.Errorf("%s: %w: %w", op, submit.ErrTransient, err)
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && transientStatus[httpErr.StatusCode] {
		return fmt.Errorf("%s: %w: %w", op, submit.ErrTransient, err)
	}

	if revert := revertFrom(err); revert != nil {
		if isAccessControl(revert) {
			return fmt.Errorf("%s: %w: %w", op, submit.ErrUnauthorized, revert)
		}
		return fmt.Errorf("%s: %w", op, revert)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "accesscontrol") {
		return fmt.Errorf("%s: %w: %w", op, submit.ErrUnauthorized, err)
	}
	if errors.Is(err, core.ErrInsufficientFunds) || containsAny(msg, terminalMessages) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if containsAny(msg, transientMessages) {
		return fmt.Errorf("%s: %w: %w", op, submit.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransport reports whether err came from the connection rather than from
// the node's answer
func isTransport(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &netErr)
}

// mayHaveLanded reports whether a failed send could still have put the
// transaction in the node's pool
func mayHaveLanded(err error) bool {
	if strings.Contains(strings.ToLower(err.Error()), "already known") {
		return true
	}
	return errors.Is(err, context.Canceled) || isTransport(err)
}

func containsAny(msg string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// revertFrom extracts a revert from err, decoding the reason when the node
// attached revert data
func revertFrom(err error) *submit.RevertError {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data := revertData(dataErr.ErrorData()); len(data) > 0 {
			revert := &submit.RevertError{Err: err}
			if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
				revert.Reason = reason
			} else if len(data) >= 4 && bytes.Equal(data[:4], accessControlSelector) {
				revert.Reason = "AccessControlUnauthorizedAccount"
			}
			return revert
		}
	}

	msg := err.Error()
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		reason := strings.TrimPrefix(msg[i+len("execution reverted"):], ":")
		return &submit.RevertError{Reason: strings.TrimSpace(reason), Err: err}
	}
	return nil
}

func revertData(v any) []byte {
	switch d := v.(type) {
	case string:
		data, err := hexutil.Decode(d)
		if err != nil {
			return nil
		}
		return data
	case []byte:
		return d
	default:
		return nil
	}
}

func isAccessControl(r *submit.RevertError) bool {
	return strings.Contains(r.Reason, "AccessControl")
}
