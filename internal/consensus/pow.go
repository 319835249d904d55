// Package consensus checks Bitcoin proof of work on block headers. It
// verifies work that was already done; it never searches for a nonce.
package consensus

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kykchain/kyk/pkg/block"
)

// PoW errors.
var (
	ErrInsufficientWork = errors.New("hash does not meet difficulty target")
	ErrBadTarget        = errors.New("difficulty target out of range")
)

// Target decodes the compact difficulty bits of a header into the 256-bit
// target a block hash must not exceed. The target must be positive and at
// most powLimit.
func Target(bits uint32, powLimit *big.Int) (*big.Int, error) {
	target := blockchain.CompactToBig(bits)
	if target.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bits %08x decode to %064x", ErrBadTarget, bits, target)
	}
	if powLimit != nil && target.Cmp(powLimit) > 0 {
		return nil, fmt.Errorf("%w: bits %08x above limit %064x", ErrBadTarget, bits, powLimit)
	}
	return target, nil
}

// HashValue returns the block hash of h as the number compared against
// the target.
func HashValue(h *block.Header) *big.Int {
	// chainhash keeps the wire order, the reverse of the display order.
	hash := chainhash.Hash(h.Hash().Reverse())
	return blockchain.HashToBig(&hash)
}

// CheckProofOfWork verifies that the hash of h meets the target its bits
// declare, and that the target is within powLimit.
func CheckProofOfWork(h *block.Header, powLimit *big.Int) error {
	if h == nil {
		return block.ErrNilHeader
	}
	target, err := Target(h.Bits, powLimit)
	if err != nil {
		return err
	}
	if HashValue(h).Cmp(target) > 0 {
		return fmt.Errorf("%w: block %s, bits %08x", ErrInsufficientWork, h.Hash(), h.Bits)
	}
	return nil
}

// Work returns the expected number of hashes needed to find a block at
// the difficulty bits encode.
func Work(bits uint32) *big.Int {
	return blockchain.CalcWork(bits)
}
