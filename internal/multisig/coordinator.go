package multisig

import (
	"bytes"
	"context"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/scale"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// Weight limit quoted on as_multi calls. Generous enough for a batched
// swap+transfer; the chain refunds the unused part.
const (
	maxWeightRefTime   = 8_000_000_000
	maxWeightProofSize = 262_144
)

type Coordinator struct {
	rpc           subrpc.ISubstrateRPC
	signerAddress string
	logger        *logger.Logger
}

// New builds a coordinator around a caller-owned RPC handle. The handle
// comes out of the boot-time pool; the coordinator never dials on its own.
func New(rpc subrpc.ISubstrateRPC, signerAddress string, logger *logger.Logger) ICoordinator {
	return &Coordinator{
		rpc:           rpc,
		signerAddress: signerAddress,
		logger:        logger,
	}
}

func (c *Coordinator) PrepareApprovalExtrinsic(ctx context.Context, tx *model.Transaction) (string, error) {
	call, callHash, err := decodeCall(tx.RawTransaction)
	if err != nil {
		return "", err
	}

	op, err := c.rpc.GetMultisigOperation(ctx, tx.Payer, callHash)
	if err != nil {
		return "", err
	}
	if op.HasApprovals() {
		c.logger.Info("[PrepareApprovalExtrinsic] operation already open", map[string]string{
			"payer":     tx.Payer,
			"callHash":  callHash,
			"approvals": strings.Join(op.Approvals, ","),
		})
		return "", errors.Wrapf(errs.ErrMultisigOperationAlreadyOpen, "call hash %s", callHash)
	}

	otherSignatories, err := c.sortedCoSigners(tx.Signers)
	if err != nil {
		return "", err
	}

	// as_multi with no timepoint: this is the proposing call.
	extrinsic := []byte{consts.PalletMultisig, consts.CallAsMulti}
	extrinsic = append(extrinsic, scale.EncodeU16(tx.Threshold)...)
	extrinsic = append(extrinsic, encodeAccountVec(otherSignatories)...)
	extrinsic = append(extrinsic, 0x00) // maybe_timepoint: None
	extrinsic = append(extrinsic, call...)
	extrinsic = append(extrinsic, scale.CompactEncode(maxWeightRefTime)...)
	extrinsic = append(extrinsic, scale.CompactEncode(maxWeightProofSize)...)

	return "0x" + hex.EncodeToString(extrinsic), nil
}

func (c *Coordinator) PrepareCancelExtrinsic(ctx context.Context, tx *model.Transaction) (string, error) {
	_, callHash, err := decodeCall(tx.RawTransaction)
	if err != nil {
		return "", err
	}

	op, err := c.rpc.GetMultisigOperation(ctx, tx.Payer, callHash)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", errors.Wrapf(errs.ErrMultisigOperationNotOpen, "call hash %s", callHash)
	}

	otherSignatories, err := c.sortedCoSigners(tx.Signers)
	if err != nil {
		return "", err
	}

	callHashBytes, _ := hex.DecodeString(strings.TrimPrefix(callHash, "0x"))

	extrinsic := []byte{consts.PalletMultisig, consts.CallCancelAsMulti}
	extrinsic = append(extrinsic, scale.EncodeU16(tx.Threshold)...)
	extrinsic = append(extrinsic, encodeAccountVec(otherSignatories)...)
	extrinsic = append(extrinsic, scale.EncodeU32(op.Timepoint.Height)...)
	extrinsic = append(extrinsic, scale.EncodeU32(op.Timepoint.Index)...)
	extrinsic = append(extrinsic, callHashBytes...)

	return "0x" + hex.EncodeToString(extrinsic), nil
}

// sortedCoSigners decodes the co-signer addresses, drops the local signer
// if it slipped into the list, and sorts by raw account id as the chain
// call convention requires.
func (c *Coordinator) sortedCoSigners(signers []string) ([][]byte, error) {
	localID, err := scale.SS58Decode(c.signerAddress)
	if err != nil {
		return nil, errors.Wrap(err, "invalid local signer address")
	}

	var ids [][]byte
	for _, signer := range signers {
		id, err := scale.SS58Decode(signer)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid co-signer %s", signer)
		}
		if bytes.Equal(id, localID) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i], ids[j]) < 0 })
	return ids, nil
}

// DeriveAddress computes the deterministic multisig account for a signer
// set and threshold, rendered with the given SS58 prefix.
func DeriveAddress(signers []string, threshold uint16, ss58Prefix uint8) (string, error) {
	ids := make([][]byte, 0, len(signers))
	for _, signer := range signers {
		id, err := scale.SS58Decode(signer)
		if err != nil {
			return "", errors.Wrapf(err, "invalid signer %s", signer)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i], ids[j]) < 0 })

	entropy := []byte("modlpy/utilisuba")
	entropy = append(entropy, scale.CompactEncode(uint64(len(ids)))...)
	for _, id := range ids {
		entropy = append(entropy, id...)
	}
	entropy = append(entropy, scale.EncodeU16(threshold)...)

	accountID := blake2b.Sum256(entropy)
	return scale.SS58Encode(accountID[:], ss58Prefix)
}

func decodeCall(rawTransaction string) ([]byte, string, error) {
	call, err := hex.DecodeString(strings.TrimPrefix(rawTransaction, "0x"))
	if err != nil {
		return nil, "", errors.Wrap(err, "malformed raw transaction hex")
	}
	if len(call) == 0 {
		return nil, "", errors.New("empty raw transaction")
	}
	hash := scale.CallHash(call)
	return call, "0x" + hex.EncodeToString(hash[:]), nil
}

func encodeAccountVec(ids [][]byte) []byte {
	out := scale.CompactEncode(uint64(len(ids)))
	for _, id := range ids {
		out = append(out, id...)
	}
	return out
}
