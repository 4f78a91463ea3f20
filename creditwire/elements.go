package creditwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kkdai/bstream"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// writeElement serializes a single field according to its concrete
// type, the same dispatch-by-type-switch shape lnwire's own
// writeElement uses instead of one Encode method per primitive.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case creditid.PublicKey:
		_, err := w.Write(e[:])
		return err
	case creditid.Signature:
		_, err := w.Write(e[:])
		return err
	case creditid.Uid:
		_, err := w.Write(e[:])
		return err
	case creditid.InvoiceID:
		_, err := w.Write(e[:])
		return err
	case creditid.RandNonce:
		_, err := w.Write(e[:])
		return err
	case hashlock.HashedLock:
		_, err := w.Write(e[:])
		return err
	case hashlock.PlainLock:
		_, err := w.Write(e[:])
		return err
	case u128.Uint128:
		b := e.Bytes16()
		_, err := w.Write(b[:])
		return err
	case u128.Int128:
		b := e.Bytes16()
		_, err := w.Write(b[:])
		return err
	case uint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e)
		_, err := w.Write(b[:])
		return err
	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, err := w.Write(b[:])
		return err
	case route.Route:
		if err := writeElement(w, uint32(len(e.PublicKeys))); err != nil {
			return err
		}
		for _, pk := range e.PublicKeys {
			if err := writeElement(w, pk); err != nil {
				return err
			}
		}
		return nil
	case uint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err
	default:
		return fmt.Errorf("creditwire: unknown type to write: %T", element)
	}
}

func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *creditid.PublicKey:
		_, err := io.ReadFull(r, e[:])
		return err
	case *creditid.Signature:
		_, err := io.ReadFull(r, e[:])
		return err
	case *creditid.Uid:
		_, err := io.ReadFull(r, e[:])
		return err
	case *creditid.InvoiceID:
		_, err := io.ReadFull(r, e[:])
		return err
	case *creditid.RandNonce:
		_, err := io.ReadFull(r, e[:])
		return err
	case *hashlock.HashedLock:
		_, err := io.ReadFull(r, e[:])
		return err
	case *hashlock.PlainLock:
		_, err := io.ReadFull(r, e[:])
		return err
	case *u128.Uint128:
		var b [16]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		v, err := u128.Uint128FromBytes16(b)
		if err != nil {
			return err
		}
		*e = v
		return nil
	case *u128.Int128:
		var b [16]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		v, err := u128.Int128FromBytes16(b)
		if err != nil {
			return err
		}
		*e = v
		return nil
	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint64(b[:])
		return nil
	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint32(b[:])
		return nil
	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0
		return nil
	case *route.Route:
		var n uint32
		if err := readElement(r, &n); err != nil {
			return err
		}
		keys := make([]creditid.PublicKey, n)
		for i := range keys {
			if err := readElement(r, &keys[i]); err != nil {
				return err
			}
		}
		e.PublicKeys = keys
		return nil
	default:
		return fmt.Errorf("creditwire: unknown type to read: %T", element)
	}
}

func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}

// writeOpCount packs an operation-list length as a tightly bit-packed
// 32-bit field via bstream, the same compact bit-level encoding
// lnwire-family codecs use for count/flag fields instead of a plain
// byte-aligned integer.
func writeOpCount(w io.Writer, count uint32) error {
	bw := bstream.NewBStreamWriter(4)
	bw.WriteBits(uint64(count), 32)
	_, err := w.Write(bw.Bytes())
	return err
}

func readOpCount(r io.Reader) (uint32, error) {
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return 0, err
	}
	br := bstream.NewBStreamReader(raw[:])
	v, err := br.ReadBits(32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func writeOperations(w io.Writer, ops []mutualcredit.FriendTcOp) error {
	if err := writeOpCount(w, uint32(len(ops))); err != nil {
		return err
	}
	for _, op := range ops {
		if err := writeOperation(w, op); err != nil {
			return err
		}
	}
	return nil
}

func readOperations(r io.Reader) ([]mutualcredit.FriendTcOp, error) {
	count, err := readOpCount(r)
	if err != nil {
		return nil, err
	}
	ops := make([]mutualcredit.FriendTcOp, count)
	for i := range ops {
		op, err := readOperation(r)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

// writeOperation encodes one tagged-union FriendTcOp: a 4-byte (uint32)
// kind tag followed by only the fields that variant carries.
func writeOperation(w io.Writer, op mutualcredit.FriendTcOp) error {
	if err := writeElements(w, uint32(op.Kind)); err != nil {
		return err
	}
	switch op.Kind {
	case mutualcredit.OpKindEnableRequests, mutualcredit.OpKindDisableRequests:
		return nil
	case mutualcredit.OpKindSetRemoteMaxDebt:
		return writeElement(w, op.SetRemoteMaxDebt)
	case mutualcredit.OpKindRequestSendFunds:
		r := op.RequestSendFunds
		return writeElements(w,
			r.RequestID, r.Route, r.DestPayment, r.TotalDestPayment,
			r.LeftFees, r.SrcHashedLock, r.InvoiceID)
	case mutualcredit.OpKindResponseSendFunds:
		r := op.ResponseSendFunds
		return writeElements(w, r.RequestID, r.DestHashedLock, r.RandNonce, r.Signature)
	case mutualcredit.OpKindCancelSendFunds:
		return writeElement(w, op.CancelSendFunds.RequestID)
	case mutualcredit.OpKindCollectSendFunds:
		c := op.CollectSendFunds
		return writeElements(w, c.RequestID, c.SrcPlainLock, c.DestPlainLock)
	}
	return fmt.Errorf("creditwire: unknown operation kind %d", op.Kind)
}

func readOperation(r io.Reader) (mutualcredit.FriendTcOp, error) {
	var kind uint32
	if err := readElement(r, &kind); err != nil {
		return mutualcredit.FriendTcOp{}, err
	}

	switch mutualcredit.FriendTcOpKind(kind) {
	case mutualcredit.OpKindEnableRequests:
		return mutualcredit.EnableRequests(), nil
	case mutualcredit.OpKindDisableRequests:
		return mutualcredit.DisableRequests(), nil
	case mutualcredit.OpKindSetRemoteMaxDebt:
		var v u128.Uint128
		if err := readElement(r, &v); err != nil {
			return mutualcredit.FriendTcOp{}, err
		}
		return mutualcredit.SetRemoteMaxDebt(v), nil
	case mutualcredit.OpKindRequestSendFunds:
		var req mutualcredit.RequestSendFundsOp
		if err := readElements(r,
			&req.RequestID, &req.Route, &req.DestPayment, &req.TotalDestPayment,
			&req.LeftFees, &req.SrcHashedLock, &req.InvoiceID); err != nil {
			return mutualcredit.FriendTcOp{}, err
		}
		return mutualcredit.RequestSendFunds(req), nil
	case mutualcredit.OpKindResponseSendFunds:
		var resp mutualcredit.ResponseSendFundsOp
		if err := readElements(r,
			&resp.RequestID, &resp.DestHashedLock, &resp.RandNonce, &resp.Signature); err != nil {
			return mutualcredit.FriendTcOp{}, err
		}
		return mutualcredit.ResponseSendFunds(resp), nil
	case mutualcredit.OpKindCancelSendFunds:
		var id creditid.Uid
		if err := readElement(r, &id); err != nil {
			return mutualcredit.FriendTcOp{}, err
		}
		return mutualcredit.CancelSendFunds(id), nil
	case mutualcredit.OpKindCollectSendFunds:
		var c mutualcredit.CollectSendFundsOp
		if err := readElements(r, &c.RequestID, &c.SrcPlainLock, &c.DestPlainLock); err != nil {
			return mutualcredit.FriendTcOp{}, err
		}
		return mutualcredit.CollectSendFunds(c), nil
	}
	return mutualcredit.FriendTcOp{}, fmt.Errorf("creditwire: unknown operation kind %d", kind)
}
