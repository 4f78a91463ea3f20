package creditwire

import (
	"io"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/u128"
)

// InconsistencyError is exchanged once a channel goes Inconsistent,
// proposing the terms (spec §4.2/§4.3) the other side must match
// before the channel can restart.
type InconsistencyError struct {
	ResetToken          creditid.Signature
	InconsistencyCounter uint64
	BalanceForReset     u128.Int128
}

var _ Message = (*InconsistencyError)(nil)

func (m *InconsistencyError) MsgType() MessageType { return MsgInconsistencyErr }

func (m *InconsistencyError) Encode(w io.Writer) error {
	return writeElements(w, m.ResetToken, m.InconsistencyCounter, m.BalanceForReset)
}

func (m *InconsistencyError) Decode(r io.Reader) error {
	return readElements(r, &m.ResetToken, &m.InconsistencyCounter, &m.BalanceForReset)
}

// RelaysUpdate carries a friend's current relay address set, the
// connectivity hint the Channeler uses to dial out (spec's Channeler
// adapter).
type RelaysUpdate struct {
	Relays []RelayAddress
}

// RelayAddress is one relay endpoint a friend can be reached through.
type RelayAddress struct {
	PublicKey creditid.PublicKey
	Address   string
}

var _ Message = (*RelaysUpdate)(nil)

func (m *RelaysUpdate) MsgType() MessageType { return MsgRelaysUpdate }

func (m *RelaysUpdate) Encode(w io.Writer) error {
	if err := writeOpCount(w, uint32(len(m.Relays))); err != nil {
		return err
	}
	for _, relay := range m.Relays {
		if err := writeElement(w, relay.PublicKey); err != nil {
			return err
		}
		addr := []byte(relay.Address)
		if err := writeElement(w, uint32(len(addr))); err != nil {
			return err
		}
		if _, err := w.Write(addr); err != nil {
			return err
		}
	}
	return nil
}

func (m *RelaysUpdate) Decode(r io.Reader) error {
	count, err := readOpCount(r)
	if err != nil {
		return err
	}
	relays := make([]RelayAddress, count)
	for i := range relays {
		if err := readElement(r, &relays[i].PublicKey); err != nil {
			return err
		}
		var n uint32
		if err := readElement(r, &n); err != nil {
			return err
		}
		addr := make([]byte, n)
		if _, err := io.ReadFull(r, addr); err != nil {
			return err
		}
		relays[i].Address = string(addr)
	}
	m.Relays = relays
	return nil
}

// KeepAlive carries no payload; it exists only to keep the relayed
// connection alive between friends, the same role lnwire's Ping/Pong
// pair serves for peer links.
type KeepAlive struct{}

var _ Message = (*KeepAlive)(nil)

func (m *KeepAlive) MsgType() MessageType   { return MsgKeepAlive }
func (m *KeepAlive) Encode(w io.Writer) error { return nil }
func (m *KeepAlive) Decode(r io.Reader) error { return nil }
