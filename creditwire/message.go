// Package creditwire implements the binary wire encoding for the
// messages friends exchange over a token channel (spec §7): MoveToken,
// MoveTokenRequest, InconsistencyError, RelaysUpdate and KeepAlive.
// The header-plus-payload framing and the Message interface follow
// lnwire's own wire format rather than a protobuf/gRPC envelope,
// matching the friend-to-friend transport this spec describes.
package creditwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessagePayload bounds a single wire message, mirroring lnwire's
// own ceiling; nothing in this protocol needs anywhere close to it.
const MaxMessagePayload = 65535

// MessageType is the 2-byte big-endian tag prefixing every message.
type MessageType uint16

const (
	MsgMoveToken         MessageType = 1
	MsgMoveTokenRequest  MessageType = 2
	MsgInconsistencyErr  MessageType = 3
	MsgRelaysUpdate      MessageType = 4
	MsgKeepAlive         MessageType = 5
	MsgSrcLockForward    MessageType = 6
)

// UnknownMessage is returned when a message type tag isn't recognized.
type UnknownMessage struct {
	messageType MessageType
}

func (u *UnknownMessage) Error() string {
	return fmt.Sprintf("creditwire: unknown message type %d", u.messageType)
}

// Message is implemented by every type exchanged between friends.
type Message interface {
	Decode(r io.Reader) error
	Encode(w io.Writer) error
	MsgType() MessageType
}

func makeEmptyMessage(msgType MessageType) (Message, error) {
	switch msgType {
	case MsgMoveToken:
		return &MoveToken{}, nil
	case MsgMoveTokenRequest:
		return &MoveTokenRequest{}, nil
	case MsgInconsistencyErr:
		return &InconsistencyError{}, nil
	case MsgRelaysUpdate:
		return &RelaysUpdate{}, nil
	case MsgKeepAlive:
		return &KeepAlive{}, nil
	case MsgSrcLockForward:
		return &SrcLockForward{}, nil
	default:
		return nil, &UnknownMessage{messageType: msgType}
	}
}

// WriteMessage serializes msg with its 2-byte type header onto w.
func WriteMessage(w io.Writer, msg Message) (int, error) {
	var bw bytes.Buffer
	if err := msg.Encode(&bw); err != nil {
		return 0, err
	}
	payload := bw.Bytes()
	if len(payload) > MaxMessagePayload {
		return 0, fmt.Errorf("creditwire: payload of %d bytes exceeds "+
			"max message size %d", len(payload), MaxMessagePayload)
	}

	var mType [2]byte
	binary.BigEndian.PutUint16(mType[:], uint16(msg.MsgType()))

	total := 0
	n, err := w.Write(mType[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(payload)
	total += n
	return total, err
}

// ReadMessage reads one type-tagged message off r.
func ReadMessage(r io.Reader) (Message, error) {
	var mType [2]byte
	if _, err := io.ReadFull(r, mType[:]); err != nil {
		return nil, err
	}
	msg, err := makeEmptyMessage(MessageType(binary.BigEndian.Uint16(mType[:])))
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r); err != nil {
		return nil, err
	}
	return msg, nil
}
