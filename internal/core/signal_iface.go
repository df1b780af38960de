package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is a raw text payload (a JSON envelope).
type Frame []byte

// SignalConnection abstracts a messaging transport: the signaling socket
// of the pion provider or a browser's view socket.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
