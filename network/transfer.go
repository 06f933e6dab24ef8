package network

import (
	"fmt"
)

// region Transfer /////////////////////////////////////////////////////////////////////////////////////////////////////

// Transfer is a single queued send. It is owned by the Scheduler until its completion callback fired.
type Transfer struct {
	Source      DeviceID
	Destination DeviceID

	sender     *Device
	receiver   *Device
	payload    []byte
	offset     int
	onComplete func()
}

func NewTransfer(sender, receiver *Device, data []byte, onComplete func()) (transfer *Transfer) {
	payload := make([]byte, len(data))
	copy(payload, data)

	return &Transfer{
		Source:      sender.ID,
		Destination: receiver.ID,

		sender:     sender,
		receiver:   receiver,
		payload:    payload,
		onComplete: onComplete,
	}
}

func (t *Transfer) Size() int {
	return len(t.payload)
}

func (t *Transfer) Remaining() int {
	return len(t.payload) - t.offset
}

func (t *Transfer) Completed() bool {
	return t.offset >= len(t.payload)
}

func (t *Transfer) String() string {
	return fmt.Sprintf("Transfer(%d -> %d, %d/%d bytes)", t.Source, t.Destination, t.offset, len(t.payload))
}

// nextChunk cuts at most maxSize bytes from the front of the remaining payload.
func (t *Transfer) nextChunk(maxSize int) (chunk []byte) {
	chunkSize := t.Remaining()
	if chunkSize > maxSize {
		chunkSize = maxSize
	}

	chunk = t.payload[t.offset : t.offset+chunkSize]
	t.offset += chunkSize

	return chunk
}

func (t *Transfer) deliver(chunk []byte) {
	t.receiver.receive(&DataReceivedEvent{
		From:   t.sender,
		FromID: t.Source,
		Data:   chunk,
	})
}

func (t *Transfer) complete() {
	if t.onComplete != nil {
		t.onComplete()
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
