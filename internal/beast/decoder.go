package beast

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// maxBufferedBytes bounds the data kept while waiting for the end of a message
const maxBufferedBytes = 4096

// Decoder decodes Beast mode messages from a byte stream delivered in chunks
type Decoder struct {
	logger *logrus.Logger
	buffer []byte
}

// NewDecoder creates a new Beast decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		buffer: make([]byte, 0, maxBufferedBytes),
	}
}

// Decode appends data to the pending bytes and returns every complete message found.
// Incomplete trailing messages are kept for the next call.
func (d *Decoder) Decode(data []byte) []*Message {
	d.buffer = append(d.buffer, data...)

	var messages []*Message
	for {
		// Look for sync byte
		syncIndex := -1
		for i, b := range d.buffer {
			if b == SyncByte {
				syncIndex = i
				break
			}
		}
		if syncIndex == -1 {
			d.buffer = d.buffer[:0]
			break
		}
		d.buffer = d.buffer[syncIndex:]

		if len(d.buffer) < 2 {
			break
		}

		msg, consumed, err := d.decodeMessage(d.buffer)
		if err != nil {
			// Resynchronise on the next sync byte
			d.logger.WithError(err).Debug("Failed to decode beast message")
			d.buffer = d.buffer[1:]
			continue
		}
		if msg == nil {
			break
		}

		messages = append(messages, msg)
		d.buffer = d.buffer[consumed:]
	}

	// Keep buffer size reasonable
	if len(d.buffer) > maxBufferedBytes {
		d.logger.WithField("buffer_size", len(d.buffer)).Debug("Beast buffer overflow, clearing")
		d.buffer = d.buffer[:0]
	}
	// Move the pending bytes to the front so the buffer does not grow without bound
	d.buffer = append(d.buffer[:0:0], d.buffer...)

	return messages
}

// decodeMessage decodes the message at the start of buf. It returns a nil message when
// buf does not hold the whole message yet.
func (d *Decoder) decodeMessage(buf []byte) (*Message, int, error) {
	messageType := buf[1]
	n, err := dataLength(messageType)
	if err != nil {
		return nil, 0, err
	}

	// Unescape the body: timestamp, signal and data
	body := make([]byte, 0, mlatBytes+1+n)
	i := 2
	for len(body) < cap(body) {
		if i >= len(buf) {
			return nil, 0, nil
		}
		b := buf[i]
		if b == SyncByte {
			if i+1 >= len(buf) {
				return nil, 0, nil
			}
			if buf[i+1] != SyncByte {
				return nil, 0, errors.New("unescaped sync byte inside beast message")
			}
			i++
		}
		body = append(body, b)
		i++
	}

	var mlat uint64
	for _, b := range body[:mlatBytes] {
		mlat = mlat<<8 | uint64(b)
	}

	msg := &Message{
		MessageType: messageType,
		MLAT:        mlat,
		Signal:      body[mlatBytes],
		Data:        body[mlatBytes+1:],
	}
	if !msg.IsValid() {
		return nil, 0, fmt.Errorf("invalid beast message 0x%02x", messageType)
	}
	return msg, i, nil
}
