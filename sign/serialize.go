package sign

import (
	"encoding/binary"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/utils"
)

// SerializeSignedMessage encodes msg as a block count, the blocks and the
// signature, all little-endian.
func SerializeSignedMessage(msg *toyrsa.SignedMessage) []byte {
	result := make([]byte, 4+len(msg.Ciphertext)*8+8)
	binary.LittleEndian.PutUint32(result[0:], uint32(len(msg.Ciphertext)))
	offset := 4
	for i, c := range msg.Ciphertext {
		binary.LittleEndian.PutUint64(result[offset+i*8:], uint64(c))
	}
	offset += len(msg.Ciphertext) * 8
	binary.LittleEndian.PutUint64(result[offset:], uint64(msg.Signature))
	return result
}

// DeserializeSignedMessage decodes a message written by
// SerializeSignedMessage. Trailing bytes are rejected.
func DeserializeSignedMessage(data []byte) (*toyrsa.SignedMessage, error) {
	count, offset, err := utils.SafeReadLength(data, 0, utils.MaxBlockCount)
	if err != nil {
		return nil, fmt.Errorf("%w: block count: %v", ErrMalformedMessage, err)
	}
	if err := utils.ValidateSliceAccess(data, offset, count*8+8); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(data) != offset+count*8+8 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedMessage, len(data)-offset-count*8-8)
	}

	cipher := make([]int64, count)
	for i := range cipher {
		cipher[i] = int64(binary.LittleEndian.Uint64(data[offset:]))
		offset += 8
	}
	return &toyrsa.SignedMessage{
		Ciphertext: cipher,
		Signature:  int64(binary.LittleEndian.Uint64(data[offset:])),
	}, nil
}
