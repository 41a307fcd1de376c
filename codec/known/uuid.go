package known

import (
	"github.com/google/uuid"

	"github.com/anirudhraja/protoshadow/codec"
)

// uuidWire is the shared 16-byte representation. The nil UUID is the
// default and is carried as empty bytes.
var uuidWire = codec.NewMultiShadow(codec.Bytes())

func uuidToBytes(u *uuid.UUID) ([]byte, error) {
	if *u == uuid.Nil {
		return nil, nil
	}
	return u[:], nil
}

func bytesToUUID(b *[]byte) (uuid.UUID, error) {
	if len(*b) == 0 {
		return uuid.Nil, nil
	}
	return uuid.FromBytes(*b)
}

var (
	uuidCodec = codec.Target(uuidWire, uuidToBytes, bytesToUUID)

	uuidArrayCodec = codec.Target(uuidWire,
		func(a *[16]byte) ([]byte, error) {
			u := uuid.UUID(*a)
			return uuidToBytes(&u)
		},
		func(b *[]byte) ([16]byte, error) {
			u, err := bytesToUUID(b)
			return [16]byte(u), err
		},
	)
)

// UUID encodes uuid.UUID as 16 bytes. Any other non-empty length fails
// conversion on decode.
func UUID() codec.Codec[uuid.UUID] { return uuidCodec }

// UUIDArray encodes a raw [16]byte with the same bytes as UUID
func UUIDArray() codec.Codec[[16]byte] { return uuidArrayCodec }
