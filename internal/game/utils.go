package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
)

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range RoomCodeLength {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// GetUniqueRoomCode draws codes until one is not live.
// The caller must hold whatever lock makes exists and the later insert atomic.
func GetUniqueRoomCode(exists func(code string) bool) string {
	for {
		code := GenerateRoomCode()
		if !exists(code) {
			return code
		}
	}
}
