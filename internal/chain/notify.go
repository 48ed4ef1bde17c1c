package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/oraclenet/orchestrator/internal/domain"
)

// DecodeNotify decodes a request event's optional `notify` bytes into its
// semantic (address, function) pair: the first 32 bytes are the address,
// the remainder (after a "::" delimiter) the function name. The core
// decodes this but never invokes it.
func DecodeNotify(raw []byte) (*domain.Notify, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) < 32 {
		return nil, fmt.Errorf("notify payload too short: %d bytes", len(raw))
	}

	address := "0x" + hex.EncodeToString(raw[:32])
	rest := string(raw[32:])
	rest = strings.TrimPrefix(rest, "::")

	return &domain.Notify{Address: address, Function: rest}, nil
}
