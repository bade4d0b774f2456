package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const OrderNumberPrefix = "PED-"

// GenerateOrderNumber returns "PED-" followed by 8 uppercase hex characters.
// Uniqueness is ultimately guaranteed by the orders_order_number_key constraint.
func GenerateOrderNumber() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// fallback: time-based entropy
		return fmt.Sprintf("%s%08X", OrderNumberPrefix, uint32(time.Now().UnixNano()))
	}
	return OrderNumberPrefix + strings.ToUpper(hex.EncodeToString(buf))
}
