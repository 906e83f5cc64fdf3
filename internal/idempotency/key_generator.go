package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey builds a deterministic key using all provided parts.
func GenerateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// UpdateKey identifies a Telegram update. Telegram redelivers the same
// update id until the bot acknowledges it.
func UpdateKey(updateID int) string {
	return GenerateKey("update", updateID)
}

// CallbackKey identifies an inline button press.
func CallbackKey(callbackID string) string {
	return GenerateKey("callback", callbackID)
}

// MessageKey identifies a message within a chat.
func MessageKey(chatID int64, messageID int) string {
	return GenerateKey("message", chatID, messageID)
}
