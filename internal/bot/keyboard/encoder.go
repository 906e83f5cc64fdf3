// Package keyboard renders the calculator keypad and history panels as
// Telegram markup and encodes their callback payloads.
package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator = ":"
	// CallbackDataLimitBytes is the Telegram limit for callback_data.
	CallbackDataLimitBytes = 64
)

// EncodeCallback joins unique and data as "unique:data".
func EncodeCallback(unique, data string) (string, error) {
	payload := unique
	if data != "" {
		payload = unique + CallbackDataSeparator + data
	}

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// DecodeCallback splits callback data at the first separator.
func DecodeCallback(callbackData string) (unique, data string, err error) {
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	// telebot prefixes data of buttons with a Unique value with "\f".
	callbackData = strings.TrimPrefix(callbackData, "\f")

	unique, data, _ = strings.Cut(callbackData, CallbackDataSeparator)
	return unique, data, nil
}
