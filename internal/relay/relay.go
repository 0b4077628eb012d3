// Package relay builds the inline keyboard that offers to forward a freshly
// made video note to the user's registered chats, and encodes the callback
// token each button carries.
package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/directory"
)

// TokenPrefix starts every relay callback token; callback routing matches on it.
const TokenPrefix = "send-"

// ErrInvalidToken is returned for callback data that is not a relay token.
var ErrInvalidToken = errors.New("invalid relay token")

// EncodeToken returns the callback data for relaying to chatID.
func EncodeToken(chatID int64) string {
	return TokenPrefix + strconv.FormatInt(chatID, 10)
}

// DecodeToken extracts the destination chat id from callback data.
func DecodeToken(data string) (int64, error) {
	raw, ok := strings.CutPrefix(data, TokenPrefix)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, data)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidToken, data, err)
	}
	return chatID, nil
}

// BuildOffer returns one button row per destination, in order, or nil when
// there is nothing to offer.
func BuildOffer(dests []directory.Destination) *models.InlineKeyboardMarkup {
	if len(dests) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(dests))
	for _, d := range dests {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         d.Title,
			CallbackData: EncodeToken(d.ChatID),
		}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
