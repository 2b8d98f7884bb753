// Package signature проверяет подлинность уведомлений платёжного провайдера.
//
// Подпись — это HMAC-SHA256 от сырого тела запроса с общим секретом в
// качестве ключа, закодированный в hex. Сравнение выполняется за постоянное
// время, чтобы не раскрывать правильную подпись через тайминги.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign вычисляет ожидаемую подпись тела запроса.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сообщает, совпадает ли переданная подпись с подписью тела.
//
// Пустой секрет или пустая подпись всегда дают false.
func Verify(secret string, body []byte, provided string) bool {
	provided = strings.ToLower(strings.TrimSpace(provided))
	if secret == "" || provided == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
