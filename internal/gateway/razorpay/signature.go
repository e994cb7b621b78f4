package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign создает HMAC SHA256 подпись сообщения
func sign(message []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyPaymentSignature проверяет подпись callback-а платежа.
// Razorpay подписывает строку "<order_id>|<payment_id>" секретом ключа API.
// Сравнение за постоянное время.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if signature == "" {
		return false
	}
	expected := sign([]byte(orderID+"|"+paymentID), c.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature проверяет подпись вебхука по сырому телу запроса.
// Вебхуки подписываются отдельным секретом, не секретом ключа API.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := sign(body, c.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
