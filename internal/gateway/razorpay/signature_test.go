package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutrio/subscription-service/pkg/logger"
)

func testClient() *Client {
	return NewClient(Config{
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "webhook_secret",
		BaseURL:       "http://localhost:0",
	}, logger.New(logger.ERROR))
}

func hmacHex(message []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := testClient()

	valid := hmacHex([]byte("order_123|pay_456"), "key_secret")

	t.Run("accepts a correct signature", func(t *testing.T) {
		assert.True(t, c.VerifyPaymentSignature("order_123", "pay_456", valid))
	})

	t.Run("rejects a signature for another payment", func(t *testing.T) {
		assert.False(t, c.VerifyPaymentSignature("order_123", "pay_789", valid))
	})

	t.Run("rejects a tampered signature", func(t *testing.T) {
		tampered := valid[:len(valid)-1] + "0"
		if tampered == valid {
			tampered = valid[:len(valid)-1] + "1"
		}
		assert.False(t, c.VerifyPaymentSignature("order_123", "pay_456", tampered))
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		assert.False(t, c.VerifyPaymentSignature("order_123", "pay_456", ""))
	})

	t.Run("signature made with the webhook secret is rejected", func(t *testing.T) {
		wrongSecret := hmacHex([]byte("order_123|pay_456"), "webhook_secret")
		assert.False(t, c.VerifyPaymentSignature("order_123", "pay_456", wrongSecret))
	})
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := testClient()

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	valid := hmacHex(body, "webhook_secret")

	t.Run("accepts a correct signature", func(t *testing.T) {
		assert.True(t, c.VerifyWebhookSignature(body, valid))
	})

	t.Run("rejects when the body differs by one byte", func(t *testing.T) {
		changed := append([]byte{}, body...)
		changed[0] = ' '
		assert.False(t, c.VerifyWebhookSignature(changed, valid))
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		assert.False(t, c.VerifyWebhookSignature(body, ""))
	})

	t.Run("signature made with the api key secret is rejected", func(t *testing.T) {
		wrongSecret := hmacHex(body, "key_secret")
		assert.False(t, c.VerifyWebhookSignature(body, wrongSecret))
	})
}
