package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
)

func signatureFor(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test-secret"
	valid := signatureFor("order_abc", "pay_xyz", secret)

	if !VerifySignature("order_abc", "pay_xyz", valid, secret) {
		t.Fatal("expected a valid signature to verify")
	}
	if VerifySignature("order_abc", "pay_xyz", valid, "other-secret") {
		t.Fatal("signature must not verify under a different secret")
	}
	if VerifySignature("order_other", "pay_xyz", valid, secret) {
		t.Fatal("signature must bind to the order id")
	}
	if VerifySignature("order_abc", "pay_other", valid, secret) {
		t.Fatal("signature must bind to the payment id")
	}
}

func TestVerifySignature_emptyInputs(t *testing.T) {
	const secret = "test-secret"
	if VerifySignature("", "pay_xyz", signatureFor("", "pay_xyz", secret), secret) {
		t.Fatal("empty order id must not verify")
	}
	if VerifySignature("order_abc", "", signatureFor("order_abc", "", secret), secret) {
		t.Fatal("empty payment id must not verify")
	}
	if VerifySignature("order_abc", "pay_xyz", "", secret) {
		t.Fatal("empty signature must not verify")
	}
}
