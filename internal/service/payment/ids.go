package payment

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for unique id generation
		panic(fmt.Sprintf("payment id generation: %v", err))
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}

// newTransactionID returns a unique transaction id, e.g. TXN1735689600123AB12CD34E.
func newTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN%d%s", now.UnixMilli(), randomSuffix(9))
}

// newReceiptNumber returns a unique receipt number, e.g. RCP1735689600123AB12CD.
func newReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP%d%s", now.UnixMilli(), randomSuffix(6))
}
