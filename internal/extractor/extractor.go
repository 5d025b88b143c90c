// Package extractor turns raw bank-notification email text into structured
// payment data. Extraction is a cascade of per-field strategies; each field
// resolves independently and the first matching strategy wins.
package extractor

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const NameNotSpecified = "Не указано"

var ErrNoIIN = errors.New("no IIN found in message text")

// Notice is the structured result of parsing one notification email.
//
// PayerIIN comes from the bank key-value field, RecipientIIN from the guest
// label; when only one of the two is present both carry the same value. A
// differing pair distinguishes third-party funding from self-funding.
type Notice struct {
	Name         string
	Service      string
	PayerIIN     string
	RecipientIIN string

	Amount    decimal.Decimal
	HasAmount bool

	// Date is the payment timestamp. When DateFallback is set the value is
	// the wall clock at extraction time and is strictly lower-confidence:
	// it must never overwrite an already recorded transaction date.
	Date         time.Time
	DateFallback bool

	// PaymentID is the bank payment identifier, or a synthesized
	// MANUAL-<epoch-ms>-<random> id when the email carries none.
	PaymentID            string
	PaymentIDSynthesized bool

	Phone string
}

// Extract parses the plain-text body of a notification email. It is pure and
// deterministic for identical input, except for the synthesized payment id
// and the wall-clock date fallback, which are non-deterministic by design.
// The absence of any IIN-shaped field is the hard failure condition.
func Extract(text string) (*Notice, error) {
	bank, hasBank := firstMatch(text, bankIINStrategies)
	guest, hasGuest := firstMatch(text, recipientIINStrategies)
	generic, hasGeneric := firstMatch(text, genericIINStrategies)

	if !hasBank && !hasGuest && !hasGeneric {
		return nil, ErrNoIIN
	}

	var iin string
	switch {
	case hasBank:
		iin = bank.value
	case hasGuest:
		iin = guest.value
	default:
		iin = generic.value
	}

	n := &Notice{
		Name:         NameNotSpecified,
		Service:      NameNotSpecified,
		PayerIIN:     iin,
		RecipientIIN: iin,
	}
	if hasBank {
		n.PayerIIN = bank.value
	}
	if hasGuest {
		n.RecipientIIN = guest.value
	}

	if m, ok := firstMatch(text, nameStrategies); ok {
		n.Name = m.value
	}
	if m, ok := firstMatch(text, serviceStrategies); ok {
		n.Service = m.value
	}
	if m, ok := firstMatch(text, phoneStrategies); ok {
		n.Phone = m.value
	}

	if m, ok := firstMatch(text, amountStrategies); ok {
		if amount, err := parseAmount(m.value); err == nil {
			n.Amount = amount
			n.HasAmount = true
		}
	}

	if m, ok := firstMatch(text, dateStrategies); ok {
		if d, err := time.ParseInLocation("02.01.2006 15:04:05", m.value, time.Local); err == nil {
			n.Date = d
		}
	}
	if n.Date.IsZero() {
		n.Date = time.Now()
		n.DateFallback = true
	}

	if m, ok := firstMatch(text, paymentIDStrategies); ok {
		n.PaymentID = m.value
	} else {
		n.PaymentID = newManualPaymentID()
		n.PaymentIDSynthesized = true
	}

	return n, nil
}

// parseAmount accepts both comma and dot as the decimal separator.
func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
}

var (
	manualMu   sync.Mutex
	lastManual string
)

// newManualPaymentID synthesizes a fallback payment id. Ids are unique per
// call within the process even when the clock and the random draw collide.
func newManualPaymentID() string {
	manualMu.Lock()
	defer manualMu.Unlock()

	for {
		id := fmt.Sprintf("MANUAL-%d-%d", time.Now().UnixMilli(), rand.Intn(10000))
		if id != lastManual {
			lastManual = id
			return id
		}
	}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
