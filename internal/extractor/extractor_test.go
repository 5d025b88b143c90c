package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankEmail = `Поступил новый платеж
ЖСН|ИИН|ИИН = 850101300123
Телефон нөмірі|Номер телефона = 77071234567
Платеж на сумму: 26000.00
Дата: 15.01.2024 10:30:45
Идентификатор платежа: 4521786390
Услуга: Пополнение Atlas Save
ИИН отдыхающего: 990202400456
ФИО отдыхающего: Ахметов Серик Болатович`

func TestExtractBankEmail(t *testing.T) {
	n, err := Extract(bankEmail)
	require.NoError(t, err)

	assert.Equal(t, "850101300123", n.PayerIIN)
	assert.Equal(t, "990202400456", n.RecipientIIN)
	assert.Equal(t, "Ахметов Серик Болатович", n.Name)
	assert.Equal(t, "77071234567", n.Phone)

	require.True(t, n.HasAmount)
	assert.Equal(t, "26000", n.Amount.String())

	assert.Equal(t, "4521786390", n.PaymentID)
	assert.False(t, n.PaymentIDSynthesized)

	assert.False(t, n.DateFallback)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 0, time.Local), n.Date)
}

func TestExtractSelfPayment(t *testing.T) {
	text := `ИИН: 850101300123
Платеж на сумму: 5000,50
Дата: 01.02.2024 09:00:00
Идентификатор платежа: 111222333`

	n, err := Extract(text)
	require.NoError(t, err)

	// A single IIN means the payer is the account owner.
	assert.Equal(t, n.PayerIIN, n.RecipientIIN)
	assert.Equal(t, "850101300123", n.PayerIIN)
	assert.Equal(t, NameNotSpecified, n.Name)

	require.True(t, n.HasAmount)
	assert.Equal(t, "5000.5", n.Amount.String())
}

func TestExtractNoIIN(t *testing.T) {
	_, err := Extract("Платеж на сумму: 1000\nДата: 01.01.2024 00:00:00")
	assert.ErrorIs(t, err, ErrNoIIN)
}

func TestExtractMissingAmount(t *testing.T) {
	n, err := Extract("ИИН отдыхающего: 990202400456")
	require.NoError(t, err)
	assert.False(t, n.HasAmount)
}

func TestExtractDateFallback(t *testing.T) {
	before := time.Now()
	n, err := Extract("ИИН: 850101300123\nПлатеж на сумму: 1000")
	require.NoError(t, err)

	assert.True(t, n.DateFallback)
	assert.False(t, n.Date.Before(before))
}

func TestExtractBareDate(t *testing.T) {
	n, err := Extract("ИИН: 850101300123\nоплачено 03.04.2024 18:45:10")
	require.NoError(t, err)

	assert.False(t, n.DateFallback)
	assert.Equal(t, time.Date(2024, 4, 3, 18, 45, 10, 0, time.Local), n.Date)
}

func TestExtractSynthesizedPaymentID(t *testing.T) {
	text := "ИИН: 850101300123\nПлатеж на сумму: 1000"

	first, err := Extract(text)
	require.NoError(t, err)
	second, err := Extract(text)
	require.NoError(t, err)

	assert.True(t, first.PaymentIDSynthesized)
	assert.True(t, strings.HasPrefix(first.PaymentID, "MANUAL-"))
	assert.NotEqual(t, first.PaymentID, second.PaymentID)
}
