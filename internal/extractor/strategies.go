package extractor

import "regexp"

// Confidence tags how a field value was obtained. Fallback values are
// synthesized at extraction time and must never overwrite a previously
// recorded, more accurate value downstream.
type Confidence int

const (
	ConfidenceLabeled Confidence = iota // explicit key-value in the email body
	ConfidenceInferred                  // pattern found without its label
	ConfidenceFallback                  // synthesized (wall clock, MANUAL id)
)

// strategy is one named way to pull a field out of the raw text. Strategies
// for the same field are tried in order; the first match wins.
type strategy struct {
	name       string
	re         *regexp.Regexp
	confidence Confidence
}

type match struct {
	value      string
	strategy   string
	confidence Confidence
}

func (s strategy) apply(text string) (match, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return match{}, false
	}
	return match{value: trim(m[1]), strategy: s.name, confidence: s.confidence}, true
}

func firstMatch(text string, strategies []strategy) (match, bool) {
	for _, s := range strategies {
		if m, ok := s.apply(text); ok {
			return m, true
		}
	}
	return match{}, false
}

// Kaspi bank notifications arrive with bilingual key=value pairs
// ("ЖСН|ИИН|ИИН = ..."), while the travel-agency format uses labeled
// colon-separated fields ("ИИН отдыхающего: ...").
var (
	bankIINStrategies = []strategy{
		{name: "bank-kv", re: regexp.MustCompile(`(?i)ЖСН\|ИИН\|ИИН\s*=\s*(\d+)`), confidence: ConfidenceLabeled},
	}

	recipientIINStrategies = []strategy{
		{name: "guest-label", re: regexp.MustCompile(`(?i)(?:ИИН|ИНН) отдыхающего\s*:?\s*(\d+)`), confidence: ConfidenceLabeled},
	}

	genericIINStrategies = []strategy{
		{name: "generic-label", re: regexp.MustCompile(`(?i)ИИН\s*:?\s*(\d+)`), confidence: ConfidenceInferred},
	}

	amountStrategies = []strategy{
		{name: "payment-label", re: regexp.MustCompile(`(?i)Платеж на сумму\s*:?\s*([0-9.,]+)`), confidence: ConfidenceLabeled},
	}

	serviceStrategies = []strategy{
		{name: "service-line", re: regexp.MustCompile(`(?i)Услуга\s*:?\s*([^\n,]+)`), confidence: ConfidenceLabeled},
		{name: "service-comma", re: regexp.MustCompile(`(?i)Услуга\s*:?\s*([^,]+)`), confidence: ConfidenceInferred},
	}

	dateStrategies = []strategy{
		{name: "date-label", re: regexp.MustCompile(`(?i)Дата\s*:?\s*(\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2})`), confidence: ConfidenceLabeled},
		{name: "date-bare", re: regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2})`), confidence: ConfidenceInferred},
	}

	paymentIDStrategies = []strategy{
		{name: "payment-id-label", re: regexp.MustCompile(`(?i)Идентификатор платежа\s*:?\s*(\d+)`), confidence: ConfidenceLabeled},
		{name: "payment-id-alt", re: regexp.MustCompile(`(?i)(?:ID|номер) платежа\s*:?\s*(\d+)`), confidence: ConfidenceInferred},
	}

	phoneStrategies = []strategy{
		{name: "phone-label", re: regexp.MustCompile(`(?i)(?:телефон|тел|phone)\s*:?\s*(\+?[0-9]+)`), confidence: ConfidenceLabeled},
		{name: "phone-bank-kv", re: regexp.MustCompile(`(?i)Телефон нөмірі\|Номер телефона\s*=\s*(\d+)`), confidence: ConfidenceLabeled},
	}

	nameStrategies = []strategy{
		{name: "guest-name", re: regexp.MustCompile(`(?i)ФИО отдыхающего\s*:?\s*([^\n]+)`), confidence: ConfidenceLabeled},
	}
)
