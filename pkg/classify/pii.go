package classify

import (
	"math"
	"regexp"
	"strings"
)

const (
	// PIIRiskPerCategory is the risk contribution of each matched category.
	PIIRiskPerCategory = 0.15

	// PIIRiskCap bounds the total PII risk so PII alone cannot reach 1.0.
	PIIRiskCap = 0.8
)

// PII category names, in scan order.
const (
	PIIEmail            = "email"
	PIIPhone            = "phone"
	PIISSN              = "ssn"
	PIICreditCard       = "credit_card"
	PIIIBAN             = "iban"
	PIIIPAddress        = "ip_address"
	PIIDateOfBirth      = "date_of_birth"
	PIIPassport         = "passport"
	PIIMedicalID        = "medical_id"
	PIIFinancialAccount = "financial_account"
)

// piiPattern pairs a category with its compiled expression. accept, when set,
// filters individual matches the expression alone cannot exclude.
type piiPattern struct {
	name   string
	re     *regexp.Regexp
	accept func(match string) bool
}

// Patterns are compiled once; a *regexp.Regexp is safe for concurrent use.
var piiCatalog = []piiPattern{
	{name: PIIEmail, re: mustCompileCI(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)},
	{name: PIIPhone, re: mustCompileCI(`\b(\+\d{1,3}[-.]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{name: PIISSN, re: mustCompileCI(`\b\d{3}-\d{2}-\d{4}\b`), accept: validSSN},
	{name: PIICreditCard, re: mustCompileCI(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13})\b`)},
	{name: PIIIBAN, re: mustCompileCI(`\b[A-Z]{2}[0-9]{2}[A-Z0-9]{4}[0-9]{7}([A-Z0-9]?){0,16}\b`)},
	{name: PIIIPAddress, re: mustCompileCI(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
	{name: PIIDateOfBirth, re: mustCompileCI(`\b(0[1-9]|1[0-2])[-/](0[1-9]|[12]\d|3[01])[-/](19|20)\d{2}\b`)},
	{name: PIIPassport, re: mustCompileCI(`\b[A-Z]{1,2}\d{6,9}\b`)},
	{name: PIIMedicalID, re: mustCompileCI(`\b(NPI|MRN|DEA)[\s:#-]?\d{6,10}\b`)},
	{name: PIIFinancialAccount, re: mustCompileCI(`\b\d{8,17}\b`)},
}

func mustCompileCI(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// ssnDenylist holds numbers published in advertising that are never real SSNs.
var ssnDenylist = map[string]bool{
	"219-09-9999": true,
	"078-05-1120": true,
}

// validSSN rejects denylisted numbers and all-zero group or serial fields.
func validSSN(match string) bool {
	if ssnDenylist[match] {
		return false
	}
	parts := strings.Split(match, "-")
	if len(parts) != 3 {
		return false
	}
	return parts[1] != "00" && parts[2] != "0000"
}

// PIIDetector scans text for personally identifiable information.
// The zero value is not usable; construct with NewPIIDetector.
type PIIDetector struct {
	patterns []piiPattern
}

// NewPIIDetector creates a detector over the built-in pattern catalog.
func NewPIIDetector() *PIIDetector {
	return &PIIDetector{patterns: piiCatalog}
}

// Scan reports whether text contains PII, the matched categories in catalog
// order, and the resulting risk contribution min(0.15*n, 0.8).
// Empty text always yields (false, nil, 0).
func (d *PIIDetector) Scan(text string) (bool, []string, float64) {
	if text == "" {
		return false, nil, 0
	}

	var found []string
	for _, p := range d.patterns {
		if p.matches(text) {
			found = append(found, p.name)
		}
	}

	return len(found) > 0, found, PIIRisk(len(found))
}

func (p piiPattern) matches(text string) bool {
	if p.accept == nil {
		return p.re.MatchString(text)
	}
	for _, m := range p.re.FindAllString(text, -1) {
		if p.accept(m) {
			return true
		}
	}
	return false
}

// PIIRisk converts a category count into a risk contribution.
func PIIRisk(categories int) float64 {
	if categories <= 0 {
		return 0
	}
	return math.Min(PIIRiskPerCategory*float64(categories), PIIRiskCap)
}
