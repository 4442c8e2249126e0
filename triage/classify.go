package triage

import (
	"fmt"
	"regexp"
	"strings"
)

type Category string

const (
	MissingASN       Category = "missing_asn"
	MissingPO        Category = "missing_po"
	MissingPallet    Category = "missing_pallet"
	QuantityMismatch Category = "quantity_mismatch"
	Unknown          Category = "unknown"
)

// Categories lists the known categories in tie-break order.
var Categories = []Category{MissingASN, MissingPO, MissingPallet, QuantityMismatch}

var keywords = map[Category][]string{
	MissingASN: {
		"asn missing", "asn not found", "missing asn", "asn is missing",
		"cannot find asn", "asn", "shipment notice",
	},
	MissingPO: {
		"po missing", "po not found", "missing po", "po is missing",
		"po is not found", "cannot find po", "not interfaced",
		"purchase order missing", "purchase order",
	},
	MissingPallet: {
		"pallet missing", "pallet not found", "missing pallet", "pallet is missing",
		"cannot find pallet", "pallet", "pallet details",
	},
	QuantityMismatch: {
		"quantity mismatch", "qty mismatch", "quantity difference", "wrong quantity",
		"incorrect quantity", "quantity issue", "wrong qty", "mismatch", "quantity",
	},
}

// idToken matches any identifier with its leading whitespace, so that
// "Pallet 512345678901234 is missing" scores like "pallet is missing".
var idToken = regexp.MustCompile(`\s*\b(?:0\d{4}|2\d{9}|5\d{14})\b`)

func normalize(text string) string {
	return strings.ToLower(idToken.ReplaceAllString(text, ""))
}

// Classify scores text against each category's keyword set. Identifier
// tokens are dropped before matching. The strictly highest score wins, ties
// go to the earlier category in Categories, and a text with no hits is
// Unknown.
func Classify(text string) Category {
	lower := normalize(text)
	best, bestScore := Unknown, 0
	for _, c := range Categories {
		if s := score(lower, keywords[c]); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// Scores returns the per-category keyword hit counts for text.
func Scores(text string) map[Category]int {
	lower := normalize(text)
	out := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		out[c] = score(lower, keywords[c])
	}
	return out
}

func score(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

// ParseCategory maps a stored category name back to a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case MissingASN, MissingPO, MissingPallet, QuantityMismatch, Unknown:
		return c, nil
	}
	return Unknown, fmt.Errorf("unknown category %q", s)
}

// Report is the triage result of one free-text submission.
type Report struct {
	Category    Category    `json:"issue_type"`
	Identifiers Identifiers `json:"entities"`
}

// Analyze runs extraction and classification over text.
func Analyze(text string) Report {
	return Report{Category: Classify(text), Identifiers: Extract(text)}
}
