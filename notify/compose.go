// Package notify renders and delivers the mail exchanged with submitters and
// the external team.
package notify

import (
	"fmt"
	"strings"

	"wmstriage/triage"
)

// Signoff closes every message.
const Signoff = "Automated Warehouse Management System"

type Outcome string

const (
	OutcomeResolved       Outcome = "resolved"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeRequestDetails Outcome = "request_details"
)

type Audience int

const (
	ToSubmitter Audience = iota
	ToExternalTeam
)

func (a Audience) String() string {
	if a == ToExternalTeam {
		return "external_team"
	}
	return "submitter"
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	Audience    Audience
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

type key struct {
	category triage.Category
	outcome  Outcome
}

type entry struct {
	audience Audience
	render   func(ids view, snippet string) (subject, body string)
}

// view substitutes N/A for absent identifiers.
type view struct {
	ASN, PO, Pallet string
}

func viewOf(ids triage.Identifiers) view {
	na := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	return view{ASN: na(ids.ASNID), PO: na(ids.POID), Pallet: na(ids.PalletID)}
}

var templates = map[key]entry{
	{triage.MissingASN, OutcomeResolved}: {ToSubmitter, func(v view, snippet string) (string, string) {
		return "ASN Issue Resolved - " + v.ASN, letter("User",
			fmt.Sprintf("The ASN %s has been successfully interfaced into the WMS system.", v.ASN),
			snippet,
			"The issue has been resolved successfully.")
	}},
	{triage.MissingASN, OutcomeNotFound}: {ToExternalTeam, func(v view, _ string) (string, string) {
		return "ASN Interface Request - " + v.ASN, letter("SAP Team",
			"Please trigger ASN interface for ASN ID: "+v.ASN,
			"",
			"This ASN is currently missing from our WMS system.")
	}},
	{triage.MissingPO, OutcomeResolved}: {ToSubmitter, func(v view, snippet string) (string, string) {
		return "PO Issue Resolved - " + v.PO, letter("User",
			fmt.Sprintf("The PO %s has been successfully interfaced into the WMS system.", v.PO),
			snippet,
			"All pallet counts and quantities are correct.")
	}},
	{triage.MissingPO, OutcomeNotFound}: {ToExternalTeam, func(v view, _ string) (string, string) {
		return "PO Interface Request - " + v.PO, letter("SAP Team",
			"Please trigger PO interface for PO ID: "+v.PO,
			"",
			"This PO is currently missing from our WMS system.")
	}},
	{triage.MissingPallet, OutcomeResolved}: {ToSubmitter, func(v view, snippet string) (string, string) {
		return "Pallet Issue Resolved - " + v.Pallet, letter("User",
			fmt.Sprintf("The pallet %s has been successfully interfaced into the WMS system.", v.Pallet),
			snippet,
			"All pallet details have been updated correctly.")
	}},
	{triage.MissingPallet, OutcomeRequestDetails}: {ToExternalTeam, func(v view, _ string) (string, string) {
		return "Pallet Details Request - " + v.Pallet, letter("SAP Team",
			"Please provide pallet details for:\n"+
				"- Pallet ID: "+v.Pallet+"\n"+
				"- PO ID: "+v.PO+"\n"+
				"- ASN ID: "+v.ASN,
			"",
			"Please send the details in the attached sheet format.")
	}},
	{triage.QuantityMismatch, OutcomeResolved}: {ToSubmitter, func(_ view, snippet string) (string, string) {
		return "Quantity Mismatch Issue Resolved", letter("User",
			"The quantity mismatch issue has been resolved successfully.",
			snippet,
			"All quantities have been updated and matched correctly.")
	}},
	{triage.QuantityMismatch, OutcomeRequestDetails}: {ToExternalTeam, func(v view, snippet string) (string, string) {
		return "Quantity Details Request", letter("SAP Team",
			"Please provide quantity details for:\n"+
				"- PO ID: "+v.PO+"\n"+
				"- ASN ID: "+v.ASN+"\n"+
				"- Pallet ID: "+v.Pallet,
			snippet,
			"There appears to be a quantity mismatch that needs investigation.")
	}},
}

// Compose renders the message for a (category, outcome) pair. Pairs with no
// template fall back to a generic update addressed to the submitter. The
// recipient address is left for the caller to fill in.
func Compose(category triage.Category, outcome Outcome, ids triage.Identifiers, snippet string) Message {
	v := viewOf(ids)
	tmpl, ok := templates[key{category, outcome}]
	if !ok {
		return Message{
			Audience: ToSubmitter,
			Subject:  "Issue Update",
			Body: letter("User",
				fmt.Sprintf("We are processing your request regarding %s.", category),
				"",
				"Issue details:\n"+
					"- ASN: "+v.ASN+"\n"+
					"- PO: "+v.PO+"\n"+
					"- Pallet: "+v.Pallet+"\n\n"+
					"We will update you once the issue is resolved."),
		}
	}
	subject, body := tmpl.render(v, snippet)
	msg := Message{Audience: tmpl.audience, Subject: subject, Body: body}
	if outcome == OutcomeRequestDetails {
		msg.Attachments = []Attachment{DetailsSheet(ids)}
	}
	return msg
}

// ComposeManualReview tells the submitter their report could not be
// classified or evaluated automatically.
func ComposeManualReview(ticketID, description string) Message {
	return Message{
		Audience: ToSubmitter,
		Subject:  "Issue Under Review - " + ticketID,
		Body: letter("User",
			"We received your issue report but could not automatically classify the issue type.",
			"Issue Description: "+description,
			"Our team will review this manually and get back to you soon."),
	}
}

// letter joins the non-empty paragraphs between a greeting and the signoff.
func letter(greeting string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString("Dear " + greeting + ",\n")
	for _, p := range paragraphs {
		p = strings.Trim(p, "\n")
		if p == "" {
			continue
		}
		b.WriteString("\n" + p + "\n")
	}
	b.WriteString("\nBest regards,\n" + Signoff + "\n")
	return b.String()
}
