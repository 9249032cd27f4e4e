package email

import (
	"html"
	"regexp"
	"strings"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/money"
)

const (
	SlugDonationReceipt   = "donation-receipt"
	SlugMembershipReceipt = "membership-receipt"
)

// Params fills {{key}} placeholders.
type Params map[string]string

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

type content struct {
	Subject string
	HTML    string
	Text    string
}

// inlineContent is used when a template is missing or cannot be filled.
var inlineContent = map[string]content{
	SlugDonationReceipt: {
		Subject: "Thank you for your donation",
		HTML:    "<p>Dear {{name}},</p><p>We received your donation of ${{amount}}. Thank you for your support.</p><p>Reference: {{orderId}}</p>",
		Text:    "Dear {{name}},\n\nWe received your donation of ${{amount}}. Thank you for your support.\n\nReference: {{orderId}}\n",
	},
	SlugMembershipReceipt: {
		Subject: "Your membership is confirmed",
		HTML:    "<p>Dear {{name}},</p><p>Your {{planName}} membership (${{amount}}) runs from {{startDate}} through {{endDate}}.</p><p>Reference: {{orderId}}</p>",
		Text:    "Dear {{name}},\n\nYour {{planName}} membership (${{amount}}) runs from {{startDate}} through {{endDate}}.\n\nReference: {{orderId}}\n",
	},
}

var genericContent = content{
	Subject: "Thank you",
	HTML:    "<p>Thank you. Reference: {{orderId}}</p>",
	Text:    "Thank you. Reference: {{orderId}}\n",
}

func inlineFor(slug string) content {
	if c, ok := inlineContent[slug]; ok {
		return c
	}
	return genericContent
}

// missingPlaceholders returns the declared keys with no non-blank value.
func missingPlaceholders(declared []string, params Params) []string {
	var missing []string
	for _, key := range declared {
		if strings.TrimSpace(params[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func render(c content, params Params) content {
	return content{
		Subject: fill(c.Subject, params, false),
		HTML:    fill(c.HTML, params, true),
		Text:    fill(c.Text, params, false),
	}
}

func fill(s string, params Params, escape bool) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		v := params[key]
		if escape {
			return html.EscapeString(v)
		}
		return v
	})
}

func contentOf(t *models.EmailTemplate) content {
	return content{Subject: t.Subject, HTML: t.HTML, Text: t.Text}
}

// DonationReceipt builds the parameters of a donation receipt.
func DonationReceipt(name string, o *models.Order) Params {
	return Params{
		"name":    displayName(name),
		"amount":  o.TotalCents.String(),
		"orderId": o.PublicID,
	}
}

// MembershipReceipt builds the parameters of a membership receipt. Dates
// are calendar days rendered as YYYY-MM-DD.
func MembershipReceipt(name string, o *models.Order, planName string, price money.Cents, startDate, endDate string) Params {
	return Params{
		"name":      displayName(name),
		"amount":    price.String(),
		"orderId":   o.PublicID,
		"planName":  planName,
		"startDate": startDate,
		"endDate":   endDate,
	}
}

func displayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "friend"
}
