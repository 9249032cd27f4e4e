package checkout

import (
	"net/url"

	"github.com/fatflowers/patron/pkg/apperror"
)

// Query parameters owned by the checkout round trip.
const (
	ParamPublicOrderID  = "publicOrderId"
	ParamStripeRedirect = "stripeRedirect"
	ParamModal          = "modal"
)

func parseEntryURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, apperror.Validation("entryUrl", "not an absolute http(s) url")
	}
	return u, nil
}

// BuildRedirectURLs derives the processor return URLs from the page the
// visitor started on. Stale round-trip parameters are dropped from both; the
// success URL carries the order id and the modal to reopen.
func BuildRedirectURLs(entryURL, publicOrderID, modal string) (success, cancel string, err error) {
	u, err := parseEntryURL(entryURL)
	if err != nil {
		return "", "", err
	}
	q := u.Query()
	q.Del(ParamPublicOrderID)
	q.Del(ParamStripeRedirect)
	q.Del(ParamModal)

	c := *u
	c.RawQuery = q.Encode()

	q.Set(ParamPublicOrderID, publicOrderID)
	q.Set(ParamStripeRedirect, "1")
	q.Set(ParamModal, modal)
	s := *u
	s.RawQuery = q.Encode()

	return s.String(), c.String(), nil
}
