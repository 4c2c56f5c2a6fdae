package norms

import (
	"net/url"
	"strings"
)

// ShareLinks are prefilled share URLs for one norm.
type ShareLinks struct {
	URL      string `json:"url" yaml:"url"`
	WhatsApp string `json:"whatsapp" yaml:"whatsapp"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
	Twitter  string `json:"twitter" yaml:"twitter"`
	Email    string `json:"email" yaml:"email"`
}

// NormURL returns the detail page URL of n under base, e.g.
// "https://normacomex.co/#/norm/3".
func NormURL(base string, n *Norm) string {
	return strings.TrimRight(base, "/") + "/#/norm/" + url.PathEscape(n.ID)
}

// Share builds the share links for the page at pageURL.
func Share(n *Norm, pageURL string) ShareLinks {
	u := encodeComponent(pageURL)
	text := encodeComponent("Revisa esta norma: " + n.Label() + " - " + n.Title)
	subject := encodeComponent("Norma: " + n.Label())
	return ShareLinks{
		URL:      pageURL,
		WhatsApp: "https://api.whatsapp.com/send?text=" + text + "%20" + u,
		LinkedIn: "https://www.linkedin.com/sharing/share-offsite/?url=" + u,
		Twitter:  "https://twitter.com/intent/tweet?text=" + text + "&url=" + u,
		Email:    "mailto:?subject=" + subject + "&body=" + text + "%0A%0A" + u,
	}
}

// componentUnescape restores the characters encodeURIComponent leaves
// alone but QueryEscape encodes.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
