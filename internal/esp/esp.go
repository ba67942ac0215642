// Package esp identifies the email service provider behind an address,
// first by well-known consumer domains and then by the domain's MX host.
package esp

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"
)

// Provider names returned by Identify.
const (
	Gmail      = "Gmail"
	Outlook    = "Outlook"
	ProGmail   = "Pro Gmail"
	ProOutlook = "Pro Outlook"
	Others     = "Others"
)

var consumerDomains = map[string]string{
	"gmail.com":      Gmail,
	"googlemail.com": Gmail,
	"outlook.com":    Outlook,
	"hotmail.com":    Outlook,
	"live.com":       Outlook,
	"msn.com":        Outlook,
}

var (
	outlookMarkers = []string{"outlook", "hotmail", "live", "office365"}
	googleMarkers  = []string{"google", "gmail"}
)

// MXResolver looks up mail exchangers. *net.Resolver satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Identifier resolves ESPs, caching MX answers per domain.
type Identifier struct {
	resolver MXResolver

	mu    sync.Mutex
	cache map[string]string
}

// NewIdentifier creates an Identifier. A nil resolver uses net.DefaultResolver.
func NewIdentifier(resolver MXResolver) *Identifier {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Identifier{resolver: resolver, cache: make(map[string]string)}
}

// Domain returns the lower-cased part after the last "@", or the whole
// input lower-cased when there is no "@".
func Domain(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.LastIndex(email, "@"); i >= 0 {
		email = email[i+1:]
	}
	return strings.ToLower(email)
}

// Identify returns the ESP name for email. Lookup failures yield Others.
func (id *Identifier) Identify(ctx context.Context, email string) string {
	domain := Domain(email)
	if p, ok := consumerDomains[domain]; ok {
		return p
	}
	if domain == "" {
		return Others
	}

	id.mu.Lock()
	p, ok := id.cache[domain]
	id.mu.Unlock()
	if ok {
		return p
	}

	p = id.fromMX(ctx, domain)
	id.mu.Lock()
	id.cache[domain] = p
	id.mu.Unlock()
	return p
}

func (id *Identifier) fromMX(ctx context.Context, domain string) string {
	records, err := id.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return Others
	}
	// LookupMX already sorts by preference; keep it stable for equal ones.
	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	return FromMXHost(records[0].Host)
}

// FromMXHost classifies a mail exchanger host name.
func FromMXHost(host string) string {
	host = strings.ToLower(host)
	for _, m := range outlookMarkers {
		if strings.Contains(host, m) {
			return ProOutlook
		}
	}
	for _, m := range googleMarkers {
		if strings.Contains(host, m) {
			return ProGmail
		}
	}
	return Others
}
