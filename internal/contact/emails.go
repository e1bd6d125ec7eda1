package contact

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	mailtoRe = regexp.MustCompile(`(?i)href\s*=\s*["']mailto:([^"'?]+)`)
)

// excludedEmailDomains are regulator and placeholder domains that never
// belong to a firm contact.
var excludedEmailDomains = map[string]bool{
	"sec.gov": true, "finra.org": true, "example.com": true,
	"sampleemail.com": true, "email.com": true, "domain.com": true,
	"yourcompany.com": true, "company.com": true,
}

// excludedEmailPrefixes are generic mailbox local-parts. A generic inbox
// is worse than no email at all for outreach.
var excludedEmailPrefixes = []string{
	"info@", "support@", "admin@", "webmaster@", "noreply@",
	"no-reply@", "sales@", "marketing@", "help@", "contact@",
	"hello@", "office@", "mail@", "general@",
}

// assetExtensions guard against regex hits inside asset paths like
// image@2x.png.
var assetExtensions = []string{".png", ".jpg", ".gif", ".svg", ".css", ".js"}

// ExtractEmails pulls candidate email addresses from a page: mailto links
// first, then a regex sweep over the visible text. Generic, regulator,
// and asset-path matches are dropped. Addresses at the firm's own domain
// sort first.
func ExtractEmails(html, text, domain string) []string {
	found := map[string]bool{}

	for _, m := range mailtoRe.FindAllStringSubmatch(html, -1) {
		email := strings.ToLower(strings.TrimSpace(m[1]))
		if emailRe.FindString(email) == email {
			found[email] = true
		}
	}
	for _, m := range emailRe.FindAllString(text, -1) {
		found[strings.ToLower(m)] = true
	}

	var out []string
	for email := range found {
		if AllowedEmail(email) {
			out = append(out, email)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := domain != "" && strings.Contains(out[i], domain),
			domain != "" && strings.Contains(out[j], domain)
		if di != dj {
			return di
		}
		return out[i] < out[j]
	})
	return out
}

// AllowedEmail reports whether an address passes the denylists.
func AllowedEmail(email string) bool {
	email = strings.ToLower(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if excludedEmailDomains[domain] {
		return false
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(domain, ext) {
			return false
		}
	}
	for _, prefix := range excludedEmailPrefixes {
		if strings.HasPrefix(email, prefix) {
			return false
		}
	}
	return true
}

// EmailMatchesName reports whether an email's local-part plausibly
// belongs to the named person: it contains a name part, matches the usual
// first.last / flast / initials shapes, or sits within edit distance one
// of them (covering dropped letters and similar mangling).
func EmailMatchesName(email, name string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || name == "" {
		return false
	}
	local := strings.ToLower(email[:at])
	localCompact := strings.Map(keepAlnum, local)

	parts := strings.Fields(strings.ToLower(asciiFold(name)))
	var clean []string
	for _, p := range parts {
		if p = strings.Map(keepAlnum, p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return false
	}

	for _, p := range clean {
		if len(p) > 2 && strings.Contains(local, p) {
			return true
		}
	}

	first, last := clean[0], clean[len(clean)-1]
	shapes := []string{first + last, first + "." + last, last + first}
	if len(first) > 0 && len(last) > 0 {
		shapes = append(shapes, first[:1]+last, first[:1]+"."+last, first+last[:1])
	}
	for _, shape := range shapes {
		if local == shape {
			return true
		}
		compact := strings.Map(keepAlnum, shape)
		if len(compact) >= 5 && levenshtein.ComputeDistance(localCompact, compact) <= 1 {
			return true
		}
	}
	return false
}

func keepAlnum(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold strips diacritics so "José García" matches "jgarcia@".
func asciiFold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
