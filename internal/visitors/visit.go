package visitors

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	unknown = "unknown"

	// TimestampLayout matches JavaScript's Date.toISOString in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Input is the JSON body posted by the browser collector. Every field is optional.
type Input struct {
	Hostname         string `json:"hostname"`
	Path             string `json:"path"`
	Referrer         string `json:"referrer"`
	Device           string `json:"device"`
	OS               string `json:"os"`
	Browser          string `json:"browser"`
	ScreenResolution string `json:"screenResolution"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
}

// Visit is one tracked page view. Only the columns returned by Row are
// written to the spreadsheet; the remaining fields are kept for logging.
type Visit struct {
	ID        uuid.UUID
	Timestamp string
	Hostname  string
	IP        string
	Country   string
	City      string
	ASN       string
	Device    string
	OS        string
	Browser   string
	UserAgent string
	Path      string
	Referrer  string
	CFRay     string
}

// Row returns the ten spreadsheet columns in append order. Changing the
// order shifts every existing column in the sheet.
func (v Visit) Row() []string {
	return []string{
		v.Timestamp,
		v.Hostname,
		v.IP,
		v.Country,
		v.City,
		v.ASN,
		v.Device,
		v.OS,
		v.Browser,
		v.UserAgent,
	}
}

// NewVisit merges collector input with the proxy headers of the inbound request.
func NewVisit(in Input, headers http.Header, requestHost string, now time.Time) Visit {
	return Visit{
		ID:        uuid.New(),
		Timestamp: now.UTC().Format(TimestampLayout),
		Hostname:  firstNonEmpty(in.Hostname, hostOnly(requestHost)),
		IP:        firstNonEmpty(headers.Get("Cf-Connecting-Ip"), forwardedClient(headers.Get("X-Forwarded-For")), headers.Get("X-Real-Ip"), unknown),
		Country:   firstNonEmpty(headers.Get("Cf-Ipcountry"), unknown),
		City:      firstNonEmpty(headers.Get("Cf-Ipcity"), unknown),
		ASN:       strings.TrimSpace(headers.Get("Cf-Asn")),
		Device:    firstNonEmpty(in.Device, unknown),
		OS:        firstNonEmpty(in.OS, unknown),
		Browser:   firstNonEmpty(in.Browser, unknown),
		UserAgent: strings.TrimSpace(headers.Get("User-Agent")),
		Path:      firstNonEmpty(in.Path, "/"),
		Referrer:  strings.TrimSpace(in.Referrer),
		CFRay:     strings.TrimSpace(headers.Get("Cf-Ray")),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// forwardedClient returns the left-most address of an X-Forwarded-For chain.
func forwardedClient(value string) string {
	client, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(client)
}

func hostOnly(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}
