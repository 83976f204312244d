// Package attribution turns inbound request metadata into the tracking
// record stored on a lead. Everything here is a pure transformation.
package attribution

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/edconsult-leads/internal/entity"
)

const (
	cookieFBC         = "_fbc"
	cookieFBP         = "_fbp"
	cookieGCLAW       = "_gcl_aw"
	cookieLandingPage = "landing_page"
)

// Request is the subset of an HTTP request the extractor reads. Now is used
// only to build an fbc value when the browser has not set one yet.
type Request struct {
	Query      url.Values
	Header     http.Header
	Cookies    []*http.Cookie
	RemoteAddr string
	Now        time.Time
}

func FromHTTP(r *http.Request, now time.Time) Request {
	return Request{
		Query:      r.URL.Query(),
		Header:     r.Header.Clone(),
		Cookies:    r.Cookies(),
		RemoteAddr: r.RemoteAddr,
		Now:        now,
	}
}

// Extract never fails: missing data just leaves fields empty.
func Extract(req Request) entity.Attribution {
	cookies := make(map[string]string, len(req.Cookies))
	for _, c := range req.Cookies {
		if c != nil && c.Value != "" {
			cookies[c.Name] = c.Value
		}
	}
	lookup := func(key string) string {
		if v := strings.TrimSpace(req.Query.Get(key)); v != "" {
			return v
		}
		return cookies[key]
	}

	a := entity.Attribution{
		UTMSource:   lookup("utm_source"),
		UTMMedium:   lookup("utm_medium"),
		UTMCampaign: lookup("utm_campaign"),
		UTMTerm:     lookup("utm_term"),
		UTMContent:  lookup("utm_content"),

		FBClid:         lookup("fbclid"),
		FBC:            cookies[cookieFBC],
		FBP:            cookies[cookieFBP],
		MetaCampaignID: lookup("campaign_id"),
		MetaAdSetID:    lookup("adset_id"),
		MetaAdID:       lookup("ad_id"),

		GClid:            lookup("gclid"),
		GBraid:           lookup("gbraid"),
		WBraid:           lookup("wbraid"),
		GoogleCampaignID: lookup("gad_campaignid"),
		GoogleAdGroupID:  lookup("gad_adgroupid"),

		LandingPage: cookies[cookieLandingPage],
	}

	if a.GoogleAdGroupID == "" {
		a.GoogleAdGroupID = lookup("adgroupid")
	}
	if a.GClid == "" {
		a.GClid = gclidFromCookie(cookies[cookieGCLAW])
	}
	if a.FBC == "" && a.FBClid != "" && !req.Now.IsZero() {
		a.FBC = "fb.1." + strconv.FormatInt(req.Now.UnixMilli(), 10) + "." + a.FBClid
	}

	if req.Header != nil {
		a.Referrer = req.Header.Get("Referer")
		a.UserAgent = req.Header.Get("User-Agent")
	}
	a.DeviceType, a.Platform = deviceHints(a.UserAgent)
	a.ClientIP = clientIP(req.Header, req.RemoteAddr)

	return a
}

// _gcl_aw looks like GCL.<unix>.<gclid>.
func gclidFromCookie(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 || parts[0] != "GCL" {
		return ""
	}
	return parts[2]
}

func deviceHints(ua string) (device, platform string) {
	if ua == "" {
		return "", ""
	}
	l := strings.ToLower(ua)

	switch {
	case strings.Contains(l, "ipad") || strings.Contains(l, "tablet"):
		device = "tablet"
	case strings.Contains(l, "mobi") || strings.Contains(l, "iphone") || strings.Contains(l, "android"):
		device = "mobile"
	default:
		device = "desktop"
	}

	switch {
	case strings.Contains(l, "iphone") || strings.Contains(l, "ipad"):
		platform = "ios"
	case strings.Contains(l, "android"):
		platform = "android"
	case strings.Contains(l, "windows"):
		platform = "windows"
	case strings.Contains(l, "mac os x") || strings.Contains(l, "macintosh"):
		platform = "macos"
	case strings.Contains(l, "linux"):
		platform = "linux"
	default:
		platform = "other"
	}
	return device, platform
}

func clientIP(h http.Header, remoteAddr string) string {
	if h != nil {
		if xff := h.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := h.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
