package utils

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	unknownLabel  = "Unknown"
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// DeriveVisitorID hashes (address, user agent) into a short printable token.
// It is a 32-bit rolling hash over UTF-16 code units, so identical inputs
// always produce the same id and collisions only undercount visitors.
func DeriveVisitorID(clientAddress, userAgent string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(clientAddress + "-" + userAgent)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

type UserAgentInfo struct {
	Browser string
	OS      string
	Device  string
}

type uaRule struct {
	label  string
	tokens []string
}

// Order matters: Edge and Opera UAs also contain "Chrome", Chrome UAs contain
// "Safari", Android UAs contain "Linux" and iOS UAs contain "Mac OS".
var browserRules = []uaRule{
	{"Edge", []string{"Edg"}},
	{"Opera", []string{"OPR", "Opera"}},
	{"Firefox", []string{"Firefox"}},
	{"Chrome", []string{"Chrome"}},
	{"Safari", []string{"Safari"}},
}

var osRules = []uaRule{
	{"Windows", []string{"Windows"}},
	{"Android", []string{"Android"}},
	{"iOS", []string{"iPhone", "iPad", "iOS"}},
	{"macOS", []string{"Mac OS"}},
	{"Linux", []string{"Linux"}},
}

var deviceRules = []uaRule{
	{DeviceTablet, []string{"iPad", "Tablet"}},
	{DeviceMobile, []string{"Mobile", "Android"}},
}

func firstMatch(ua string, rules []uaRule, fallback string) string {
	for _, rule := range rules {
		for _, token := range rule.tokens {
			if strings.Contains(ua, token) {
				return rule.label
			}
		}
	}
	return fallback
}

// ParseUserAgent classifies a user-agent string. Unrecognized input yields
// "Unknown" browser and OS on a desktop device.
func ParseUserAgent(ua string) UserAgentInfo {
	return UserAgentInfo{
		Browser: firstMatch(ua, browserRules, unknownLabel),
		OS:      firstMatch(ua, osRules, unknownLabel),
		Device:  firstMatch(ua, deviceRules, DeviceDesktop),
	}
}

var titleCaser = cases.Title(language.English)

// DeviceLabel turns a stored device class into its display label ("Desktop").
func DeviceLabel(device string) string {
	if device == "" {
		return unknownLabel
	}
	return titleCaser.String(device)
}
