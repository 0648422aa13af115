// Package catalog is the compile-time table of Alexa and Google Assistant
// cloud-API endpoints (spec §3.5 "see §6.3", §4.4) and the URL→endpoint
// matcher used by both the cloud harvester (C11) and offline cache-entry
// classification fed by the main/simple-cache decoders (C4/C3).
//
// Grounded on spec.md §4.4's URL-matching contract and the entity/field
// names recovered from
// original_source/pycift/report/db_models_amazon_alexa.py (each endpoint
// below maps onto exactly the entity that file documents, e.g. BOOTSTRAP →
// Account, PHOENIX → CompatibleDevice). No endpoint catalog survives in the
// retrieval pack's original_source subset (it is filtered to code/build
// files only), so the URL templates below are authored fresh to satisfy the
// matcher's documented contract (prefix-compare after `{}`→`?` substitution,
// Alexa host alternates, the TASK_LIST/SHOPPING_LIST `&`-split
// disambiguation) rather than copied from any single source file.
package catalog

import (
	"fmt"
	"strings"
)

// Code identifies one catalog entry. "Derived" endpoints are the ones listed
// in derivedCodes and reported by Code.Derived: never fetched directly by
// the harvester, only reached while processing a parent endpoint's
// response. Code values follow declaration order; their parity does not
// mark derived entries.
type Code int

const (
	UNKNOWN Code = iota

	// Alexa, primary.
	BOOTSTRAP
	HOUSEHOLD
	CommsAccounts
	CommsContacts
	SettingWifi
	SettingTraffic
	SettingCalendar
	SettingWakeWord
	SettingBluetooth
	SettingThirdParty
	Devices
	DevicePreferences
	CompatibleDevices
	TaskList
	ShoppingList
	NamedList
	Notifications
	Cards
	Activities
	MediaHistory
	Skills
	CommsConversation

	// Alexa, derived (produced only while walking a parent).
	ActivityDialogItem
	NamedListItems
	CommsConversationMessages

	// Google Assistant, primary.
	GoogleActivities
)

var derivedCodes = map[Code]bool{
	ActivityDialogItem:        true,
	NamedListItems:            true,
	CommsConversationMessages: true,
}

// Derived reports whether c is only reachable through a parent endpoint's
// response, never fetched directly by the harvester loop.
func (c Code) Derived() bool { return derivedCodes[c] }

func (c Code) String() string {
	switch c {
	case BOOTSTRAP:
		return "BOOTSTRAP"
	case HOUSEHOLD:
		return "HOUSEHOLD"
	case CommsAccounts:
		return "COMMS_ACCOUNTS"
	case CommsContacts:
		return "COMMS_CONTACTS"
	case SettingWifi:
		return "SETTING_WIFI"
	case SettingTraffic:
		return "SETTING_TRAFFIC"
	case SettingCalendar:
		return "SETTING_CALENDAR"
	case SettingWakeWord:
		return "SETTING_WAKE_WORD"
	case SettingBluetooth:
		return "SETTING_BLUETOOTH"
	case SettingThirdParty:
		return "SETTING_THIRD_PARTY"
	case Devices:
		return "DEVICES"
	case DevicePreferences:
		return "DEVICE_PREFERENCES"
	case CompatibleDevices:
		return "COMPATIBLE_DEVICES"
	case TaskList:
		return "TASK_LIST"
	case ShoppingList:
		return "SHOPPING_LIST"
	case NamedList:
		return "NAMED_LIST"
	case Notifications:
		return "NOTIFICATIONS"
	case Cards:
		return "CARDS"
	case Activities:
		return "ACTIVITIES"
	case MediaHistory:
		return "MEDIA_HISTORY"
	case Skills:
		return "SKILLS"
	case CommsConversation:
		return "COMMS_CONVERSATION"
	case ActivityDialogItem:
		return "ACTIVITY_DIALOG_ITEM"
	case NamedListItems:
		return "NAMED_LIST_ITEMS"
	case CommsConversationMessages:
		return "COMMS_CONVERSATION_MESSAGES"
	case GoogleActivities:
		return "GOOGLE_ACTIVITIES"
	default:
		return "UNKNOWN"
	}
}

// Entry is one catalog row: a URL template (with `{}` placeholders for a
// cursor/serial/id, one per template except COMMS_CONVERSATION_MESSAGES,
// which takes the comms id and then the conversation id) plus an optional
// alternate host template, and a human description (spec §4.4).
type Entry struct {
	Code          Code
	URLPrimary    string
	URLSecondary  string // "" if the endpoint has no documented alternate host
	Description   string
}

// alexaAlternateHosts are probed in addition to alexa.amazon.com, per
// spec §4.4 ("The Alexa base host has documented alternates... that MUST be
// probed as well").
var alexaAlternateHosts = []string{"alexa.amazon.com", "pitangui.amazon.com"}

// Alexa is the closed, versioned Alexa endpoint table (spec §4.4, §4.5).
var Alexa = []Entry{
	{BOOTSTRAP, "https://alexa.amazon.com/api/bootstrap", "", "Account bootstrap/authentication state"},
	{HOUSEHOLD, "https://alexa.amazon.com/api/household", "", "Household member list"},
	{CommsAccounts, "https://alexa-comms-mobile-service.amazon.com/accounts", "", "Comms (messaging) account identity"},
	{CommsContacts, "https://alexa-comms-mobile-service.amazon.com/users/{}/contacts", "", "Comms contact list"},
	{SettingWifi, "https://alexa.amazon.com/api/wifi", "", "Saved WiFi network credentials"},
	{SettingTraffic, "https://alexa.amazon.com/api/traffic", "", "Traffic origin/waypoint/destination settings"},
	{SettingCalendar, "https://alexa.amazon.com/api/calendar", "", "Linked calendar accounts"},
	{SettingWakeWord, "https://alexa.amazon.com/api/wake-word", "", "Per-device wake word configuration"},
	{SettingBluetooth, "https://alexa.amazon.com/api/bluetooth", "", "Paired Bluetooth device list"},
	{SettingThirdParty, "https://alexa.amazon.com/api/third-party", "", "Linked third-party services"},
	{Devices, "https://alexa.amazon.com/api/devices-v2/device", "", "Registered Alexa device list"},
	{DevicePreferences, "https://alexa.amazon.com/api/device-preferences", "", "Per-device locale/timezone preferences"},
	{CompatibleDevices, "https://alexa.amazon.com/api/phoenix", "", "Smart-home (Phoenix) compatible appliances"},
	{TaskList, "https://alexa.amazon.com/api/todos?type=TASK", "", "To-do list items"},
	{ShoppingList, "https://alexa.amazon.com/api/todos?type=SHOPPING_ITEM", "", "Shopping list items"},
	{NamedList, "https://alexa.amazon.com/api/namedLists", "", "Named (custom) list definitions"},
	{Notifications, "https://alexa.amazon.com/api/notifications", "", "Pending device notifications"},
	{Cards, "https://alexa.amazon.com/api/cards?nextQueryTime={}", "", "Home-feed cards"},
	{Activities, "https://alexa.amazon.com/api/activities?startDate={}", "", "Voice command activity history"},
	{MediaHistory, "https://alexa.amazon.com/api/media/historical-queue?deviceSerialNumber={}", "", "Per-device media playback history"},
	{Skills, "https://alexa.amazon.com/api/skills", "", "Enabled third-party skills"},
	{CommsConversation, "https://alexa-comms-mobile-service.amazon.com/users/{}/conversations", "", "Comms conversation list"},

	{ActivityDialogItem, "https://alexa.amazon.com/api/activities/{}", "", "ASR/TTS dialog items for one activity (derived)"},
	{NamedListItems, "https://alexa.amazon.com/api/namedLists/{}/items", "", "Items within one named list (derived)"},
	{CommsConversationMessages, "https://alexa-comms-mobile-service.amazon.com/users/{}/conversations/{}/messages", "", "Messages within one conversation (derived)"},
}

// Google is the Google Assistant endpoint table (spec §4.8): a single
// JSPB-framed activities feed.
var Google = []Entry{
	{GoogleActivities, "https://myactivity.google.com/activities?ct={}", "", "Assistant activity history (JSPB)"},
}

// VoiceURLPrefixAlexa and VoiceURLPrefixGoogle are the voice-recording
// download URL prefixes scanned for in Timeline.extra fields (spec §4.7,
// §4.8).
const (
	VoiceURLPrefixAlexa  = `User's voice: "https://alexa.amazon.com/api/utterance/audio/data?id="`
	VoiceURLPrefixGoogle = "https://myactivity.google.com/history/audio/play/"
)

// templatePrefix renders the comparable part of a template URL: everything
// before its query string. A `{}` placeholder in the query is dropped with
// it; a `{}` in the path is kept and matched by matchesAnyHost as a
// wildcard for one path segment.
func templatePrefix(template string) string {
	prefix, _, _ := strings.Cut(template, "?")
	return prefix
}

// stripQuery removes everything from (and including) the first `?` in url.
func stripQuery(url string) string {
	prefix, _, _ := strings.Cut(url, "?")
	return prefix
}

// Match resolves an observed URL to a catalog code (spec §4.4). It strips
// the query string, compares the path against every entry's template path
// (a `{}` path placeholder matching any one non-empty segment; tried against
// every Alexa host alternate), and special-cases TASK_LIST vs
// SHOPPING_LIST by also splitting the full URL on `&` since both share a
// path and are otherwise indistinguishable by prefix alone.
func Match(observedURL string) Code {
	if code := matchTaskOrShoppingList(observedURL); code != UNKNOWN {
		return code
	}

	prefix := stripQuery(observedURL)
	for _, e := range append(append([]Entry{}, Alexa...), Google...) {
		if matchesAnyHost(prefix, e.URLPrimary) {
			return e.Code
		}
		if e.URLSecondary != "" && matchesAnyHost(prefix, e.URLSecondary) {
			return e.Code
		}
	}
	return UNKNOWN
}

func matchesAnyHost(observedPrefix, template string) bool {
	observed := strings.Split(observedPrefix, "/")
	matches := func(want string) bool {
		segs := strings.Split(want, "/")
		if len(segs) != len(observed) {
			return false
		}
		for i, s := range segs {
			if s != observed[i] && (s != "{}" || observed[i] == "") {
				return false
			}
		}
		return true
	}
	want := templatePrefix(template)
	if matches(want) {
		return true
	}
	// Probe Alexa's documented host alternates by substituting the primary
	// host in the template prefix with each alternate in turn.
	for _, host := range alexaAlternateHosts {
		if matches(swapHost(want, host)) {
			return true
		}
	}
	return false
}

func swapHost(urlPrefix, newHost string) string {
	const schemeSep = "://"
	idx := strings.Index(urlPrefix, schemeSep)
	if idx < 0 {
		return urlPrefix
	}
	rest := urlPrefix[idx+len(schemeSep):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return urlPrefix[:idx+len(schemeSep)] + newHost
	}
	return urlPrefix[:idx+len(schemeSep)] + newHost + rest[slash:]
}

// matchTaskOrShoppingList disambiguates TASK_LIST from SHOPPING_LIST, which
// share the `/api/todos` path and are otherwise only distinguished by a
// `type=` query parameter (spec §4.4: "also split on `&`").
func matchTaskOrShoppingList(observedURL string) Code {
	if !matchesAnyHost(stripQuery(observedURL), Alexa[taskListIndex()].URLPrimary) {
		return UNKNOWN
	}
	_, query, found := strings.Cut(observedURL, "?")
	if !found {
		return UNKNOWN
	}
	for _, part := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(part, "=")
		if k == "type" {
			switch v {
			case "TASK":
				return TaskList
			case "SHOPPING_ITEM":
				return ShoppingList
			}
		}
	}
	return UNKNOWN
}

func taskListIndex() int {
	for i, e := range Alexa {
		if e.Code == TaskList {
			return i
		}
	}
	panic("catalog: TASK_LIST missing from Alexa table")
}

// SampleURL substitutes a placeholder-free sample value into template, used
// by tests to verify every catalog entry round-trips through Match.
func SampleURL(template string) string {
	return strings.Replace(template, "{}", "sample", 1)
}

// Lookup returns the catalog entry for code, across both product tables.
func Lookup(code Code) (Entry, bool) {
	for _, e := range Alexa {
		if e.Code == code {
			return e, true
		}
	}
	for _, e := range Google {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}

// FormatURL substitutes value for the single `{}` placeholder in a
// template, the mechanism the cloud harvester uses for cursor/serial/id
// pagination (spec §4.4, §4.7).
func FormatURL(template string, value string) string {
	return strings.Replace(template, "{}", value, 1)
}

// CardsNextQuery formats the CARDS pagination URL from nextQueryTime, or
// reports done=true when nextQueryTime signals the end of the feed
// (spec §4.7: "terminate on -1").
func CardsNextQuery(nextQueryTime int64) (url string, done bool) {
	if nextQueryTime == -1 {
		return "", true
	}
	return FormatURL(Alexa[cardsIndex()].URLPrimary, fmt.Sprintf("%d", nextQueryTime)), false
}

func cardsIndex() int {
	for i, e := range Alexa {
		if e.Code == Cards {
			return i
		}
	}
	panic("catalog: CARDS missing from Alexa table")
}
