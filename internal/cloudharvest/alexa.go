package cloudharvest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/catalog"
)

// withParam substitutes a catalog template's first `{}` placeholder with
// value, URL-query-escaped.
func withParam(template, value string) string {
	return strings.Replace(template, "{}", url.QueryEscape(value), 1)
}

func entryFor(code catalog.Code) catalog.Entry {
	for _, e := range catalog.Alexa {
		if e.Code == code {
			return e
		}
	}
	for _, e := range catalog.Google {
		if e.Code == code {
			return e
		}
	}
	panic(fmt.Sprintf("cloudharvest: no catalog entry for %s", code))
}

// HarvestAlexa runs the full Alexa crawl (spec §4.7): every primary
// (non-derived) endpoint is fetched once, with a handful of endpoints
// additionally driving pagination or a derived-endpoint fan-out.
func (h *Harvester) HarvestAlexa(wantSkills bool) {
	for _, e := range catalog.Alexa {
		if e.Code.Derived() {
			continue
		}
		if e.Code == catalog.Skills && !wantSkills {
			continue
		}
		switch e.Code {
		case catalog.Cards:
			h.harvestCards(e)
		case catalog.Activities:
			h.harvestActivities(e)
		case catalog.NamedList:
			h.harvestNamedLists(e)
		case catalog.CommsAccounts:
			h.harvestCommsAccounts(e)
		case catalog.CommsConversation:
			h.harvestCommsConversations(e)
		case catalog.MediaHistory:
			h.harvestMediaHistory(e)
		default:
			h.fetchAndParse(e.Code, e.URLPrimary, nil)
		}
	}
}

// harvestCards pages CARDS by nextQueryTime until the response reports -1
// (spec §4.7.2).
func (h *Harvester) harvestCards(e catalog.Entry) {
	nextQueryTime := int64(0)
	for {
		u := withParam(e.URLPrimary, strconv.FormatInt(nextQueryTime, 10))
		ctx, err := h.fetchAndParse(e.Code, u, nil)
		if err != nil || ctx == nil {
			return
		}
		if ctx.Hints.NextQueryTime == nil || *ctx.Hints.NextQueryTime == -1 {
			return
		}
		nextQueryTime = *ctx.Hints.NextQueryTime
	}
}

// harvestActivities processes one ACTIVITIES page, fans out to
// ACTIVITY_DIALOG_ITEM per activity id, then continues paging by the
// oldest creationTimestamp seen until a page yields no activities
// (spec §4.7.2).
func (h *Harvester) harvestActivities(e catalog.Entry) {
	startDate := ""
	dialogEntry := entryFor(catalog.ActivityDialogItem)
	for {
		u := e.URLPrimary
		if startDate != "" {
			u = withParam(e.URLPrimary, startDate)
		} else {
			u = strings.Replace(e.URLPrimary, "?startDate={}", "", 1)
		}
		ctx, err := h.fetchAndParse(e.Code, u, nil)
		if err != nil || ctx == nil {
			return
		}
		if len(ctx.Hints.ActivityIDs) == 0 {
			return
		}
		for _, id := range ctx.Hints.ActivityIDs {
			h.fetchAndParse(dialogEntry.Code, withParam(dialogEntry.URLPrimary, id), nil)
		}
		if ctx.Hints.OldestActivityTimestamp == nil {
			return
		}
		startDate = strconv.FormatInt(*ctx.Hints.OldestActivityTimestamp, 10)
	}
}

// harvestNamedLists fetches NAMED_LIST, then NAMED_LIST_ITEMS per itemId
// (spec §4.7.2).
func (h *Harvester) harvestNamedLists(e catalog.Entry) {
	ctx, err := h.fetchAndParse(e.Code, e.URLPrimary, nil)
	if err != nil || ctx == nil {
		return
	}
	itemsEntry := entryFor(catalog.NamedListItems)
	for _, id := range ctx.Hints.NamedListItemIDs {
		h.fetchAndParse(itemsEntry.Code, withParam(itemsEntry.URLPrimary, id), nil)
	}
}

// harvestCommsAccounts fetches the single comms-identity endpoint, then
// immediately the contacts list for the first commsId returned (spec
// §4.7.2: "extract commsId[0] ... record it for subsequent contact/
// conversation calls").
func (h *Harvester) harvestCommsAccounts(e catalog.Entry) {
	ctx, err := h.fetchAndParse(e.Code, e.URLPrimary, nil)
	if err != nil || ctx == nil || len(ctx.Hints.CommsIDs) == 0 {
		return
	}
	h.commsID = ctx.Hints.CommsIDs[0]
	contactsEntry := entryFor(catalog.CommsContacts)
	h.fetchAndParse(contactsEntry.Code, withParam(contactsEntry.URLPrimary, h.commsID), nil)
}

// harvestCommsConversations fetches the conversation list for the first
// comms identity on record, then the messages sub-URL for each conversation
// (spec §4.7.2). It relies on harvestCommsAccounts having already run and
// recorded the first comms id in h.commsID: HarvestAlexa walks the catalog
// in order, and COMMS_ACCOUNTS precedes COMMS_CONVERSATION in that table.
// With no comms id on record it fetches nothing.
func (h *Harvester) harvestCommsConversations(e catalog.Entry) {
	if h.commsID == "" {
		return
	}
	u := withParam(e.URLPrimary, h.commsID)
	ctx, err := h.fetchAndParse(e.Code, u, nil)
	if err != nil || ctx == nil {
		return
	}
	messagesEntry := entryFor(catalog.CommsConversationMessages)
	for _, convID := range ctx.Hints.ConversationIDs {
		msgURL := withParam(withParam(messagesEntry.URLPrimary, h.commsID), convID)
		h.fetchAndParse(messagesEntry.Code, msgURL, nil)
	}
}

// harvestMediaHistory iterates every AlexaDevice row written so far and
// fetches one MEDIA_HISTORY URL per (serial, type) pair (spec §4.7.2). The
// device type is appended as a second query parameter since the catalog
// template only carries one placeholder (the serial).
func (h *Harvester) harvestMediaHistory(e catalog.Entry) {
	devices, err := h.store.ListAlexaDevices()
	if err != nil {
		h.logf("ERROR  list alexa devices for media history: %v", err)
		return
	}
	for _, d := range devices {
		if d.DeviceSerialNumber == "" {
			continue
		}
		u := withParam(e.URLPrimary, d.DeviceSerialNumber)
		if d.DeviceType != "" {
			u += "&deviceType=" + url.QueryEscape(d.DeviceType)
		}
		h.fetchAndParse(e.Code, u, func(ctx *apiparse.Context) {
			ctx.DeviceSerial = d.DeviceSerialNumber
		})
	}
}
