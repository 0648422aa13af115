package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
)

func init() {
	register(catalog.TaskList, todoListParser{sourceType: "task_list"})
	register(catalog.ShoppingList, todoListParser{sourceType: "shopping_list"})
	register(catalog.NamedList, namedListParser{})
	register(catalog.NamedListItems, namedListItemsParser{})
	register(catalog.Notifications, notificationsParser{})
}

// todoListParser handles TASK_LIST/SHOPPING_LIST: one to three timeline
// rows per item from its created/last-updated/last-local-updated
// timestamps (spec §4.5, §4.6 — Android's DataStore.db query yields the
// same derivation).
type todoListParser struct{ sourceType string }

func (p todoListParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: %s", ErrBadPayload, p.sourceType)
	}
	return eachArrayElement(payload, []string{"values"}, func(item []byte) error {
		return msTimestampsToRows(ctx,
			getInt(item, "createdDateTime"),
			getInt(item, "lastUpdatedDateTime"),
			getInt(item, "lastLocalUpdatedDateTime"),
			p.sourceType, getStr(item, "itemId"))
	})
}

// namedListParser records the list definitions themselves, seeding
// ctx.Hints.NamedListItemIDs so the harvester can fetch NAMED_LIST_ITEMS per
// list (spec §4.7: "fetch the list, then for each itemId fetch the
// sub-URL").
type namedListParser struct{}

func (namedListParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: named_list", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"lists"}, func(l []byte) error {
		id := getStr(l, "listId")
		if id != "" {
			ctx.Hints.NamedListItemIDs = append(ctx.Hints.NamedListItemIDs, id)
		}
		return nil
	})
}

// namedListItemsParser handles the derived NAMED_LIST_ITEMS endpoint: the
// same MACB derivation as todoListParser's items.
type namedListItemsParser struct{}

func (namedListItemsParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: named_list_items", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"values"}, func(item []byte) error {
		return msTimestampsToRows(ctx,
			getInt(item, "createdDateTime"),
			getInt(item, "lastUpdatedDateTime"),
			getInt(item, "lastLocalUpdatedDateTime"),
			"named_list_item", getStr(item, "itemId"))
	})
}

// notificationsParser emits one timeline row per notification, always
// "...B" / Created (spec §4.5).
type notificationsParser struct{}

func (notificationsParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: notifications", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"notifications"}, func(n []byte) error {
		ts := getInt(n, "createdDate")
		if ts == 0 {
			return nil
		}
		return insertTimeline(ctx, ts, "...B", "Created", "notification", getStr(n, "notificationIndex"))
	})
}
