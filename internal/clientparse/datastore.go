package clientparse

import (
	"database/sql"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

// ParseDataStoreDB handles Android databases/DataStore.db (spec §4.6). The
// ToDoCollection and NamedListsCollection rows are dispatched straight into
// the matching cloud-API parsers (C9) since the DataItem value blob carries
// the identical JSON shape the TASK_LIST/SHOPPING_LIST/NAMED_LIST endpoints
// return; only the NamedListItemsCollection rows are handled natively, to
// preserve the itemId→displayName lookup the API parsers have no use for.
func ParseDataStoreDB(ctx *apiparse.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return parseDataItems(ctx, db,
		`SELECT key, value FROM DataItem WHERE key IN ('ToDoCollection.TASK','ToDoCollection.SHOPPING_ITEM')`,
		`SELECT key, value FROM DataItem WHERE key = 'NamedListsCollection'`,
		`SELECT key, value FROM DataItem WHERE key LIKE 'NamedListItemsCollection.%'`)
}

// ParseLocalData handles iOS Documents/LocalData.sqlite, whose ZDATAITEM
// table carries the same three key patterns under ZKEY/ZVALUE (spec §4.6:
// "identical normalization").
func ParseLocalData(ctx *apiparse.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return parseDataItems(ctx, db,
		`SELECT ZKEY, ZVALUE FROM ZDATAITEM WHERE ZKEY IN ('ToDoCollection.TASK','ToDoCollection.SHOPPING_ITEM')`,
		`SELECT ZKEY, ZVALUE FROM ZDATAITEM WHERE ZKEY = 'NamedListsCollection'`,
		`SELECT ZKEY, ZVALUE FROM ZDATAITEM WHERE ZKEY LIKE 'NamedListItemsCollection.%'`)
}

type namedListsPayload struct {
	Lists []struct {
		ListID      string `json:"listId"`
		DisplayName string `json:"displayName"`
	} `json:"lists"`
}

type namedListItemsPayload struct {
	Values []struct {
		ItemID                   string `json:"itemId"`
		CreatedDateTime          int64  `json:"createdDateTime"`
		LastUpdatedDateTime      int64  `json:"lastUpdatedDateTime"`
		LastLocalUpdatedDateTime int64  `json:"lastLocalUpdatedDateTime"`
	} `json:"values"`
}

func parseDataItems(ctx *apiparse.Context, db *sql.DB, todoQuery, listsQuery, itemsQuery string) error {
	if err := forEachRow(db, todoQuery, func(key, value string) error {
		code := catalog.TaskList
		if key == "ToDoCollection.SHOPPING_ITEM" {
			code = catalog.ShoppingList
		}
		return apiparse.Dispatch(code, ctx, []byte(value))
	}); err != nil {
		return err
	}

	listNames := map[string]string{}
	if err := forEachRow(db, listsQuery, func(key, value string) error {
		var payload namedListsPayload
		if err := gojson.Unmarshal([]byte(value), &payload); err == nil {
			for _, l := range payload.Lists {
				if l.ListID != "" {
					listNames[l.ListID] = l.DisplayName
				}
			}
		}
		return apiparse.Dispatch(catalog.NamedList, ctx, []byte(value))
	}); err != nil {
		return err
	}

	return forEachRow(db, itemsQuery, func(key, value string) error {
		listName := lookupListName(listNames, key)
		var payload namedListItemsPayload
		if err := gojson.Unmarshal([]byte(value), &payload); err != nil {
			return nil
		}
		for _, item := range payload.Values {
			for _, r := range store.ComputeMACB(item.CreatedDateTime, item.LastUpdatedDateTime, item.LastLocalUpdatedDateTime) {
				insertRow(ctx, r.Timestamp, r.MACB, r.TypeLabel, timelineRow{
					SourceType: "named_list_item",
					Filename:   listLabel(listName, item.ItemID),
				})
			}
		}
		return nil
	})
}

// lookupListName finds the list whose id appears as a substring of key
// (spec §4.6: "look up the owning list name from the prior mapping by
// substring-matching itemId").
func lookupListName(listNames map[string]string, key string) string {
	for id, name := range listNames {
		if id != "" && strings.Contains(key, id) {
			return name
		}
	}
	return ""
}

func listLabel(listName, itemID string) string {
	if listName == "" {
		return itemID
	}
	return listName + ":" + itemID
}

func forEachRow(db *sql.DB, query string, fn func(key, value string) error) error {
	rows, err := db.Query(query)
	if err != nil {
		return fmt.Errorf("clientparse: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("clientparse: scan: %w", err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return rows.Err()
}
