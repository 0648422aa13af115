package apiparse

import (
	"fmt"

	jp "github.com/gravwell/jsonparser"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.BOOTSTRAP, accountParser{})
	register(catalog.HOUSEHOLD, accountParser{})
	register(catalog.CommsAccounts, commsAccountParser{})
}

// accountParser handles BOOTSTRAP and HOUSEHOLD, both of which describe one
// or more account identities under slightly different top-level shapes
// (spec §4.5: "Bootstrap / Household / Comms-accounts -> Account rows").
// HOUSEHOLD wraps a "householdList" array of members; BOOTSTRAP is a single
// object under "authentication".
type accountParser struct{}

func (accountParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: account", ErrBadPayload)
	}
	var sawMember bool
	err := eachArrayElement(payload, []string{"householdList"}, func(member []byte) error {
		sawMember = true
		return insertAccount(ctx, member)
	})
	if err != nil {
		return err
	}
	if !sawMember {
		return insertAccount(ctx, payload)
	}
	return nil
}

func insertAccount(ctx *Context, data []byte) error {
	auth := data
	if sub, _, _, err := jp.Get(data, "authentication"); err == nil {
		auth = sub
	}
	if err := ctx.Store.InsertAccount(store.Account{
		CustomerEmail: getStr(auth, "customerEmail"),
		CustomerName:  store.Default(getStr(auth, "customerName")),
		PhoneNumber:   getStr(auth, "phoneNumber"),
		CustomerID:    getStr(auth, "customerId"),
		CommsID:       getStr(auth, "commsId"),
		Authenticated: getBoolStr(auth, "authenticated"),
		Source:        ctx.FileID,
	}); err != nil {
		return fmt.Errorf("apiparse: insert account: %w", err)
	}
	return nil
}

// commsAccountParser handles the Comms (messaging) identity endpoint, which
// additionally seeds ctx.Hints.CommsIDs for subsequent contact/conversation
// calls (spec §4.7: "extract commsId[0] and record it").
type commsAccountParser struct{}

func (commsAccountParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: comms_accounts", ErrBadPayload)
	}
	return eachArrayElement(payload, nil, func(acct []byte) error {
		commsID := getStr(acct, "commsId")
		if commsID != "" {
			ctx.Hints.CommsIDs = append(ctx.Hints.CommsIDs, commsID)
		}
		if err := ctx.Store.InsertAccount(store.Account{
			CustomerEmail: getStr(acct, "customerEmail"),
			CustomerName:  store.Default(getStr(acct, "customerName")),
			CustomerID:    getStr(acct, "customerId"),
			CommsID:       commsID,
			Authenticated: getBoolStr(acct, "authenticated"),
			Source:        ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert account: %w", err)
		}
		return nil
	})
}
