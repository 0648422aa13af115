package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.CommsContacts, contactsParser{})
}

// contactsParser handles Comms-contacts, one Contact row per array element
// (spec §4.5).
type contactsParser struct{}

func (contactsParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: comms_contacts", ErrBadPayload)
	}
	return eachArrayElement(payload, nil, func(c []byte) error {
		if err := ctx.Store.InsertContact(store.Contact{
			FirstName:   getStr(c, "firstName"),
			LastName:    getStr(c, "lastName"),
			Number:      getStr(c, "phoneNumber"),
			Email:       getStr(c, "email"),
			IsHomeGroup: getBoolStr(c, "isHomeGroup"),
			ContactID:   getStr(c, "contactId"),
			CommsID:     getStr(c, "commsId"),
			Source:      ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert contact: %w", err)
		}
		return nil
	})
}
