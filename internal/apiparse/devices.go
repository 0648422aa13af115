package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.Devices, deviceParser{})
	register(catalog.DevicePreferences, devicePreferencesParser{})
	register(catalog.CompatibleDevices, compatibleDeviceParser{})
}

// deviceParser handles DEVICES -> AlexaDevice rows keyed by
// device_serial_number (spec §4.5).
type deviceParser struct{}

func (deviceParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: devices", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"devices"}, func(d []byte) error {
		return insertAlexaDevice(ctx, d)
	})
}

// devicePreferencesParser handles DEVICE_PREFERENCES. Per spec §4.5 these
// merge into the device entity only by shared device_serial_number
// ownership; the writer always emits a new row, never an update, leaving
// de-duplication to a reader.
type devicePreferencesParser struct{}

func (devicePreferencesParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: device_preferences", ErrBadPayload)
	}
	return eachArrayElement(payload, nil, func(d []byte) error {
		return insertAlexaDevice(ctx, d)
	})
}

func insertAlexaDevice(ctx *Context, d []byte) error {
	if err := ctx.Store.InsertAlexaDevice(store.AlexaDevice{
		DeviceAccountName:  getStr(d, "accountName"),
		DeviceFamily:       getStr(d, "deviceFamily"),
		DeviceAccountID:    getStr(d, "deviceAccountId"),
		CustomerID:         getStr(d, "customerId"),
		DeviceSerialNumber: getStr(d, "serialNumber"),
		DeviceType:         getStr(d, "deviceType"),
		SWVersion:          getStr(d, "softwareVersion"),
		MACAddress:         getStr(d, "macAddress"),
		Address:            getStr(d, "address"),
		PostalCode:         getStr(d, "postalCode"),
		Locale:             getStr(d, "deviceLocale"),
		SearchCustomerID:   getStr(d, "searchCustomerId"),
		Timezone:           getStr(d, "deviceTimeZone"),
		Region:             getStr(d, "region"),
		Source:             ctx.FileID,
	}); err != nil {
		return fmt.Errorf("apiparse: insert alexa_device: %w", err)
	}
	return nil
}

// compatibleDeviceParser handles COMPATIBLE_DEVICES (Phoenix) ->
// CompatibleDevice rows plus up to three timeline rows per appliance
// (created/last-seen/friendly-name-modified, spec §4.5).
type compatibleDeviceParser struct{}

func (compatibleDeviceParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: compatible_devices", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"applianceDetails", "appliances"}, func(a []byte) error {
		return insertCompatibleDevice(ctx, a)
	})
}

func insertCompatibleDevice(ctx *Context, a []byte) error {
	if err := ctx.Store.InsertCompatibleDevice(store.CompatibleDevice{
		Name:                    getStr(a, "friendlyName"),
		Manufacture:             getStr(a, "manufacturerName"),
		Model:                   getStr(a, "modelName"),
		Created:                 getStr(a, "createdDate"),
		NameModified:            getStr(a, "friendlyNameModifiedDate"),
		Desc:                    getStr(a, "friendlyDescription"),
		Type:                    getStr(a, "applianceTypes"),
		Reachable:               getBoolStr(a, "reachability", "reachable"),
		FirmwareVersion:         getStr(a, "firmwareVersion"),
		ApplianceID:             getStr(a, "applianceId"),
		AlexaDeviceSerialNumber: getStr(a, "alexaDeviceIdentifierList", "0", "serialNumber"),
		AlexaDeviceType:         getStr(a, "alexaDeviceIdentifierList", "0", "deviceType"),
		Source:                  ctx.FileID,
	}); err != nil {
		return fmt.Errorf("apiparse: insert compatible_device: %w", err)
	}

	// Three candidate timestamps per spec §4.5 (created, last-seen,
	// friendly-name-modified) map onto MACB's birth/modified/changed roles.
	return msTimestampsToRows(ctx,
		getInt(a, "createdDate"),
		getInt(a, "lastSeenDate"),
		getInt(a, "friendlyNameModifiedDate"),
		"compatible_device", getStr(a, "applianceId"))
}
