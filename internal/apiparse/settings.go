package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.SettingWifi, wifiSettingParser{})
	register(catalog.SettingTraffic, miscSettingParser{name: "traffic"})
	register(catalog.SettingCalendar, miscSettingParser{name: "calendar"})
	register(catalog.SettingWakeWord, deviceScopedMiscSettingParser{name: "wake_word", valueKey: "wakeWord"})
	register(catalog.SettingBluetooth, deviceScopedMiscSettingParser{name: "bluetooth", valueKey: "pairedDeviceName"})
	register(catalog.SettingThirdParty, miscSettingParser{name: "third_party"})
}

// wifiSettingParser handles SETTING_WIFI -> SettingWifi rows (spec §4.5).
type wifiSettingParser struct{}

func (wifiSettingParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: setting_wifi", ErrBadPayload)
	}
	return eachArrayElement(payload, nil, func(v []byte) error {
		if err := ctx.Store.InsertSettingWifi(store.SettingWifi{
			SSID:           getStr(v, "ssid"),
			SecurityMethod: getStr(v, "securityMethod"),
			PreSharedKey:   getStr(v, "preSharedKey"),
			Source:         ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert setting_wifi: %w", err)
		}
		return nil
	})
}

// miscSettingParser handles settings endpoints with no dedicated table
// (traffic/calendar/third-party) -> SettingMisc rows, one per array element,
// keyed by name=value (spec §4.5).
type miscSettingParser struct{ name string }

func (p miscSettingParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: setting_%s", ErrBadPayload, p.name)
	}
	return eachArrayElement(payload, nil, func(v []byte) error {
		if err := ctx.Store.InsertSettingMisc(store.SettingMisc{
			Name:   p.name,
			Value:  getStr(v, "value"),
			Source: ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert setting_misc: %w", err)
		}
		return nil
	})
}

// deviceScopedMiscSettingParser handles wake-word/bluetooth settings, which
// additionally carry device_serial_number (spec §4.5).
type deviceScopedMiscSettingParser struct {
	name     string
	valueKey string
}

func (p deviceScopedMiscSettingParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: setting_%s", ErrBadPayload, p.name)
	}
	return eachArrayElement(payload, nil, func(v []byte) error {
		if err := ctx.Store.InsertSettingMisc(store.SettingMisc{
			Name:               p.name,
			Value:              getStr(v, p.valueKey),
			DeviceSerialNumber: getStr(v, "deviceSerialNumber"),
			Source:             ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert setting_misc: %w", err)
		}
		return nil
	})
}
