package clientparse

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gravwell/cift/internal/apiparse"
)

// ParseIOSComms handles iOS Documents/AlexaMobileiOSComms.sqlite (spec
// §4.6): one "...B" row per ZMESSAGEENTITY row; ZMESSAGETIME is ISO-8601.
func ParseIOSComms(ctx *apiparse.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT Z_PK, ZMESSAGETIME, ZTEXT FROM ZMESSAGEENTITY`)
	if err != nil {
		return fmt.Errorf("clientparse: query ios comms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pk int64
		var messageTime string
		var text sql.NullString
		if err := rows.Scan(&pk, &messageTime, &text); err != nil {
			return fmt.Errorf("clientparse: scan ios comms: %w", err)
		}
		t, err := time.Parse(time.RFC3339, messageTime)
		if err != nil {
			continue
		}
		insertRow(ctx, t.UnixMilli(), "...B", "Created", timelineRow{
			SourceType: "ios_comms",
			Filename:   fmt.Sprintf("%d", pk),
			Desc:       text.String,
		})
	}
	return rows.Err()
}
