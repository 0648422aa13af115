package apiparse

import (
	"fmt"
	"time"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.Skills, skillsParser{})
}

// skillsParser handles SKILLS -> Skill rows; release_date is converted
// from unix seconds to a normalized date-time string (spec §4.5).
type skillsParser struct{}

func (skillsParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: skills", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"skills"}, func(s []byte) error {
		releaseDate := ""
		if secs := getInt(s, "releaseDate"); secs != 0 {
			releaseDate = time.Unix(secs, 0).UTC().Format(time.RFC3339)
		}
		if err := ctx.Store.InsertSkill(store.Skill{
			Title:         getStr(s, "name"),
			DeveloperName: getStr(s, "developerName"),
			AccountLinked: getBoolStr(s, "accountLinked"),
			ReleaseDate:   releaseDate,
			Short:         getStr(s, "shortDescription"),
			Desc:          getStr(s, "description"),
			VendorID:      getStr(s, "vendorId"),
			SkillID:       getStr(s, "skillId"),
			Source:        ctx.FileID,
		}); err != nil {
			return fmt.Errorf("apiparse: insert skill: %w", err)
		}
		return nil
	})
}
