// Package migrate upgrades stored data. Schema steps rewrite an envelope
// document from an older version to the current one; the legacy engine
// pulls data out of key layouts used by earlier releases.
package migrate

import (
	"fmt"

	"github.com/sadopc/resttrackr/internal/codec"
)

// CurrentVersion is the schema version every save writes.
const CurrentVersion = "1.1.0"

type schemaStep struct {
	from, to string
	apply    func(codec.Document)
}

// Steps run in order. A document at an unknown version runs all of them;
// each step only fills in what is missing, so that is safe.
var schemaSteps = []schemaStep{
	{from: "", to: "1.0.0", apply: renameTitle},
	{from: "1.0.0", to: "1.1.0", apply: addTestSettings},
}

// UpgradeSchema brings doc to target and decodes it. migrated reports
// whether the stored version differed from target. A document already at
// target is decoded unchanged.
func UpgradeSchema(doc codec.Document, target string) (env codec.Envelope, migrated bool, err error) {
	from := doc.Version()
	if from != target {
		start := 0
		for i, s := range schemaSteps {
			if s.from == from {
				start = i
				break
			}
		}
		for _, s := range schemaSteps[start:] {
			s.apply(doc)
			if s.to == target {
				break
			}
		}
		doc["version"] = target
		migrated = true
	}
	env, err = doc.Decode()
	if err != nil {
		return codec.Envelope{}, false, fmt.Errorf("upgrade from %q: %w", from, err)
	}
	env.Version = target
	return env, migrated, nil
}

// renameTitle handles unversioned data, where activities could carry their
// display name as title.
func renameTitle(doc codec.Document) {
	for _, a := range doc.Activities() {
		if name, _ := a["name"].(string); name == "" {
			if title, ok := a["title"].(string); ok && title != "" {
				a["name"] = title
			}
		}
		delete(a, "title")
		if _, ok := a["isActive"]; !ok {
			a["isActive"] = true
		}
	}
}

// addTestSettings adds the questionnaire state introduced in 1.1.0.
func addTestSettings(doc codec.Document) {
	settings := doc.Settings()
	if settings == nil {
		return
	}
	if ts, ok := settings["testSettings"].(map[string]any); ok && ts != nil {
		return
	}
	settings["testSettings"] = map[string]any{
		"hasCompletedFirstTest": false,
		"showTestReminderPopup": true,
		"testHistory":           []any{},
	}
}
