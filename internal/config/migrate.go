package config

import (
	"fmt"
	"sort"
	"strconv"
)

// legacyPOS lists the pos_mappings keys older documents used, in the order
// their categories are created.
var legacyPOS = []struct {
	key    string
	id     string
	name   string
	values []string
}{
	{"verb", "verb", "Verbs", []string{"godan", "ichidan", "suru", "kuru", "zuru"}},
	{"adjective", "adjective", "Adjectives", []string{"i", "na", "no"}},
	{"other", "other", "Other", nil},
}

const (
	legacyPOSField = "POS"
	posField       = "PartOfSpeech"
	posLabel       = "Part of Speech"
)

// Migrate rewrites a legacy document in place and returns one note per change.
func Migrate(doc map[string]any) []string {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	migrateRunOnSync(doc, note)
	for _, key := range []string{"run_on_card_added", "hepburn"} {
		if _, ok := doc[key]; ok {
			delete(doc, key)
			note("removed obsolete %q", key)
		}
	}
	migrateSourceSchema(doc, note)
	migratePOSMappings(doc, note)
	migrateSourceFields(doc, note)
	migrateCategories(doc, note)
	return notes
}

func migrateRunOnSync(doc map[string]any, note func(string, ...any)) {
	var (
		val   any
		found bool
	)
	// run_on_sync wins over its older name.
	for _, key := range []string{"auto_on_sync", "run_on_sync"} {
		if v, ok := doc[key]; ok {
			val, found = v, true
			delete(doc, key)
			note("moved %q to options.run_on_sync", key)
		}
	}
	if !found {
		return
	}
	opts, ok := doc["options"].(map[string]any)
	if !ok {
		opts = map[string]any{}
		doc["options"] = opts
	}
	if _, set := opts["run_on_sync"]; !set {
		opts["run_on_sync"] = val
	}
}

func migrateSourceSchema(doc map[string]any, note func(string, ...any)) {
	var legacy any
	if ids, ok := doc["source_note_type_ids"].([]any); ok {
		if len(ids) > 0 {
			legacy = ids[0]
		}
		if len(ids) > 1 {
			note("source_note_type_ids: kept the first of %d schemas", len(ids))
		}
		delete(doc, "source_note_type_ids")
	}
	if v, ok := doc["source_note_type_id"]; ok {
		if legacy == nil {
			legacy = v
		}
		delete(doc, "source_note_type_id")
	}
	if legacy == nil {
		return
	}
	if cur, _ := doc["source_schema"].(string); cur != "" {
		note("source_schema already set; ignored legacy source note type")
		return
	}
	doc["source_schema"] = scalarString(legacy)
	note("source_schema set from legacy source note type %s", scalarString(legacy))
}

func migratePOSMappings(doc map[string]any, note func(string, ...any)) {
	raw, ok := doc["pos_mappings"]
	if !ok {
		return
	}
	delete(doc, "pos_mappings")
	mappings, ok := raw.(map[string]any)
	if !ok {
		note("pos_mappings: not an object, ignored")
		return
	}
	if cats, _ := doc["categories"].([]any); len(cats) > 0 {
		note("pos_mappings ignored: categories already configured")
		return
	}

	var cats []any
	seen := map[string]bool{}
	for _, p := range legacyPOS {
		seen[p.key] = true
		entry, ok := mappings[p.key].(map[string]any)
		if !ok {
			continue
		}
		target := scalarString(entry["note_type_id"])
		if target == "" {
			note("pos_mappings.%s: no note_type_id, skipped", p.key)
			continue
		}
		filter := map[string]any{"field": posField, "match_mode": "equals_any"}
		if len(p.values) == 0 {
			filter = map[string]any{"match_mode": "any"}
		} else {
			values := make([]any, len(p.values))
			for i, v := range p.values {
				values[i] = v
			}
			filter["values"] = values
		}
		cat := map[string]any{
			"id":            p.id,
			"name":          p.name,
			"target_schema": target,
			"filter":        filter,
		}
		if fm, ok := entry["field_map"]; ok {
			cat["field_map"] = fm
		}
		cats = append(cats, cat)
		note("pos_mappings.%s converted to category %q", p.key, p.name)
	}
	for _, key := range sortedKeys(mappings) {
		if !seen[key] {
			note("pos_mappings.%s: unknown part of speech, skipped", key)
		}
	}
	if len(cats) > 0 {
		doc["categories"] = cats
	}
}

// migrateSourceFields accepts the object form of the registry and renames POS.
func migrateSourceFields(doc map[string]any, note func(string, ...any)) {
	switch fields := doc["source_fields"].(type) {
	case map[string]any:
		list := make([]any, 0, len(fields))
		for _, name := range sortedKeys(fields) {
			entry := map[string]any{}
			switch v := fields[name].(type) {
			case map[string]any:
				for k, val := range v {
					entry[k] = val
				}
			case string:
				entry["label"] = v
			case bool:
				entry["enabled"] = v
			}
			entry["name"] = name
			list = append(list, entry)
		}
		doc["source_fields"] = list
		note("source_fields converted from object to list")
	case []any:
	default:
		return
	}

	for _, item := range doc["source_fields"].([]any) {
		entry, ok := item.(map[string]any)
		if !ok || entry["name"] != legacyPOSField {
			continue
		}
		entry["name"] = posField
		if label, _ := entry["label"].(string); label == "" || label == legacyPOSField {
			entry["label"] = posLabel
		}
		aliases, _ := entry["aliases"].([]any)
		entry["aliases"] = append([]any{legacyPOSField}, aliases...)
		if _, ok := entry["normalize"]; !ok {
			entry["normalize"] = "part_of_speech"
		}
		note("source field %q renamed to %q", legacyPOSField, posField)
	}
}

func migrateCategories(doc map[string]any, note func(string, ...any)) {
	cats, ok := doc["categories"].([]any)
	if !ok {
		return
	}
	for i, item := range cats {
		cat, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := cat["note_type_id"]; ok {
			delete(cat, "note_type_id")
			if _, set := cat["target_schema"]; !set {
				cat["target_schema"] = scalarString(v)
				note("categories[%d]: note_type_id renamed to target_schema", i)
			}
		}
		filter, ok := cat["filter"].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := filter["source_field"]; ok {
			delete(filter, "source_field")
			if _, set := filter["field"]; !set {
				filter["field"] = v
				note("categories[%d]: filter.source_field renamed to filter.field", i)
			}
		}
		if filter["field"] == legacyPOSField {
			filter["field"] = posField
			note("categories[%d]: filter field %q renamed to %q", i, legacyPOSField, posField)
		}
	}
}

// scalarString renders a decoded JSON scalar. IDs arrive as float64.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
