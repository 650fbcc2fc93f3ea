package boardsync

import (
	"regexp"
	"sort"
	"strings"

	"github.com/todosync/todosync/internal/trello"
)

var whitespace = regexp.MustCompile(`\s+`)

// normalizeKey canonicalizes a mapping key: trimmed, lowercased. Mapping
// tables are matched case- and space-insensitively against list ids/names.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// slugify turns a list name into a status value: "In Review" -> "in-review".
func slugify(s string) string {
	return whitespace.ReplaceAllString(normalizeKey(s), "-")
}

// buildListToStatus maps open list ids to status values. A configured mapping
// entry (keyed by list id or name) wins; otherwise the slug of the list name
// is used.
func buildListToStatus(openLists []trello.List, listMapping map[string]string) map[string]string {
	lookup := make(map[string]string, len(listMapping))
	for k, v := range listMapping {
		lookup[normalizeKey(k)] = v
	}

	listToStatus := make(map[string]string, len(openLists))
	for _, l := range openLists {
		if direct, ok := lookup[normalizeKey(l.ID)]; ok && direct != "" {
			listToStatus[l.ID] = direct
			continue
		}
		if direct, ok := lookup[normalizeKey(l.Name)]; ok && direct != "" {
			listToStatus[l.ID] = direct
			continue
		}
		if slug := slugify(l.Name); slug != "" {
			listToStatus[l.ID] = slug
		}
	}
	return listToStatus
}

// listIDForStatus resolves a status value back to a list id. No status means
// the first open list. Unresolvable statuses also fall back to the first open
// list, so pushed tasks never silently lose a home.
func listIDForStatus(openLists []trello.List, listToStatus map[string]string, status string) string {
	first := ""
	if len(openLists) > 0 {
		first = openLists[0].ID
	}
	if status == "" {
		return first
	}

	want := normalizeKey(status)
	for _, l := range openLists {
		if normalizeKey(listToStatus[l.ID]) == want {
			return l.ID
		}
	}
	for _, l := range openLists {
		if slugify(l.Name) == want {
			return l.ID
		}
	}
	return first
}

// mapCardLabels translates a card's Trello labels into local label strings
// via the configured name -> label table. Unmapped labels are dropped.
func mapCardLabels(labels []trello.Label, labelMapping map[string]string) []string {
	lookup := make(map[string]string, len(labelMapping))
	for k, v := range labelMapping {
		lookup[normalizeKey(k)] = v
	}

	var out []string
	for _, l := range labels {
		if mapped := lookup[normalizeKey(l.Name)]; mapped != "" {
			out = append(out, mapped)
		}
	}
	return out
}

// reverseLabelMapping inverts the Trello-name -> local-label table. When two
// Trello labels map to the same local label the first wins, in sorted key
// order so the choice is stable across passes.
func reverseLabelMapping(labelMapping map[string]string) map[string]string {
	keys := make([]string, 0, len(labelMapping))
	for k := range labelMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reverse := make(map[string]string, len(labelMapping))
	for _, trelloName := range keys {
		local := labelMapping[trelloName]
		if _, taken := reverse[local]; !taken {
			reverse[local] = trelloName
		}
	}
	return reverse
}

// memberTables builds the member id <-> username lookups for one pass.
func memberTables(members []trello.Member) (idToUsername, usernameToID map[string]string) {
	idToUsername = make(map[string]string, len(members))
	usernameToID = make(map[string]string, len(members))
	for _, m := range members {
		idToUsername[m.ID] = m.Username
		usernameToID[m.Username] = m.ID
	}
	return idToUsername, usernameToID
}

// labelNameToID builds the board-label name -> id lookup. Unnamed labels are
// skipped.
func labelNameToID(labels []trello.Label) map[string]string {
	out := make(map[string]string, len(labels))
	for _, l := range labels {
		if l.Name != "" {
			out[l.Name] = l.ID
		}
	}
	return out
}
