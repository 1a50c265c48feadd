package store

import (
	"strings"

	"github.com/dukerupert/choreboard/internal/model"
)

// normalize repairs a pre-existing document in place. Runs once at open time,
// never on a freshly initialized document. The pass is idempotent: after one
// run no duplicate keys remain, so a second run changes nothing.
//
// Steps, in order: trim group/chore/goal names, then collapse records sharing
// a uniqueness key to the first-encountered record in original order. Later
// duplicates are dropped silently; anything referencing a dropped record's id
// becomes a dangling weak reference, which read paths tolerate. User avatar
// backfill is handled by decoding: an absent field lands as the empty string.
func normalize(doc *model.Document) {
	groups := make([]model.Group, 0, len(doc.Groups))
	seenGroups := make(map[string]struct{}, len(doc.Groups))
	for _, g := range doc.Groups {
		g.Name = strings.TrimSpace(g.Name)
		key := strings.ToLower(g.Name)
		if _, ok := seenGroups[key]; ok {
			continue
		}
		seenGroups[key] = struct{}{}
		groups = append(groups, g)
	}
	doc.Groups = groups

	chores := make([]model.Chore, 0, len(doc.Chores))
	seenChores := make(map[string]struct{}, len(doc.Chores))
	for _, c := range doc.Chores {
		c.Name = strings.TrimSpace(c.Name)
		key := scopedKey(c.Name, c.GroupID)
		if _, ok := seenChores[key]; ok {
			continue
		}
		seenChores[key] = struct{}{}
		chores = append(chores, c)
	}
	doc.Chores = chores

	goals := make([]model.WeeklyGoal, 0, len(doc.WeeklyGoals))
	seenGoals := make(map[string]struct{}, len(doc.WeeklyGoals))
	for _, g := range doc.WeeklyGoals {
		g.Name = strings.TrimSpace(g.Name)
		key := scopedKey(g.Name, g.GroupID)
		if _, ok := seenGoals[key]; ok {
			continue
		}
		seenGoals[key] = struct{}{}
		goals = append(goals, g)
	}
	doc.WeeklyGoals = goals
}

// scopedKey is the uniqueness key for chores and weekly goals: lowercased
// name scoped by group id. The same name may exist once per group and once
// ungrouped.
func scopedKey(name, groupID string) string {
	return strings.ToLower(name) + "|" + groupID
}
