package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreboard/internal/model"
)

// Placeholders rendered when a joined read hits a dangling reference.
const (
	unknownName = "unknown"
	noGroupName = ""
)

// LogChore appends a completion log for the user, resolving the group (when
// a group name is given) and chore first. ts is the client-supplied epoch
// millisecond timestamp; a nil ts means none was usable and the current time
// is substituted.
func (s *Store) LogChore(userID, name, groupName string, ts *int64) (model.Log, error) {
	when := time.Now().UnixMilli()
	if ts != nil {
		when = *ts
	}

	var entry model.Log
	err := s.Update(func(doc *model.Document) error {
		groupID, err := resolveGroupID(doc, groupName)
		if err != nil {
			return err
		}
		chore, err := resolveChore(doc, name, groupID)
		if err != nil {
			return err
		}
		entry = model.Log{
			ID:      uuid.NewString(),
			UserID:  userID,
			ChoreID: chore.ID,
			Ts:      when,
		}
		doc.Logs = append(doc.Logs, entry)
		return nil
	})
	return entry, err
}

// DeleteLog removes the log with the given id if it is owned by userID.
// A log owned by someone else is indistinguishable from a missing one.
func (s *Store) DeleteLog(logID, userID string) error {
	return s.Update(func(doc *model.Document) error {
		for i, l := range doc.Logs {
			if l.ID == logID && l.UserID == userID {
				doc.Logs = append(doc.Logs[:i], doc.Logs[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: log %s", ErrNotFound, logID)
	})
}

// ListLogsForUser returns the user's logs joined with chore and group names,
// in chronological (insertion) order.
func (s *Store) ListLogsForUser(userID string) ([]model.LogEntry, error) {
	entries := []model.LogEntry{}
	err := s.View(func(doc *model.Document) error {
		for _, l := range doc.Logs {
			if l.UserID != userID {
				continue
			}
			e := joinLog(doc, l)
			e.User = "" // caller's own view carries no username
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// ListAllLogs returns every log joined with username, chore, and group names.
func (s *Store) ListAllLogs() ([]model.LogEntry, error) {
	entries := []model.LogEntry{}
	err := s.View(func(doc *model.Document) error {
		for _, l := range doc.Logs {
			entries = append(entries, joinLog(doc, l))
		}
		return nil
	})
	return entries, err
}

func joinLog(doc *model.Document, l model.Log) model.LogEntry {
	e := model.LogEntry{
		ID:      l.ID,
		UserID:  l.UserID,
		ChoreID: l.ChoreID,
		Ts:      l.Ts,
		User:    unknownName,
		Chore:   unknownName,
		Group:   noGroupName,
	}
	for _, u := range doc.Users {
		if u.ID == l.UserID {
			e.User = u.Username
			break
		}
	}
	for _, c := range doc.Chores {
		if c.ID == l.ChoreID {
			e.Chore = c.Name
			e.Group = groupName(doc, c.GroupID)
			break
		}
	}
	return e
}

func groupName(doc *model.Document, groupID string) string {
	if groupID == "" {
		return noGroupName
	}
	for _, g := range doc.Groups {
		if g.ID == groupID {
			return g.Name
		}
	}
	return noGroupName
}

// Summary counts logs per user within the inclusive [from, to] window.
// Users with no logs in the window are absent from the result.
func (s *Store) Summary(from, to int64) (map[string]int, error) {
	counts := map[string]int{}
	err := s.View(func(doc *model.Document) error {
		for _, l := range doc.Logs {
			if l.Ts >= from && l.Ts <= to {
				counts[l.UserID]++
			}
		}
		return nil
	})
	return counts, err
}

// TopChores returns up to limit chores ranked by total log count descending.
// Ties keep original collection order; a never-logged chore counts as zero
// and sorts after any logged one.
func (s *Store) TopChores(limit int) ([]model.ChoreRank, error) {
	top := []model.ChoreRank{}
	err := s.View(func(doc *model.Document) error {
		counts := make(map[string]int, len(doc.Chores))
		for _, l := range doc.Logs {
			counts[l.ChoreID]++
		}

		ranked := make([]model.Chore, len(doc.Chores))
		copy(ranked, doc.Chores)
		sort.SliceStable(ranked, func(i, j int) bool {
			return counts[ranked[i].ID] > counts[ranked[j].ID]
		})

		if len(ranked) > limit {
			ranked = ranked[:limit]
		}
		for _, c := range ranked {
			top = append(top, model.ChoreRank{
				ID:    c.ID,
				Name:  c.Name,
				Group: groupName(doc, c.GroupID),
			})
		}
		return nil
	})
	return top, err
}

// ListWeeklyGoals returns all weekly goals joined with their group names.
func (s *Store) ListWeeklyGoals() ([]model.GoalEntry, error) {
	goals := []model.GoalEntry{}
	err := s.View(func(doc *model.Document) error {
		for _, g := range doc.WeeklyGoals {
			goals = append(goals, model.GoalEntry{
				ID:    g.ID,
				Name:  g.Name,
				Group: groupName(doc, g.GroupID),
			})
		}
		return nil
	})
	return goals, err
}

// AutocompleteGroups returns distinct group names with the given
// case-insensitive prefix, in original order.
func (s *Store) AutocompleteGroups(prefix string) ([]string, error) {
	names := []string{}
	err := s.View(func(doc *model.Document) error {
		names = matchNames(len(doc.Groups), prefix, func(i int) string { return doc.Groups[i].Name })
		return nil
	})
	return names, err
}

// AutocompleteChores returns distinct chore names with the given
// case-insensitive prefix, in original order.
func (s *Store) AutocompleteChores(prefix string) ([]string, error) {
	names := []string{}
	err := s.View(func(doc *model.Document) error {
		names = matchNames(len(doc.Chores), prefix, func(i int) string { return doc.Chores[i].Name })
		return nil
	})
	return names, err
}

func matchNames(n int, prefix string, name func(i int) string) []string {
	prefix = strings.ToLower(prefix)
	out := []string{}
	seen := map[string]struct{}{}
	for i := 0; i < n; i++ {
		nm := name(i)
		if !strings.HasPrefix(strings.ToLower(nm), prefix) {
			continue
		}
		if _, ok := seen[nm]; ok {
			continue
		}
		seen[nm] = struct{}{}
		out = append(out, nm)
	}
	return out
}
