package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/choreboard/internal/model"
)

// resolveGroup finds the group whose trimmed name matches case-insensitively,
// or appends a new one. An existing record is returned unchanged: its stored
// casing is authoritative and never overwritten by a later call.
func resolveGroup(doc *model.Document, name string) (model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, fmt.Errorf("%w: missing group name", ErrValidation)
	}

	lower := strings.ToLower(name)
	for _, g := range doc.Groups {
		if strings.ToLower(g.Name) == lower {
			return g, nil
		}
	}

	g := model.Group{ID: uuid.NewString(), Name: name}
	doc.Groups = append(doc.Groups, g)
	return g, nil
}

// resolveChore finds or creates the chore with the given (name, groupID)
// uniqueness key.
func resolveChore(doc *model.Document, name, groupID string) (model.Chore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Chore{}, fmt.Errorf("%w: missing chore name", ErrValidation)
	}

	key := scopedKey(name, groupID)
	for _, c := range doc.Chores {
		if scopedKey(c.Name, c.GroupID) == key {
			return c, nil
		}
	}

	c := model.Chore{ID: uuid.NewString(), Name: name, GroupID: groupID}
	doc.Chores = append(doc.Chores, c)
	return c, nil
}

// resolveWeeklyGoal finds or creates the weekly goal with the given
// (name, groupID) key, and eagerly resolves the matching chore so the chore
// shows up in autocomplete before any completion is logged.
func resolveWeeklyGoal(doc *model.Document, name, groupID string) (model.WeeklyGoal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.WeeklyGoal{}, fmt.Errorf("%w: missing goal name", ErrValidation)
	}

	goal := model.WeeklyGoal{}
	found := false
	key := scopedKey(name, groupID)
	for _, g := range doc.WeeklyGoals {
		if scopedKey(g.Name, g.GroupID) == key {
			goal = g
			found = true
			break
		}
	}
	if !found {
		goal = model.WeeklyGoal{ID: uuid.NewString(), Name: name, GroupID: groupID}
		doc.WeeklyGoals = append(doc.WeeklyGoals, goal)
	}

	if _, err := resolveChore(doc, name, groupID); err != nil {
		return model.WeeklyGoal{}, err
	}
	return goal, nil
}

// ResolveGroup finds or creates a group by name.
func (s *Store) ResolveGroup(name string) (model.Group, error) {
	var group model.Group
	err := s.Update(func(doc *model.Document) error {
		g, err := resolveGroup(doc, name)
		if err != nil {
			return err
		}
		group = g
		return nil
	})
	return group, err
}

// ResolveChore finds or creates a chore by name, resolving the group first
// when a group name is given.
func (s *Store) ResolveChore(name, groupName string) (model.Chore, error) {
	var chore model.Chore
	err := s.Update(func(doc *model.Document) error {
		groupID, err := resolveGroupID(doc, groupName)
		if err != nil {
			return err
		}
		c, err := resolveChore(doc, name, groupID)
		if err != nil {
			return err
		}
		chore = c
		return nil
	})
	return chore, err
}

// CreateWeeklyGoal finds or creates a weekly goal (and its lockstep chore).
// The returned entry carries the submitted group name, trimmed.
func (s *Store) CreateWeeklyGoal(name, groupName string) (model.GoalEntry, error) {
	groupName = strings.TrimSpace(groupName)
	var entry model.GoalEntry
	err := s.Update(func(doc *model.Document) error {
		groupID, err := resolveGroupID(doc, groupName)
		if err != nil {
			return err
		}
		goal, err := resolveWeeklyGoal(doc, name, groupID)
		if err != nil {
			return err
		}
		entry = model.GoalEntry{ID: goal.ID, Name: goal.Name, Group: groupName}
		return nil
	})
	return entry, err
}

// resolveGroupID resolves an optional group name to its id. An empty name
// means ungrouped and yields the empty id.
func resolveGroupID(doc *model.Document, groupName string) (string, error) {
	if strings.TrimSpace(groupName) == "" {
		return "", nil
	}
	g, err := resolveGroup(doc, groupName)
	if err != nil {
		return "", err
	}
	return g.ID, nil
}
