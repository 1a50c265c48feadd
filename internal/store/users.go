package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/choreboard/internal/model"
)

// CreateUser registers a new user with the given opaque password hash.
// Usernames are unique case-sensitively.
func (s *Store) CreateUser(username, passwordHash string) (model.User, error) {
	var user model.User
	err := s.Update(func(doc *model.Document) error {
		for _, u := range doc.Users {
			if u.Username == username {
				return fmt.Errorf("%w: user %s exists", ErrConflict, username)
			}
		}
		user = model.User{
			ID:       uuid.NewString(),
			Username: username,
			Password: passwordHash,
			Avatar:   "",
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	return user, err
}

// GetUserByUsername looks up a user by exact username.
func (s *Store) GetUserByUsername(username string) (model.User, error) {
	var user model.User
	err := s.View(func(doc *model.Document) error {
		for _, u := range doc.Users {
			if u.Username == username {
				user = u
				return nil
			}
		}
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	})
	return user, err
}

// GetUserByID looks up a user by id.
func (s *Store) GetUserByID(id string) (model.User, error) {
	var user model.User
	err := s.View(func(doc *model.Document) error {
		for _, u := range doc.Users {
			if u.ID == id {
				user = u
				return nil
			}
		}
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	})
	return user, err
}

// SetAvatar updates the user's avatar reference (a filename in the avatar
// store or a built-in identifier).
func (s *Store) SetAvatar(userID, avatar string) (model.User, error) {
	var user model.User
	err := s.Update(func(doc *model.Document) error {
		for i := range doc.Users {
			if doc.Users[i].ID == userID {
				doc.Users[i].Avatar = avatar
				user = doc.Users[i]
				return nil
			}
		}
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	})
	return user, err
}

// SetUsername renames the user. The new name must not collide, case
// sensitively, with any other user.
func (s *Store) SetUsername(userID, username string) (model.User, error) {
	var user model.User
	err := s.Update(func(doc *model.Document) error {
		for _, u := range doc.Users {
			if u.Username == username && u.ID != userID {
				return fmt.Errorf("%w: username %s taken", ErrConflict, username)
			}
		}
		for i := range doc.Users {
			if doc.Users[i].ID == userID {
				doc.Users[i].Username = username
				user = doc.Users[i]
				return nil
			}
		}
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	})
	return user, err
}

// ClearAvatar empties the avatar field of every user referencing the given
// filename. It reports whether any record changed; when none did the
// document is still rewritten unchanged, which is harmless.
func (s *Store) ClearAvatar(filename string) (bool, error) {
	changed := false
	err := s.Update(func(doc *model.Document) error {
		for i := range doc.Users {
			if doc.Users[i].Avatar == filename {
				doc.Users[i].Avatar = ""
				changed = true
			}
		}
		return nil
	})
	return changed, err
}
