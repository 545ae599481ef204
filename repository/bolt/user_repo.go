package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/repository"
)

// userRecord is the stored form of a user; domain.User never serializes its digest.
type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func recordFromUser(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (rec userRecord) user() *domain.User {
	return &domain.User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

type userRepository struct {
	db *DB
}

// NewUserRepository instantiates a Bolt-backed user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.db.db.View(func(tx *bolt.Tx) error {
		rec, err := getUser(tx, id)
		if err != nil {
			return err
		}
		user = rec.user()
		return nil
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.db.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketUserEmails).Get([]byte(email))
		if id == nil {
			return domain.ErrUserNotFound
		}
		rec, err := getUser(tx, string(id))
		if err != nil {
			return err
		}
		user = rec.user()
		return nil
	})
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.db.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(bucketUserEmails)
		if emails.Get([]byte(user.Email)) != nil {
			return domain.ErrEmailTaken
		}
		if err := emails.Put([]byte(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return putUser(tx, recordFromUser(user))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var user *domain.User
	err := r.db.db.Update(func(tx *bolt.Tx) error {
		rec, err := getUser(tx, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			user = rec.user()
			return nil
		}

		if patch.Email.Set && patch.Email.Value != rec.Email {
			emails := tx.Bucket(bucketUserEmails)
			if owner := emails.Get([]byte(patch.Email.Value)); owner != nil && string(owner) != rec.ID {
				return domain.ErrEmailTaken
			}
			if err := emails.Delete([]byte(rec.Email)); err != nil {
				return err
			}
			if err := emails.Put([]byte(patch.Email.Value), []byte(rec.ID)); err != nil {
				return err
			}
		}

		current := rec.user()
		patch.Apply(current)
		current.UpdatedAt = r.db.now().UTC()
		user = current
		return putUser(tx, recordFromUser(current))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.db.db.Update(func(tx *bolt.Tx) error {
		rec, err := getUser(tx, id)
		if err != nil {
			return err
		}
		rec.PasswordHash = hash
		rec.UpdatedAt = r.db.now().UTC()
		return putUser(tx, *rec)
	})
}

func getUser(tx *bolt.Tx, id string) (*userRecord, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	raw := tx.Bucket(bucketUsers).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func putUser(tx *bolt.Tx, rec userRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketUsers).Put([]byte(rec.ID), payload)
}
