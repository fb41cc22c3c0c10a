package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, users *GormUserRepository, username string) *User {
	t.Helper()

	user := &User{Username: username, Password: "not-a-real-hash"}
	require.Nil(t, users.Insert(context.Background(), user))

	return user
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()
	db := InitializeTestDb(t)
	users := NewUserRepository(db)
	contacts := NewContactRepository(db)

	tony := createTestUser(t, users, "tony")
	peter := createTestUser(t, users, "peter")

	pepper := &Contact{FirstNames: "Pepper", LastNames: "Potts", Phone: "555", Gender: FEMALE_GENDER, UserID: tony.ID}
	happy := &Contact{FirstNames: "Happy", LastNames: "Hogan", Phone: "556", Gender: MALE_GENDER, UserID: tony.ID}
	may := &Contact{FirstNames: "May", LastNames: "Parker", Phone: "557", UserID: peter.ID}

	for _, contact := range []*Contact{pepper, may, happy} {
		require.Nil(t, contacts.Insert(ctx, contact))
		assert.NotZero(t, contact.ID)
	}

	t.Run("ListByOwner returns only the owner's contacts in storage order", func(t *testing.T) {
		tonysContacts, err := contacts.ListByOwner(ctx, tony.ID)
		require.Nil(t, err)
		require.Len(t, tonysContacts, 2)
		assert.Equal(t, "Pepper", tonysContacts[0].FirstNames)
		assert.Equal(t, "Happy", tonysContacts[1].FirstNames)

		petersContacts, err := contacts.ListByOwner(ctx, peter.ID)
		require.Nil(t, err)
		require.Len(t, petersContacts, 1)
		assert.Equal(t, "May", petersContacts[0].FirstNames)
	})

	t.Run("Update overwrites mutable fields but not the owner", func(t *testing.T) {
		err := contacts.Update(ctx, &Contact{
			BaseModel:  BaseModel{ID: pepper.ID},
			FirstNames: "Virginia",
			LastNames:  "Potts",
			Phone:      "999",
			UserID:     peter.ID,
		})
		require.Nil(t, err)

		updated, err := contacts.Find(ctx, pepper.ID)
		require.Nil(t, err)
		assert.Equal(t, "Virginia", updated.FirstNames)
		assert.Equal(t, "999", updated.Phone)
		assert.Equal(t, "", updated.Gender, "Gender should be cleared by the update")
		assert.Equal(t, tony.ID, updated.UserID, "Owner should not change")
	})

	t.Run("Update of a missing contact returns ErrRecordNotFound", func(t *testing.T) {
		err := contacts.Update(ctx, &Contact{BaseModel: BaseModel{ID: 4242}, FirstNames: "x", LastNames: "y", Phone: "1"})
		assert.True(t, errors.Is(err, ErrRecordNotFound))
	})

	t.Run("Delete removes the record", func(t *testing.T) {
		require.Nil(t, contacts.Delete(ctx, happy.ID))

		_, err := contacts.Find(ctx, happy.ID)
		assert.True(t, errors.Is(err, ErrRecordNotFound))
	})

	t.Run("Delete of a missing contact returns ErrRecordNotFound", func(t *testing.T) {
		err := contacts.Delete(ctx, 4242)
		assert.True(t, errors.Is(err, ErrRecordNotFound))
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(InitializeTestDb(t))

	tony := createTestUser(t, users, "tony")

	exists, err := users.UsernameExists(ctx, "tony")
	require.Nil(t, err)
	assert.True(t, exists)

	exists, err = users.UsernameExists(ctx, "bruce")
	require.Nil(t, err)
	assert.False(t, exists)

	found, err := users.FindByID(ctx, tony.ID)
	require.Nil(t, err)
	assert.Equal(t, "tony", found.Username)
	assert.Empty(t, found.Password, "FindByID should not load the password hash")

	found, err = users.FindByUsername(ctx, "tony")
	require.Nil(t, err)
	assert.Equal(t, "not-a-real-hash", found.Password)

	_, err = users.FindByUsername(ctx, "bruce")
	assert.True(t, errors.Is(err, ErrRecordNotFound))

	err = users.Insert(ctx, &User{Username: "tony", Password: "another-hash"})
	assert.True(t, errors.Is(err, ErrDuplicateRecord), "Unique index on username should be enforced, got %v", err)
}
