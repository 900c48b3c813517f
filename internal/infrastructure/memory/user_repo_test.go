package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

func sampleUser(username, email string) domain.User {
	return domain.User{
		FirstName:    "Ana",
		LastName:     "Petrovic",
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Role:         "user",
	}
}

func TestInsert_AssignsIDAndTimestamps(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewUserRepo().WithClock(func() time.Time { return fixed })

	u, err := r.Insert(context.Background(), sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)
	require.Len(t, u.ID, 24)
	require.Equal(t, fixed, u.CreatedAt)
	require.Equal(t, fixed, u.UpdatedAt)
}

func TestInsert_DuplicateUsernameAndEmail(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	_, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	_, err = r.Insert(ctx, sampleUser("ana", "other@example.com"))
	require.True(t, domain.Is(err, "username_already_exists"), "got %v", err)

	_, err = r.Insert(ctx, sampleUser("other", "ana@example.com"))
	require.True(t, domain.Is(err, "email_already_exists"), "got %v", err)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestInsert_ConcurrentSameUsername_OneWinner(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	const writers = 16
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Insert(ctx, sampleUser("same", "u"+string(rune('a'+i))+"@example.com"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, domain.Is(err, "username_already_exists"))
	}
	require.Equal(t, 1, ok)
}

func TestInsertMany_StopsAtFirstConflict(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	out, err := r.InsertMany(ctx, []domain.User{
		sampleUser("a", "a@example.com"),
		sampleUser("b", "b@example.com"),
		sampleUser("a", "c@example.com"),
		sampleUser("d", "d@example.com"),
	})
	require.True(t, domain.Is(err, "username_already_exists"))
	require.Len(t, out, 2)

	n, _ := r.Count(ctx)
	require.EqualValues(t, 2, n)
}

func TestUpdate_KeepsCreatedAt_RefreshesUpdatedAt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	r := NewUserRepo().WithClock(func() time.Time { return now })
	ctx := context.Background()

	u, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	now = t0.Add(time.Hour)
	u.FirstName = "Anna"
	updated, err := r.Update(ctx, u)
	require.NoError(t, err)
	require.Equal(t, t0, updated.CreatedAt)
	require.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)
}

func TestUpdate_RenameFreesOldUsername(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	u, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	u.Username = "anna"
	_, err = r.Update(ctx, u)
	require.NoError(t, err)

	_, err = r.Insert(ctx, sampleUser("ana", "new@example.com"))
	require.NoError(t, err)
}

func TestUpdate_ConflictWithOtherRecord(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	_, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)
	b, err := r.Insert(ctx, sampleUser("bob", "bob@example.com"))
	require.NoError(t, err)

	b.Email = "ana@example.com"
	_, err = r.Update(ctx, b)
	require.True(t, domain.Is(err, "email_already_exists"))
}

func TestUpdate_Missing(t *testing.T) {
	r := NewUserRepo()
	_, err := r.Update(context.Background(), domain.User{ID: "nope"})
	require.True(t, domain.Is(err, "user_not_found"))
}

func TestFind_ProjectionExcludesPassword(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	u, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.PasswordHash)

	got, err = r.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	require.Empty(t, got.PasswordHash)

	got, err = r.FindByIDWithPassword(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "$2a$04$hash", got.PasswordHash)
}

func TestFindByUsername_TrimsAndRejectsEmpty(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	_, err := r.Insert(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	got, err := r.FindByUsername(ctx, "  ana ")
	require.NoError(t, err)
	require.Equal(t, "ana", got.Username)

	_, err = r.FindByUsername(ctx, "   ")
	require.True(t, domain.Is(err, "missing_field"), "got %v", err)
}

func TestDeleteAll_And_DeleteByID(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	u, err := r.Insert(ctx, sampleUser("a", "a@example.com"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, sampleUser("b", "b@example.com"))
	require.NoError(t, err)

	require.NoError(t, r.DeleteByID(ctx, u.ID))
	require.True(t, domain.Is(r.DeleteByID(ctx, u.ID), "user_not_found"))

	n, err := r.DeleteAll(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Empty(t, r.IDs())

	// constraints are released with the records
	_, err = r.Insert(ctx, sampleUser("b", "b@example.com"))
	require.NoError(t, err)
}
