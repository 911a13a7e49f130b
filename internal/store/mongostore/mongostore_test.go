package mongostore

import (
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// Tests run against a real server and are skipped unless
// READSTACK_TEST_MONGO_URI points at one.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("READSTACK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("READSTACK_TEST_MONGO_URI not set")
	}

	name := "readstack_test_" + strings.ToLower(gonanoid.MustGenerate("abcdefghijklmnopqrstuvwxyz", 8))

	s, err := Open(context.Background(), uri, name, 5*time.Second)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Drop(context.Background())
		s.Close(context.Background())
	})

	return s
}

func seedArticle(t *testing.T, s *Store, id string, createdAt time.Time) {
	t.Helper()

	require.NoError(t, s.CreateArticle(context.Background(), &model.Article{
		ID:        id,
		Title:     "Article " + id,
		Content:   datatypes.JSON(`{"type":"doc","content":[{"type":"text","text":"hi"}]}`),
		Category:  "Technology",
		AuthorID:  "author",
		CreatedAt: createdAt,
	}))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{ID: "u1", Email: "a@x.com", FirstName: "A", LastName: "B", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))

	err := s.CreateUser(ctx, &model.User{ID: "u2", Email: "a@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	found, err := s.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
	assert.False(t, found.Verified)

	require.NoError(t, s.MarkVerified(ctx, "u1"))
	found, err = s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found.Verified)

	found, err = s.UpdatePreferences(ctx, "u1", []string{"Food"})
	require.NoError(t, err)
	assert.Equal(t, model.StringSlice{"Food"}, found.Preferences)

	_, err = s.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedArticle(t, s, "art1", time.Now())

	a, err := s.AddLike(ctx, "art1", "u1")
	require.NoError(t, err)
	a, err = s.AddLike(ctx, "art1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, a.Likes)
	assert.Empty(t, a.Dislikes)

	a, err = s.AddDislike(ctx, "art1", "u1")
	require.NoError(t, err)
	assert.Empty(t, a.Likes)
	assert.Equal(t, []string{"u1"}, a.Dislikes)

	_, err = s.AddLike(ctx, "missing", "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleBlockAndFeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	seedArticle(t, s, "old", now.Add(-time.Hour))
	seedArticle(t, s, "new", now)

	_, blocked, err := s.ToggleBlock(ctx, "new", "viewer")
	require.NoError(t, err)
	assert.True(t, blocked)

	feed, total, err := s.FindFeed(ctx, model.FeedQuery{ViewerID: "viewer", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, feed, 1)
	assert.Equal(t, "old", feed[0].ID)

	_, blocked, err = s.ToggleBlock(ctx, "new", "viewer")
	require.NoError(t, err)
	assert.False(t, blocked)

	feed, total, err = s.FindFeed(ctx, model.FeedQuery{ViewerID: "viewer", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, feed, 2)
	assert.Equal(t, "new", feed[0].ID)
}

func TestConsumeToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateToken(ctx, &model.VerificationToken{
		ID: "t1", UserID: "u1", TokenDigest: "d", Purpose: "password_reset",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	require.NoError(t, s.ConsumeToken(ctx, "u1", "password_reset", "d", now))
	assert.ErrorIs(t, s.ConsumeToken(ctx, "u1", "password_reset", "d", now), store.ErrNotFound)
}

func TestConcurrentReactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedArticle(t, s, "art1", time.Now().UTC())

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)

	for i := range n {
		liker := fmt.Sprintf("liker%d", i)
		blocker := fmt.Sprintf("blocker%d", i)

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.AddLike(ctx, "art1", liker)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, _, err := s.ToggleBlock(ctx, "art1", blocker)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	a, err := s.FindArticleByID(ctx, "art1")
	require.NoError(t, err)
	assert.Len(t, a.Likes, n)
	assert.Len(t, a.BlockedBy, n)
}
