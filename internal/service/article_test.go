package service

import (
	"bitwise74/readstack/internal/apperr"
	"bitwise74/readstack/internal/model"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newArticleFixture(t *testing.T) (*ArticleService, *memStore, *fakeAssets) {
	t.Helper()

	st := newMemStore()
	assets := newFakeAssets()

	for _, id := range []string{"author", "other", "viewer"} {
		require.NoError(t, st.CreateUser(context.Background(), &model.User{
			ID:        id,
			FirstName: strings.ToUpper(id[:1]) + id[1:],
			LastName:  "Tester",
			Email:     id + "@x.com",
		}))
	}

	return NewArticleService(st, st, assets), st, assets
}

func articleInput(title string) ArticleInput {
	return ArticleInput{
		Title:    title,
		Content:  datatypes.JSON(`"<p>Some text</p>"`),
		Category: "Technology",
	}
}

func TestCreateArticle(t *testing.T) {
	svc, _, _ := newArticleFixture(t)

	a, err := svc.Create(context.Background(), "author", articleInput("Hello world"))
	require.NoError(t, err)
	assert.Equal(t, "author", a.AuthorID)
	assert.Len(t, a.ID, 16)
	require.NotNil(t, a.Author)
	assert.Equal(t, "author@x.com", a.Author.Email)
	assert.Empty(t, a.Likes)
	assert.Empty(t, a.Dislikes)

	in := articleInput("Hello world")
	in.Category = "Gardening"
	_, err = svc.Create(context.Background(), "author", in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLikeDislike(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author", articleInput("Reactions"))
	require.NoError(t, err)

	a, err = svc.ToggleLike(ctx, "viewer", a.ID)
	require.NoError(t, err)
	a, err = svc.ToggleLike(ctx, "viewer", a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer"}, a.Likes)
	assert.Empty(t, a.Dislikes)

	a, err = svc.ToggleDislike(ctx, "viewer", a.ID)
	require.NoError(t, err)
	assert.Empty(t, a.Likes)
	assert.Equal(t, []string{"viewer"}, a.Dislikes)

	_, err = svc.ToggleLike(ctx, "viewer", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReactionsStayExclusive(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author", articleInput("Exclusive"))
	require.NoError(t, err)

	ops := []bool{true, false, false, true, true, false, true}
	users := []string{"u1", "u2", "u3"}

	for i, like := range ops {
		u := users[i%len(users)]
		if like {
			a, err = svc.ToggleLike(ctx, u, a.ID)
		} else {
			a, err = svc.ToggleDislike(ctx, u, a.ID)
		}
		require.NoError(t, err)

		for _, id := range users {
			assert.False(t, slices.Contains(a.Likes, id) && slices.Contains(a.Dislikes, id))
		}
	}
}

func TestToggleBlock(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author", articleInput("Blockable"))
	require.NoError(t, err)

	_, blocked, err := svc.ToggleBlock(ctx, "viewer", a.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	feed, err := svc.Feed(ctx, "viewer", FeedParams{})
	require.NoError(t, err)
	assert.Empty(t, feed.Articles)

	_, err = svc.Get(ctx, "viewer", a.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Get(ctx, "other", a.ID)
	assert.NoError(t, err)

	a, blocked, err = svc.ToggleBlock(ctx, "viewer", a.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.NotContains(t, a.BlockedBy, "viewer")

	feed, err = svc.Feed(ctx, "viewer", FeedParams{})
	require.NoError(t, err)
	require.Len(t, feed.Articles, 1)
	assert.Equal(t, a.ID, feed.Articles[0].ID)

	_, _, err = svc.ToggleBlock(ctx, "viewer", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFeedNeverShowsBlocked(t *testing.T) {
	svc, st, _ := newArticleFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := range 12 {
		require.NoError(t, st.CreateArticle(ctx, &model.Article{
			ID:        fmt.Sprintf("art%02d", i),
			Title:     "Article",
			Category:  "Food",
			AuthorID:  "author",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}))

		if i%3 == 0 {
			_, _, err := svc.ToggleBlock(ctx, "viewer", fmt.Sprintf("art%02d", i))
			require.NoError(t, err)
		}
	}

	for page := 1; page <= 3; page++ {
		feed, err := svc.Feed(ctx, "viewer", FeedParams{Page: page, Limit: 3})
		require.NoError(t, err)

		for _, a := range feed.Articles {
			assert.NotContains(t, a.BlockedBy, "viewer")
		}
	}
}

func TestFeedPagination(t *testing.T) {
	svc, st, _ := newArticleFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := range 5 {
		require.NoError(t, st.CreateArticle(ctx, &model.Article{
			ID:        fmt.Sprintf("art%d", i),
			Title:     "Article",
			Category:  "Travel",
			AuthorID:  "author",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	feed, err := svc.Feed(ctx, "viewer", FeedParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, feed.Total)
	assert.Equal(t, 3, feed.TotalPages)
	assert.True(t, feed.HasMore)
	require.Len(t, feed.Articles, 2)
	assert.Equal(t, "art4", feed.Articles[0].ID)
	require.NotNil(t, feed.Articles[0].Author)
	assert.Equal(t, "Author", feed.Articles[0].Author.FirstName)

	feed, err = svc.Feed(ctx, "viewer", FeedParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.False(t, feed.HasMore)
	require.Len(t, feed.Articles, 1)
	assert.Equal(t, "art0", feed.Articles[0].ID)

	feed, err = svc.Feed(ctx, "viewer", FeedParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Page)
	assert.Equal(t, DefaultFeedLimit, feed.Limit)

	for _, p := range []FeedParams{{Page: -1}, {Limit: -5}, {Limit: MaxFeedLimit + 1}, {Page: MaxFeedPage + 1}, {Page: math.MaxInt, Limit: MaxFeedLimit}, {Category: "Nope"}} {
		_, err = svc.Feed(ctx, "viewer", p)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v", p)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author", articleInput("Mine"))
	require.NoError(t, err)

	title := "Stolen"
	_, err = svc.Update(ctx, "other", a.ID, model.ArticlePatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	err = svc.Delete(ctx, "other", a.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	title = "Still mine"
	updated, err := svc.Update(ctx, "author", a.ID, model.ArticlePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Still mine", updated.Title)
	assert.Equal(t, "author", updated.AuthorID)

	require.NoError(t, svc.Delete(ctx, "author", a.ID))

	_, err = svc.Update(ctx, "author", a.ID, model.ArticlePatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, "author", a.ID), apperr.KindNotFound))
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, _, assets := newArticleFixture(t)
	ctx := context.Background()

	oldID := "articles/author/old.png"
	oldURL := "https://cdn.example.com/" + oldID

	in := articleInput("With image")
	in.FeaturedImage = &oldURL
	in.FeaturedImageID = &oldID

	a, err := svc.Create(ctx, "author", in)
	require.NoError(t, err)

	newID := "articles/author/new.png"
	newURL := "https://cdn.example.com/" + newID

	_, err = svc.Update(ctx, "author", a.ID, model.ArticlePatch{FeaturedImage: &newURL, FeaturedImageID: &newID})
	require.NoError(t, err)
	assert.Equal(t, []string{oldID}, assets.deleted)

	assets.err = errors.New("asset host down")
	title := "Still works"
	_, err = svc.Update(ctx, "author", a.ID, model.ArticlePatch{Title: &title})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "author", a.ID))
	assert.Equal(t, []string{oldID, newID}, assets.deleted)
}

func TestForeignAssetsAreNotDeleted(t *testing.T) {
	svc, _, assets := newArticleFixture(t)
	ctx := context.Background()

	foreign := "articles/other/theirs.png"
	in := articleInput("Sneaky")
	in.FeaturedImageID = &foreign

	a, err := svc.Create(ctx, "author", in)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "author", a.ID))
	assert.Empty(t, assets.deleted)
}

func TestUploadImage(t *testing.T) {
	svc, _, assets := newArticleFixture(t)
	body := bytes.Repeat([]byte{1}, 128)

	img, err := svc.UploadImage(context.Background(), "author", bytes.NewReader(body), int64(len(body)), "image/png", ".png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.AssetID, "articles/author/"))
	assert.True(t, strings.HasSuffix(img.AssetID, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+img.AssetID, img.URL)
	assert.EqualValues(t, 128, assets.uploaded[img.AssetID])

	noHost := NewArticleService(newMemStore(), newMemStore(), nil)
	_, err = noHost.UploadImage(context.Background(), "author", bytes.NewReader(body), int64(len(body)), "image/png", ".png")
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestMyArticles(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "author", articleInput("One"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "other", articleInput("Two"))
	require.NoError(t, err)

	mine, err := svc.MyArticles(ctx, "author")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "One", mine[0].Title)
}

func TestCategories(t *testing.T) {
	svc, _, _ := newArticleFixture(t)

	c := svc.Categories()
	assert.Len(t, c, 8)
	c[0] = "changed"
	assert.Equal(t, "Technology", svc.Categories()[0])
}
