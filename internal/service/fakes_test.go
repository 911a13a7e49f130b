package service

import (
	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory store used by the workflow tests
type memStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	articles map[string]model.Article
	tokens   map[string]model.VerificationToken

	failFind error
	creates  int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]model.User{},
		articles: map[string]model.Article{},
		tokens:   map[string]model.VerificationToken{},
	}
}

func notFound(what string) error {
	return fmt.Errorf("failed to find %s, %w", what, store.ErrNotFound)
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.users {
		if e.Email == u.Email {
			return fmt.Errorf("failed to create user, %w", store.ErrDuplicate)
		}
	}

	m.creates++
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user")
	}

	return &u, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFind != nil {
		return nil, m.failFind
	}

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, notFound("user")
}

func (m *memStore) FindUsersByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}

	return out, nil
}

func (m *memStore) MarkVerified(_ context.Context, id string) error {
	return m.editUser(id, func(u *model.User) { u.Verified = true })
}

func (m *memStore) UpdatePassword(_ context.Context, id, hash string) error {
	return m.editUser(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memStore) UpdateProfile(ctx context.Context, id string, p model.ProfileUpdate) (*model.User, error) {
	err := m.editUser(id, func(u *model.User) {
		if p.FirstName != nil {
			u.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			u.LastName = *p.LastName
		}
		if p.Phone != nil {
			u.Phone = *p.Phone
		}
		if p.DOB != nil {
			u.DOB = *p.DOB
		}
	})
	if err != nil {
		return nil, err
	}

	return m.FindUserByID(ctx, id)
}

func (m *memStore) UpdatePreferences(ctx context.Context, id string, prefs []string) (*model.User, error) {
	if err := m.editUser(id, func(u *model.User) { u.Preferences = slices.Clone(prefs) }); err != nil {
		return nil, err
	}

	return m.FindUserByID(ctx, id)
}

func (m *memStore) editUser(id string, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return notFound("user")
	}

	fn(&u)
	m.users[id] = u
	return nil
}

func (m *memStore) CreateArticle(_ context.Context, a *model.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Normalize()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	m.articles[a.ID] = cloneArticle(*a)
	return nil
}

func (m *memStore) FindArticleByID(_ context.Context, id string) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, notFound("article")
	}

	a = cloneArticle(a)
	return &a, nil
}

func (m *memStore) FindArticlesByAuthor(_ context.Context, authorID string) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Article{}
	for _, a := range m.articles {
		if a.AuthorID == authorID {
			out = append(out, cloneArticle(a))
		}
	}

	sortNewest(out)
	return out, nil
}

func (m *memStore) FindFeed(_ context.Context, q model.FeedQuery) ([]model.Article, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Article{}
	for _, a := range m.articles {
		if q.ViewerID != "" && slices.Contains(a.BlockedBy, q.ViewerID) {
			continue
		}
		if q.Category != "" && a.Category != q.Category {
			continue
		}
		out = append(out, cloneArticle(a))
	}

	sortNewest(out)
	total := int64(len(out))

	if q.Offset >= len(out) {
		return []model.Article{}, total, nil
	}

	end := min(q.Offset+q.Limit, len(out))
	return out[q.Offset:end], total, nil
}

func (m *memStore) UpdateArticle(ctx context.Context, id string, p model.ArticlePatch) (*model.Article, error) {
	err := m.editArticle(id, func(a *model.Article) {
		if p.Title != nil {
			a.Title = *p.Title
		}
		if p.Content != nil {
			a.Content = p.Content
		}
		if p.Category != nil {
			a.Category = *p.Category
		}
		if p.FeaturedImageID != nil && *p.FeaturedImageID == "" {
			a.FeaturedImage, a.FeaturedImageID = nil, nil
			return
		}
		if p.FeaturedImage != nil {
			a.FeaturedImage = p.FeaturedImage
		}
		if p.FeaturedImageID != nil {
			a.FeaturedImageID = p.FeaturedImageID
		}
	})
	if err != nil {
		return nil, err
	}

	return m.FindArticleByID(ctx, id)
}

func (m *memStore) DeleteArticle(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return notFound("article")
	}

	delete(m.articles, id)
	return nil
}

func (m *memStore) AddLike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	err := m.editArticle(articleID, func(a *model.Article) {
		a.Dislikes = slices.DeleteFunc(a.Dislikes, func(s string) bool { return s == userID })
		if !slices.Contains(a.Likes, userID) {
			a.Likes = append(a.Likes, userID)
		}
	})
	if err != nil {
		return nil, err
	}

	return m.FindArticleByID(ctx, articleID)
}

func (m *memStore) AddDislike(ctx context.Context, articleID, userID string) (*model.Article, error) {
	err := m.editArticle(articleID, func(a *model.Article) {
		a.Likes = slices.DeleteFunc(a.Likes, func(s string) bool { return s == userID })
		if !slices.Contains(a.Dislikes, userID) {
			a.Dislikes = append(a.Dislikes, userID)
		}
	})
	if err != nil {
		return nil, err
	}

	return m.FindArticleByID(ctx, articleID)
}

func (m *memStore) ToggleBlock(ctx context.Context, articleID, userID string) (*model.Article, bool, error) {
	var blocked bool

	err := m.editArticle(articleID, func(a *model.Article) {
		if slices.Contains(a.BlockedBy, userID) {
			a.BlockedBy = slices.DeleteFunc(a.BlockedBy, func(s string) bool { return s == userID })
			return
		}
		a.BlockedBy = append(a.BlockedBy, userID)
		blocked = true
	})
	if err != nil {
		return nil, false, err
	}

	a, err := m.FindArticleByID(ctx, articleID)
	return a, blocked, err
}

func (m *memStore) editArticle(id string, fn func(*model.Article)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok {
		return notFound("article")
	}

	a = cloneArticle(a)
	fn(&a)
	m.articles[id] = a
	return nil
}

func (m *memStore) CreateToken(_ context.Context, t *model.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[t.ID] = *t
	return nil
}

func (m *memStore) ConsumeToken(_ context.Context, userID, purpose, digest string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.tokens {
		if t.UserID == userID && t.Purpose == purpose && t.TokenDigest == digest && !t.Used && t.ExpiresAt.After(now) {
			t.Used = true
			t.UsedAt = &now
			m.tokens[id] = t
			return nil
		}
	}

	return notFound("token")
}

func (m *memStore) DeleteExpiredTokens(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, id)
			n++
		}
	}

	return n, nil
}

func (m *memStore) user(email string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}

	return model.User{}
}

func cloneArticle(a model.Article) model.Article {
	a.Likes = slices.Clone(a.Likes)
	a.Dislikes = slices.Clone(a.Dislikes)
	a.BlockedBy = slices.Clone(a.BlockedBy)
	a.Normalize()
	return a
}

func sortNewest(entries []model.Article) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerificationMail(_ context.Context, to, _, token string) error {
	return f.record("verify", to, token)
}

func (f *fakeMailer) SendPasswordResetMail(_ context.Context, to, _, token string) error {
	return f.record("reset", to, token)
}

func (f *fakeMailer) record(kind, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentMail{kind: kind, to: to, token: token})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sent) == 0 {
		return sentMail{}
	}

	return f.sent[len(f.sent)-1]
}

type fakeAssets struct {
	mu       sync.Mutex
	uploaded map[string]int64
	deleted  []string
	err      error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{uploaded: map[string]int64{}}
}

func (f *fakeAssets) Upload(_ context.Context, key, _ string, body io.Reader, size int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	n, _ := io.Copy(io.Discard, body)
	if n != size {
		return "", fmt.Errorf("size mismatch, got %d want %d", n, size)
	}

	f.uploaded[key] = size
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeAssets) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, key)
	return f.err
}
