package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/google/uuid"
)

// memStore is an in-memory backend for posts, profiles and engagement
type memStore struct {
	mu       sync.Mutex
	posts    map[string]*models.Post
	profiles map[string]*models.Profile
	likes    map[string]bool
	comments map[string][]models.Comment
	views    map[string]bool
	nextID   uint

	listCalls   []repositories.ListQuery
	likeLookups int

	failViews bool
}

func newMemStore() *memStore {
	return &memStore{
		posts:    map[string]*models.Post{},
		profiles: map[string]*models.Profile{},
		likes:    map[string]bool{},
		comments: map[string][]models.Comment{},
		views:    map[string]bool{},
	}
}

func (m *memStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPublished(_ context.Context, q repositories.ListQuery) ([]models.Post, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, q)
	out := []models.Post{}
	for _, p := range m.posts {
		if p.Published && matchesSearch(p, q.Search) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Sort == repositories.SortPopular && out[i].LikesCount != out[j].LikesCount {
			return out[i].LikesCount > out[j].LikesCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := int64(len(out))
	if q.Offset >= len(out) {
		return []models.Post{}, total, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

// matchesSearch mirrors the ILIKE predicate of the Postgres repository
func matchesSearch(p *models.Post, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Excerpt), term)
}

func (m *memStore) ListByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[p.ID]
	if !ok || cur.AuthorID != p.AuthorID {
		return repositories.ErrPostNotFound
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[id]
	if !ok || cur.AuthorID != authorID {
		return repositories.ErrPostNotFound
	}
	delete(m.posts, id)
	delete(m.comments, id)
	return nil
}

func (m *memStore) ReconcileCounters(_ context.Context, id string) (models.PostCounters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return models.PostCounters{}, repositories.ErrPostNotFound
	}
	var likes int64
	for k := range m.likes {
		if strings.HasPrefix(k, id+"|") {
			likes++
		}
	}
	p.LikesCount = likes
	p.CommentsCount = int64(len(m.comments[id]))
	return models.PostCounters{LikesCount: p.LikesCount, CommentsCount: p.CommentsCount, ViewsCount: p.ViewsCount}, nil
}

func (m *memStore) HasUserLikedPost(_ context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likeLookups++
	return m.likes[postID+"|"+userID], nil
}

func (m *memStore) LikedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likeLookups++
	out := map[string]bool{}
	for _, id := range postIDs {
		if m.likes[id+"|"+userID] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memStore) ToggleLike(_ context.Context, postID, userID string) (models.LikeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return models.LikeState{}, repositories.ErrPostNotFound
	}
	key := postID + "|" + userID
	if m.likes[key] {
		delete(m.likes, key)
		if p.LikesCount > 0 {
			p.LikesCount--
		}
	} else {
		m.likes[key] = true
		p.LikesCount++
	}
	return models.LikeState{PostID: postID, IsLiked: m.likes[key], LikesCount: p.LikesCount}, nil
}

func (m *memStore) AddComment(_ context.Context, c *models.Comment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[c.PostID]
	if !ok {
		return 0, repositories.ErrPostNotFound
	}
	m.nextID++
	c.ID = m.nextID
	m.comments[c.PostID] = append(m.comments[c.PostID], *c)
	p.CommentsCount++
	return p.CommentsCount, nil
}

func (m *memStore) GetCommentsByPostID(_ context.Context, postID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Comment(nil), m.comments[postID]...), nil
}

func (m *memStore) IncrementPostViews(_ context.Context, postID string, v models.Viewer) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failViews {
		return 0, false, errors.New("views unavailable")
	}
	p, ok := m.posts[postID]
	if !ok {
		return 0, false, repositories.ErrPostNotFound
	}
	key := repositories.ViewerKey(v)
	if key != "" && m.views[postID+"|"+key] {
		return p.ViewsCount, false, nil
	}
	if key != "" {
		m.views[postID+"|"+key] = true
	}
	p.ViewsCount++
	return p.ViewsCount, true, nil
}

func (m *memStore) EnsureProfile(_ context.Context, userID, email, fullName string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID, Email: email, FullName: fullName, CreatedAt: time.Now()}
		m.profiles[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Username != nil && *p.Username == models.NormalizeUsername(username) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrProfileNotFound
}

func (m *memStore) GetCompactByUserIDs(_ context.Context, ids []string) (map[string]models.ProfileCompact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.ProfileCompact{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p.ToCompact()
		}
	}
	return out, nil
}

func (m *memStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Username != nil {
		for uid, other := range m.profiles {
			if uid != p.UserID && other.Username != nil && *other.Username == *p.Username {
				return repositories.ErrUsernameTaken
			}
		}
	}
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("invalid token")
}

type fakeObjectStore struct {
	mu      sync.Mutex
	keys    []string
	removed []string
}

const fakeObjectBase = "https://cdn.test/"

func (f *fakeObjectStore) Upload(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	return fakeObjectBase + key, nil
}

func (f *fakeObjectStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjectStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, fakeObjectBase)
	return key, ok && key != ""
}

type fakeSubscriptions struct {
	emails map[string]bool
}

func (f *fakeSubscriptions) Subscribe(_ context.Context, email string) (*models.Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if f.emails[email] {
		return nil, repositories.ErrAlreadySubscribed
	}
	f.emails[email] = true
	return &models.Subscription{Email: email, CreatedAt: time.Now()}, nil
}

type fakePreferences struct {
	saved map[string]models.Preference
}

func (f *fakePreferences) GetPreference(_ context.Context, userID string) (*models.Preference, error) {
	if p, ok := f.saved[userID]; ok {
		return &p, nil
	}
	return models.DefaultPreference(userID), nil
}

func (f *fakePreferences) SavePreference(_ context.Context, p *models.Preference) error {
	p.UpdatedAt = time.Now()
	f.saved[p.UserID] = *p
	return nil
}
