package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/generator"
	"github.com/sakif/caption-studio/internal/model"
	"github.com/sakif/caption-studio/internal/repository"
)

// Hand-written in-memory fakes for the repository interfaces. A fake (not a
// mock framework) keeps the tests readable: what the fake does is right here.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- users ----

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
	// set to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("username", user.Username)
		}
		if u.Email == user.Email {
			return apperror.Conflict("email", user.Email)
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// ---- credentials ----

type fakeCredentialRepo struct {
	mu      sync.Mutex
	rows    map[string]model.SocialCredential
	upserts int
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{rows: make(map[string]model.SocialCredential)}
}

func credKey(userID, platform string) string { return userID + "/" + platform }

func (f *fakeCredentialRepo) UpsertCredential(_ context.Context, cred *model.SocialCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := credKey(cred.UserID, cred.Platform)
	now := time.Now().UTC()
	if existing, ok := f.rows[key]; ok {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	} else {
		cred.ID = fmt.Sprintf("cred-%d", len(f.rows)+1)
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	f.rows[key] = *cred
	return nil
}

func (f *fakeCredentialRepo) GetCredential(_ context.Context, userID, platform string) (*model.SocialCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[credKey(userID, platform)]
	if !ok {
		return nil, apperror.NotFound("credential", credKey(userID, platform))
	}
	return &c, nil
}

func (f *fakeCredentialRepo) put(cred model.SocialCredential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[credKey(cred.UserID, cred.Platform)] = cred
}

func (f *fakeCredentialRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// ---- history ----

type fakeHistoryRepo struct {
	mu       sync.Mutex
	captions []model.CaptionRecord
	images   []model.ImageRecord
	addErr   error
}

func (f *fakeHistoryRepo) AddCaption(_ context.Context, rec *model.CaptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	rec.ID = fmt.Sprintf("cap-%d", len(f.captions)+1)
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	f.captions = append(f.captions, *rec)
	return nil
}

func (f *fakeHistoryRepo) AddImage(_ context.Context, rec *model.ImageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	rec.ID = fmt.Sprintf("img-%d", len(f.images)+1)
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	f.images = append(f.images, *rec)
	return nil
}

func (f *fakeHistoryRepo) AddGenerated(_ context.Context, caption *model.CaptionRecord, image *model.ImageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	caption.ID = fmt.Sprintf("cap-%d", len(f.captions)+1)
	image.ID = fmt.Sprintf("img-%d", len(f.images)+1)
	f.captions = append(f.captions, *caption)
	f.images = append(f.images, *image)
	return nil
}

func (f *fakeHistoryRepo) ListCaptions(_ context.Context, userID string, opts repository.ListOptions) ([]model.CaptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CaptionRecord{}
	for _, c := range f.captions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return page(out, opts), nil
}

func (f *fakeHistoryRepo) ListImages(_ context.Context, userID string, opts repository.ListOptions) ([]model.ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ImageRecord{}
	for _, i := range f.images {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].GeneratedAt.After(out[b].GeneratedAt) })
	return page(out, opts), nil
}

func page[T any](rows []T, opts repository.ListOptions) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

// ---- profiles ----

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]model.Profile)}
}

func (f *fakeProfileRepo) GetOrCreateProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		p = model.Profile{UserID: userID, UpdatedAt: time.Now().UTC()}
		f.profiles[userID] = p
	}
	return &p, nil
}

func (f *fakeProfileRepo) UpdateProfile(_ context.Context, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.UserID]; !ok {
		return apperror.NotFound("profile", profile.UserID)
	}
	profile.UpdatedAt = time.Now().UTC()
	f.profiles[profile.UserID] = *profile
	return nil
}

// ---- generator ----

type fakeGenerator struct {
	caption    string
	captionErr error
	image      *generator.Image
	imageErr   error

	mu      sync.Mutex
	topics  []string
	prompts []string
}

func (f *fakeGenerator) Caption(_ context.Context, topic string) (string, error) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	return f.caption, f.captionErr
}

func (f *fakeGenerator) Image(_ context.Context, prompt string) (*generator.Image, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.image, f.imageErr
}
