package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/model"
	"github.com/hinsy/accounts-service/internal/repository"
	"gorm.io/gorm"
)

// fakeUserStore is an in-memory UserStore for service tests.
type fakeUserStore struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*model.User{}, nextID: 1}
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) List(_ context.Context, params constants.PaginationParams, filter repository.UserFilter) ([]model.User, int64, error) {
	var matched []model.User
	for _, user := range f.users {
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			haystack := strings.ToLower(user.FirstName + " " + user.LastName + " " + user.Username + " " + user.Email)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.RoleIDs) > 0 {
			found := false
			for _, role := range user.Roles {
				for _, id := range filter.RoleIDs {
					if role.ID == id {
						found = true
					}
				}
			}
			if !found {
				continue
			}
		}
		matched = append(matched, *user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return nil, total, nil
	}
	end := params.Offset + params.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, id uint, values map[string]interface{}) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range values {
		switch column {
		case "first_name":
			user.FirstName = value.(string)
		case "last_name":
			user.LastName = value.(string)
		case "username":
			user.Username = value.(string)
		case "email":
			user.Email = value.(string)
		case "phone":
			user.Phone = value.(string)
		case "password":
			user.Password = value.(string)
		case "avatar":
			user.Avatar = value.(string)
		case "is_active":
			user.IsActive = value.(bool)
		case "email_verified_at":
			at := value.(time.Time)
			user.EmailVerifiedAt = &at
		}
	}
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uint, hashedPassword string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = hashedPassword
	return nil
}

func (f *fakeUserStore) SetRoles(_ context.Context, user *model.User, roles []model.Role) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Roles = append([]model.Role(nil), roles...)
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uint) error {
	if _, ok := f.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.users, id)
	return nil
}

// fakeRoleStore is an in-memory RoleStore.
type fakeRoleStore struct {
	roles  map[uint]*model.Role
	nextID uint
}

func newFakeRoleStore(names ...string) *fakeRoleStore {
	f := &fakeRoleStore{roles: map[uint]*model.Role{}, nextID: 1}
	for _, name := range names {
		f.Create(context.Background(), &model.Role{Name: name})
	}
	return f
}

func (f *fakeRoleStore) GetByID(_ context.Context, id uint) (*model.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (f *fakeRoleStore) GetByName(_ context.Context, name string) (*model.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleStore) GetByIDs(_ context.Context, ids []uint) ([]model.Role, error) {
	var out []model.Role
	for _, id := range ids {
		if role, ok := f.roles[id]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) List(_ context.Context, params constants.PaginationParams) ([]model.Role, int64, error) {
	var matched []model.Role
	for _, role := range f.roles {
		if params.Search != "" && !strings.Contains(strings.ToLower(role.Name), strings.ToLower(params.Search)) {
			continue
		}
		matched = append(matched, *role)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return nil, total, nil
	}
	end := params.Offset + params.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func (f *fakeRoleStore) Create(_ context.Context, role *model.Role) error {
	role.ID = f.nextID
	f.nextID++
	role.CreatedAt = time.Now()
	copied := *role
	f.roles[role.ID] = &copied
	return nil
}

func (f *fakeRoleStore) Update(_ context.Context, id uint, values map[string]interface{}) error {
	role, ok := f.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := values["name"]; ok {
		role.Name = name.(string)
	}
	return nil
}

func (f *fakeRoleStore) Delete(_ context.Context, id uint) error {
	if _, ok := f.roles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.roles, id)
	return nil
}

// fakeTokenStore is an in-memory TokenStore.
type fakeTokenStore struct {
	tokens  map[uint]*model.AccessToken
	nextID  uint
	touched []uint
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[uint]*model.AccessToken{}, nextID: 1}
}

func (f *fakeTokenStore) Create(_ context.Context, token *model.AccessToken) error {
	token.ID = f.nextID
	f.nextID++
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	copied := *token
	f.tokens[token.ID] = &copied
	return nil
}

func (f *fakeTokenStore) GetByID(_ context.Context, id uint) (*model.AccessToken, error) {
	token, ok := f.tokens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *token
	return &copied, nil
}

func (f *fakeTokenStore) TouchLastUsed(_ context.Context, id uint) error {
	token, ok := f.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.LastUsedAt = &now
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeTokenStore) Delete(_ context.Context, id uint) error {
	if _, ok := f.tokens[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.tokens, id)
	return nil
}

func (f *fakeTokenStore) DeleteByUserID(_ context.Context, userID uint) error {
	for id, token := range f.tokens {
		if token.UserID == userID {
			delete(f.tokens, id)
		}
	}
	return nil
}

// fakeTokenCache records cache traffic for assertions.
type cachedToken struct {
	userID   uint
	issuedAt time.Time
}

type fakeTokenCache struct {
	entries map[string]cachedToken
	hits    int
	deletes int
}

func newFakeTokenCache() *fakeTokenCache {
	return &fakeTokenCache{entries: map[string]cachedToken{}}
}

func (f *fakeTokenCache) GetToken(_ context.Context, key string) (uint, time.Time, bool) {
	entry, ok := f.entries[key]
	if ok {
		f.hits++
	}
	return entry.userID, entry.issuedAt, ok
}

func (f *fakeTokenCache) SetToken(_ context.Context, key string, userID uint, issuedAt time.Time) {
	f.entries[key] = cachedToken{userID: userID, issuedAt: issuedAt}
}

func (f *fakeTokenCache) DeleteToken(_ context.Context, key string) {
	delete(f.entries, key)
	f.deletes++
}
