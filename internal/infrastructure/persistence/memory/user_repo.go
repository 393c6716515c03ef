package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
)

type userRepository struct {
	s *Store
}

// NewUserRepository 创建读者仓储
func NewUserRepository(s *Store) user.Repository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	return r.s.run(ctx, func() error {
		if r.emailTaken(u.Email, 0) {
			return user.ErrEmailDuplicate
		}
		r.s.userSeq++
		now := time.Now()
		u.ID = r.s.userSeq
		u.CreatedAt = now
		u.UpdatedAt = now
		r.s.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var found *user.User
	err := r.s.run(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var found *user.User
	err := r.s.run(ctx, func() error {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				found = &u
				return nil
			}
		}
		return user.ErrUserNotFound
	})
	return found, err
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.users[u.ID]; !ok {
			return user.ErrUserNotFound
		}
		if r.emailTaken(u.Email, u.ID) {
			return user.ErrEmailDuplicate
		}
		u.UpdatedAt = time.Now()
		r.s.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.s.run(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		u.MarkDeleted()
		r.s.users[id] = u
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, params user.ListParams) ([]*user.User, int64, error) {
	var (
		result []*user.User
		total  int64
	)
	err := r.s.run(ctx, func() error {
		matched := r.filter(params.Keyword)
		total = int64(len(matched))
		result = paginate(matched, params.Page, params.PageSize)
		return nil
	})
	return result, total, err
}

func (r *userRepository) Search(ctx context.Context, keyword string) ([]*user.User, error) {
	var result []*user.User
	err := r.s.run(ctx, func() error {
		result = r.filter(keyword)
		return nil
	})
	return result, err
}

// emailTaken 唯一约束检查(包含已删除的记录,与数据库唯一索引一致)
func (r *userRepository) emailTaken(email string, exceptID uint) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// filter 排除已删除读者,按姓名/邮箱匹配,结果按姓、名排序
func (r *userRepository) filter(keyword string) []*user.User {
	keyword = strings.ToLower(keyword)
	result := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.IsDeleted() {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), keyword) &&
			!strings.Contains(strings.ToLower(u.LastName), keyword) &&
			!strings.Contains(strings.ToLower(u.Email), keyword) {
			continue
		}
		u := u
		result = append(result, &u)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})
	return result
}
