package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

func newService() user.Service {
	return user.NewService(memory.NewUserRepository(memory.NewStore()))
}

func TestValidation(t *testing.T) {
	assert.True(t, user.IsValidEmail("reader@example.com"))
	assert.True(t, user.IsValidEmail("a.b+tag@lib.example.org"))
	assert.False(t, user.IsValidEmail("reader@"))
	assert.False(t, user.IsValidEmail("reader example.com"))

	assert.True(t, user.IsValidPhone("+86 138-0013-8000"))
	assert.True(t, user.IsValidPhone("13800138000"))
	assert.False(t, user.IsValidPhone("0123"))
	assert.False(t, user.IsValidPhone("abc"))

	assert.Equal(t, "reader@example.com", user.NormalizeEmail("  Reader@Example.COM "))
	assert.Equal(t, "+8613800138000", user.NormalizePhone("+86 138-0013-8000"))
}

func TestService_Register(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, " 三 ", "张", "Zhang.San@Example.com", "138-0013-8000")
	require.NoError(t, err)
	assert.Equal(t, uint(1), u.ID)
	assert.Equal(t, "三", u.FirstName)
	assert.Equal(t, "zhang.san@example.com", u.Email)
	assert.Equal(t, "13800138000", u.Phone)
	assert.Equal(t, user.TypeMember, u.Type)
	assert.True(t, u.IsActive())
	assert.Zero(t, u.RegistrationDate.Hour())

	tests := []struct {
		name    string
		first   string
		last    string
		email   string
		phone   string
		wantErr error
	}{
		{"名为空", "", "李", "li@example.com", "", user.ErrInvalidFirstName},
		{"姓为空", "四", " ", "li@example.com", "", user.ErrInvalidLastName},
		{"邮箱格式错误", "四", "李", "li-at-example", "", user.ErrInvalidEmail},
		{"手机号格式错误", "四", "李", "li@example.com", "12ab", user.ErrInvalidPhone},
		{"邮箱重复(大小写不同)", "四", "李", "ZHANG.SAN@example.com", "", user.ErrEmailDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.first, tt.last, tt.email, tt.phone)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_UpdateUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Register(ctx, "三", "张", "zhang@example.com", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "四", "李", "li@example.com", "")
	require.NoError(t, err)

	phone := "+8613800138000"
	updated, err := svc.UpdateUser(ctx, a.ID, user.UpdateParams{FirstName: "叁", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "叁", updated.FirstName)
	assert.Equal(t, "张", updated.LastName)
	assert.Equal(t, phone, updated.Phone)

	// 清空手机号
	empty := ""
	updated, err = svc.UpdateUser(ctx, a.ID, user.UpdateParams{Phone: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Phone)

	_, err = svc.UpdateUser(ctx, a.ID, user.UpdateParams{Email: "li@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailDuplicate)

	_, err = svc.UpdateUser(ctx, a.ID, user.UpdateParams{Email: "bad"})
	assert.ErrorIs(t, err, user.ErrInvalidEmail)

	_, err = svc.UpdateUser(ctx, 99, user.UpdateParams{FirstName: "x"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestService_DeleteUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "三", "张", "zhang@example.com", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), user.ErrUserNotFound)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.False(t, got.IsActive())

	list, total, err := svc.ListUsers(ctx, user.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestService_RegisterUsesClockDate(t *testing.T) {
	// UTC 3月1日23:30 在东九区已是3月2日
	loc := time.FixedZone("UTC+9", 9*3600)
	clock := func() time.Time { return time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC).In(loc) }
	svc := user.NewService(memory.NewUserRepository(memory.NewStore()), user.WithClock(clock))

	u, err := svc.Register(context.Background(), "三", "张", "zhang@example.com", "")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 2, 0, 0, 0, 0, loc).Equal(u.RegistrationDate), "registered=%s", u.RegistrationDate)
	assert.Equal(t, loc, u.RegistrationDate.Location())
}
