package book

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

func TestListBooksUseCase(t *testing.T) {
	repos := persistence.NewMemory(memory.NewStore())
	svc := book.NewService(repos.Books, repos.Tx)
	add := NewAddBookUseCase(svc, logger.Discard())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := add.Execute(ctx, AddBookRequest{
			ISBN:          fmt.Sprintf("978030640%04d", i),
			Title:         fmt.Sprintf("Book %02d", i),
			Author:        "Author",
			TotalCopies:   1,
			PublishedDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	uc := NewListBooksUseCase(svc)

	result, err := uc.Execute(ctx, ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, DefaultPageSize, result.PageSize)
	assert.EqualValues(t, 25, result.Total)
	assert.Len(t, result.Books, DefaultPageSize)

	result, err = uc.Execute(ctx, ListBooksRequest{Page: 2, PageSize: 1000, SortBy: "title_asc"})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, result.PageSize)
	assert.Empty(t, result.Books)

	result, err = uc.Execute(ctx, ListBooksRequest{Keyword: "book 0", PageSize: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.Total)
}
