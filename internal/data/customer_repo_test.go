package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	apperrors "github.com/orderdesk/orderdesk/internal/errors"
	"github.com/orderdesk/orderdesk/internal/testutil"
)

func TestCustomerRepo_Create_Get_List_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCustomerRepo(db)

		c, err := repo.Create(ctx, testutil.NewCustomerRequest().
			WithName("Initech").
			WithEmail("billing@initech.example.com").
			WithWebsite("https://www.initech.example.com/contact").
			Build())
		require.NoError(t, err)
		require.NotEmpty(t, c.ID)
		assert.Equal(t, "Initech", c.Name)
		require.NotNil(t, c.Website)
		assert.NotZero(t, c.CreatedAt)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Email, got.Email)

		_, err = repo.GetByID(ctx, "no-such-id")
		assert.True(t, apperrors.IsNotFound(err))

		// duplicate email conflicts
		_, err = repo.Create(ctx, testutil.NewCustomerRequest().
			WithName("Initech Again").
			WithEmail("billing@initech.example.com").
			Build())
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		deleted, err := repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestCustomerRepo_List_Filters(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCustomerRepo(db)

		seed := []struct {
			name    string
			email   string
			website string
		}{
			{"Acme Corp", "sales@acme.example.com", "https://shop.acme.example.com"},
			{"Globex", "info@globex.example.org", ""},
			{"Initrode", "hello@initrode.example.com", "https://initrode.example.com"},
		}
		for _, s := range seed {
			b := testutil.NewCustomerRequest().WithName(s.name).WithEmail(s.email)
			if s.website != "" {
				b = b.WithWebsite(s.website)
			}
			_, err := repo.Create(ctx, b.Build())
			require.NoError(t, err)
		}

		// substring search on name and email
		q := "acme"
		got, err := repo.List(ctx, model.CustomersListOptions{Q: &q})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme Corp", got[0].Name)

		q = "example.org"
		got, err = repo.List(ctx, model.CustomersListOptions{Q: &q})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Globex", got[0].Name)

		// domain filter hits website host and email host
		domain := "acme.example.com"
		got, err = repo.List(ctx, model.CustomersListOptions{Domain: &domain})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme Corp", got[0].Name)

		count, err := repo.Count(ctx, model.CustomersListOptions{Domain: &domain})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// name sort ascending
		got, err = repo.List(ctx, model.CustomersListOptions{Sort: "name", Dir: "asc"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Acme Corp", got[0].Name)
		assert.Equal(t, "Initrode", got[2].Name)

		// paging
		got, err = repo.List(ctx, model.CustomersListOptions{Sort: "name", Dir: "asc", Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Globex", got[0].Name)
	})
}

func TestBuildCustomersListQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		query, args := buildCustomersListQuery(model.CustomersListOptions{})
		assert.Contains(t, query, `ORDER BY "created_at" DESC, "id" DESC`)
		assert.Equal(t, []any{50, 0}, args)
	})

	t.Run("domain filter matches email suffix", func(t *testing.T) {
		domain := "acme.example.com"
		query, args := buildCustomersListQuery(model.CustomersListOptions{Domain: &domain})
		assert.Contains(t, query, "website ILIKE $1")
		assert.Contains(t, query, "email ILIKE $2")
		assert.Equal(t, "%acme.example.com%", args[0])
		assert.Equal(t, "%@%acme.example.com", args[1])
	})

	t.Run("search matches name and email with one argument", func(t *testing.T) {
		q := "acme"
		query, args := buildCustomersListQuery(model.CustomersListOptions{Q: &q})
		assert.Contains(t, query, "(name ILIKE $1 OR email ILIKE $1)")
		assert.Equal(t, "%acme%", args[0])
	})

	t.Run("unknown sort column falls back", func(t *testing.T) {
		query, _ := buildCustomersListQuery(model.CustomersListOptions{Sort: "email; --"})
		assert.Contains(t, query, `ORDER BY "created_at" DESC`)
	})
}
