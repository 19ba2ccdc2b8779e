package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCustomerRepository_Lookups(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		lookup  func(r *GormCustomerRepository) (*partner.Customer, error)
		wantErr error
		check   func(t *testing.T, c *partner.Customer)
	}{
		{
			name: "by id",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1`).
					WithArgs(id, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "version", "name", "email", "company", "country"}).
						AddRow(id, 2, "Acme Buyer", "buyer@acme.test", "Acme Ltd", "FR"))
			},
			lookup: func(r *GormCustomerRepository) (*partner.Customer, error) {
				return r.FindByID(context.Background(), id)
			},
			check: func(t *testing.T, c *partner.Customer) {
				assert.Equal(t, id, c.ID)
				assert.Equal(t, 2, c.Version)
				assert.Equal(t, "Acme Ltd", c.Company)
				assert.Empty(t, c.PendingEvents())
			},
		},
		{
			name: "missing id",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1`).
					WithArgs(id, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			lookup: func(r *GormCustomerRepository) (*partner.Customer, error) {
				return r.FindByID(context.Background(), id)
			},
			wantErr: shared.ErrNotFound,
		},
		{
			name: "email is normalized",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "customers" WHERE email = \$1`).
					WithArgs("buyer@acme.test", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
						AddRow(uuid.New(), "Acme Buyer", "buyer@acme.test"))
			},
			lookup: func(r *GormCustomerRepository) (*partner.Customer, error) {
				return r.FindByEmail(context.Background(), "  Buyer@ACME.test ")
			},
			check: func(t *testing.T, c *partner.Customer) {
				assert.Equal(t, "buyer@acme.test", c.Email)
			},
		},
		{
			name:   "blank email",
			expect: func(sqlmock.Sqlmock) {},
			lookup: func(r *GormCustomerRepository) (*partner.Customer, error) {
				return r.FindByEmail(context.Background(), "   ")
			},
			wantErr: shared.NewDomainError("INVALID_EMAIL", ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockGorm(t)
			tt.expect(mock)

			customer, err := tt.lookup(NewGormCustomerRepository(gdb))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, customer)
			} else {
				require.NoError(t, err)
				tt.check(t, customer)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormCustomerRepository_LookupDriverError(t *testing.T) {
	gdb, mock := newMockGorm(t)
	mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnError(errors.New("conn reset"))

	_, err := NewGormCustomerRepository(gdb).FindByID(context.Background(), uuid.New())

	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "load customer")
}

func TestGormCustomerRepository_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"deleted", 1, nil},
		{"nothing to delete", 0, shared.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockGorm(t)
			id := uuid.New()
			mock.ExpectExec(`DELETE FROM "customers" WHERE id = \$1`).
				WithArgs(id).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := NewGormCustomerRepository(gdb).Delete(context.Background(), id)

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormCustomerRepository_CountAndExists(t *testing.T) {
	gdb, mock := newMockGorm(t)
	repo := NewGormCustomerRepository(gdb)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE country = \$1`).
		WithArgs("DE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE email = \$1`).
		WithArgs("buyer@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.Count(ctx, shared.Filter{
		Page: 3, PageSize: 5,
		Filters: map[string]interface{}{"country": "DE", "unknown": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	exists, err := repo.ExistsByEmail(ctx, "Buyer@Acme.test")
	require.NoError(t, err)
	assert.True(t, exists)

	// blank emails never hit the database
	exists, err = repo.ExistsByEmail(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCustomerRepository_SQLite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	for _, seed := range []struct{ name, email, country string }{
		{"Zed Corp", "zed@corp.test", "DE"},
		{"Alpha Studio", "hello@alpha.test", "FR"},
		{"Mid Works", "mid@works.test", "DE"},
	} {
		c, err := partner.NewCustomer(seed.name, seed.email)
		require.NoError(t, err)
		require.NoError(t, c.SetDetails(partner.CustomerDetails{Country: seed.country}))
		require.NoError(t, repo.Save(ctx, c))
	}

	names := func(cs []partner.Customer) []string {
		out := make([]string, len(cs))
		for i := range cs {
			out[i] = cs[i].Name
		}
		return out
	}

	tests := []struct {
		name   string
		filter shared.Filter
		want   []string
		count  int64
	}{
		{"default sort is name ascending", shared.Filter{Page: 1, PageSize: 10}, []string{"Alpha Studio", "Mid Works", "Zed Corp"}, 3},
		{"explicit sort defaults to descending", shared.Filter{OrderBy: "name"}, []string{"Zed Corp", "Mid Works", "Alpha Studio"}, 3},
		{"country filter with paging", shared.Filter{Page: 2, PageSize: 1, Filters: map[string]interface{}{"country": "DE"}}, []string{"Zed Corp"}, 2},
		{"case-insensitive search", shared.Filter{Search: "ALPHA"}, []string{"Alpha Studio"}, 1},
		{"search matches email", shared.Filter{Search: "works.test"}, []string{"Mid Works"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(customers))

			count, err := repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
		})
	}

	t.Run("save updates in place", func(t *testing.T) {
		existing, err := repo.FindByEmail(ctx, "mid@works.test")
		require.NoError(t, err)

		require.NoError(t, existing.Update("Mid Works GmbH", "mid@works.test"))
		require.NoError(t, repo.Save(ctx, existing))

		reloaded, err := repo.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mid Works GmbH", reloaded.Name)
		assert.Equal(t, "DE", reloaded.Country)
	})
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
