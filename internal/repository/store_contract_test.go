package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/persistence"
	"github.com/postroute/postal-service/internal/repository"
	"github.com/postroute/postal-service/internal/repository/memory"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, memory.NewStore())
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postal",
			"POSTGRES_PASSWORD": "postal",
			"POSTGRES_DB":       "postal_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://postal:postal@" + host + ":" + port.Port() + "/postal_test?sslmode=disable"
	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = pgxpool.New(ctx, dsn)
		return err == nil && pool.Ping(ctx) == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	runStoreContract(t, repository.NewPostgresStore(pool))
}

func runStoreContract(t *testing.T, store repository.Store) {
	ctx := context.Background()

	central := &domain.Branch{Name: "Central", Address: "1 Main St"}
	north := &domain.Branch{Name: "North", Address: "9 Hill Rd"}
	spare := &domain.Branch{Name: "Spare", Address: "0 Nowhere"}
	for _, b := range []*domain.Branch{central, north, spare} {
		require.NoError(t, store.Branches().Create(ctx, b))
	}
	van := &domain.Car{Model: "Transit", Number: "PX-100"}
	require.NoError(t, store.Cars().Create(ctx, van))

	item := &domain.MailItem{
		PersonFrom:          "Ann",
		PersonTo:            "Bob",
		AddressTo:           "5 Elm",
		CurrentBranchID:     &central.ID,
		SourceBranchID:      central.ID,
		DestinationBranchID: north.ID,
		State:               domain.MailStateCreated,
	}

	t.Run("mail reads resolve references", func(t *testing.T) {
		require.NoError(t, store.Mail().Create(ctx, item))
		got, err := store.Mail().GetByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.SourceBranch)
		assert.Equal(t, "Central", got.SourceBranch.Name)
		assert.Equal(t, "North", got.DestinationBranch.Name)
		assert.Equal(t, "Central", got.CurrentBranch.Name)
		assert.Nil(t, got.CurrentCar)

		_, err = store.Mail().GetByID(ctx, item.ID+1000)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		listed, err := store.Mail().List(ctx, repository.MailQuery{CurrentBranchID: &central.ID})
		require.NoError(t, err)
		assert.Len(t, listed, 1)
		listed, err = store.Mail().List(ctx, repository.MailQuery{CurrentBranchID: &north.ID})
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("failed unit of work leaves no trace", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			if err := tx.Branches().Create(ctx, &domain.Branch{Name: "Ghost", Address: "-"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		branches, err := store.Branches().List(ctx)
		require.NoError(t, err)
		for _, b := range branches {
			assert.NotEqual(t, "Ghost", b.Name)
		}
	})

	t.Run("branch removal restricts routed branches", func(t *testing.T) {
		count, err := store.Mail().CountRoutedThrough(ctx, north.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		assert.ErrorIs(t, store.Branches().Delete(ctx, north.ID), repository.ErrReferenced)
		require.NoError(t, store.Branches().Delete(ctx, spare.ID))
		assert.ErrorIs(t, store.Branches().Delete(ctx, spare.ID), repository.ErrNotFound)
	})

	t.Run("activities list newest first and expire", func(t *testing.T) {
		base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		for i, msg := range []string{"old", "tie-a", "tie-b"} {
			at := base
			if i == 0 {
				at = base.Add(-time.Hour)
			}
			require.NoError(t, store.Activities().Create(ctx, &domain.ActivityEntry{
				Type: domain.ActivityCreated, Message: msg, Time: at, UserName: "olga",
				MailID: item.ID, BranchID: &central.ID,
			}))
		}
		entries, err := store.Activities().List(ctx, repository.ActivityQuery{MailID: &item.ID})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, []string{"tie-b", "tie-a", "old"}, []string{entries[0].Message, entries[1].Message, entries[2].Message})

		require.NoError(t, store.Activities().DeleteBefore(ctx, base))
		entries, err = store.Activities().List(ctx, repository.ActivityQuery{MailID: &item.ID})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("car removal unloads items", func(t *testing.T) {
		loaded, err := store.Mail().GetByID(ctx, item.ID)
		require.NoError(t, err)
		loaded.CurrentBranchID = nil
		loaded.CurrentCarID = &van.ID
		loaded.State = domain.MailStateInDeliveryToBranchStock
		require.NoError(t, store.Mail().Update(ctx, loaded))

		got, err := store.Mail().GetByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CurrentCar)
		assert.Equal(t, "PX-100", got.CurrentCar.Number)

		require.NoError(t, store.Cars().Delete(ctx, van.ID))
		got, err = store.Mail().GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CurrentCarID)
	})

	t.Run("accounts are unique and roles restrict", func(t *testing.T) {
		role := &domain.Role{Name: "Courier"}
		require.NoError(t, store.Roles().Create(ctx, role))
		assert.ErrorIs(t, store.Roles().Create(ctx, &domain.Role{Name: "Courier"}), repository.ErrDuplicate)

		user := &domain.User{Username: "cora", Email: "cora@postal.local", PasswordHash: "x"}
		require.NoError(t, store.Users().Create(ctx, user))
		require.NoError(t, store.Users().SetRole(ctx, user.ID, role.ID))
		assert.ErrorIs(t, store.Users().Create(ctx, &domain.User{Username: "cora", Email: "other@postal.local", PasswordHash: "x"}), repository.ErrDuplicate)

		got, err := store.Users().GetByUsername(ctx, "cora")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCourier, got.RoleName())

		count, err := store.Users().CountByRole(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.ErrorIs(t, store.Roles().Delete(ctx, role.ID), repository.ErrReferenced)

		require.NoError(t, store.Users().Delete(ctx, user.ID))
		require.NoError(t, store.Roles().Delete(ctx, role.ID))
	})
}
