package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/store"
	"github.com/satheeshds/invoicing/store/storetest"
)

func TestClients_CRUD(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	company := "Acme Ltd"

	in := models.ClientInput{Name: "Jane", Email: "Jane@Acme.test", Company: &company}
	require.Empty(t, in.Validate())
	c, err := s.Clients.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.test", c.Email)

	_, err = s.Clients.Create(ctx, in)
	assert.ErrorIs(t, err, models.ErrConflict)

	in.Name = "Jane Doe"
	updated, err := s.Clients.Update(ctx, c.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Name)

	require.NoError(t, s.Clients.SoftDelete(ctx, c.ID))
	_, err = s.Clients.Get(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Clients.SoftDelete(ctx, c.ID), models.ErrNotFound)
	_, err = s.Clients.Update(ctx, c.ID, in)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClients_ListPaginatesAndSearches(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		storetest.Client(t, s, fmt.Sprintf("user%02d@acme.test", i))
	}
	gone := storetest.Client(t, s, "gone@acme.test")
	require.NoError(t, s.Clients.SoftDelete(ctx, gone.ID))

	page, err := s.Clients.List(ctx, store.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Clients, 10)

	page, err = s.Clients.List(ctx, store.ClientFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Clients, 2)

	page, err = s.Clients.List(ctx, store.ClientFilter{Search: "USER03"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = s.Clients.List(ctx, store.ClientFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
}
