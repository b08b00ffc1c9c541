package bill

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/shared"
)

type memBillRepo struct {
	store map[uuid.UUID]*bill.Bill
}

func newMemBillRepo() *memBillRepo {
	return &memBillRepo{store: make(map[uuid.UUID]*bill.Bill)}
}

func (r *memBillRepo) FindByID(_ context.Context, id uuid.UUID) (*bill.Bill, error) {
	b, ok := r.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (r *memBillRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*bill.Bill, error) {
	var out []*bill.Bill
	for _, b := range r.store {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBillRepo) FindByGroup(_ context.Context, groupID uuid.UUID) ([]*bill.Bill, error) {
	var out []*bill.Bill
	for _, b := range r.store {
		if b.GroupID != nil && *b.GroupID == groupID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBillRepo) Create(_ context.Context, b *bill.Bill) error {
	r.store[b.ID] = b
	return nil
}

func (r *memBillRepo) Save(_ context.Context, b *bill.Bill) error {
	r.store[b.ID] = b
	return nil
}

func (r *memBillRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newBillServiceFixture() (*BillService, *memBillRepo, *capturingPublisher) {
	repo := newMemBillRepo()
	publisher := &capturingPublisher{}
	return NewBillService(repo, publisher, zap.NewNop()), repo, publisher
}

func dinnerInput(owner, friend uuid.UUID) BillInput {
	return BillInput{
		Title: "Dinner",
		Participants: []bill.Person{
			{ID: owner.String()},
			{ID: friend.String()},
		},
		Items:       []bill.Item{{ID: "i1", Description: "Dinner", Amount: decimal.NewFromInt(30)}},
		Total:       decimal.NewFromInt(30),
		SplitEvenly: true,
	}
}

func TestBillService_Create(t *testing.T) {
	svc, repo, publisher := newBillServiceFixture()
	owner := uuid.New()
	friend := uuid.New()

	b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))

	require.NoError(t, err)
	assert.Contains(t, repo.store, b.ID)
	require.Len(t, publisher.events, 1)
	created, ok := publisher.events[0].(*bill.BillCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, b.ID, created.BillID)
	assert.Equal(t, owner, created.OwnerID)
}

func TestBillService_Update(t *testing.T) {
	owner := uuid.New()
	friend := uuid.New()

	t.Run("publishes before and after snapshots", func(t *testing.T) {
		svc, _, publisher := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)

		input := dinnerInput(owner, friend)
		input.Total = decimal.NewFromInt(40)
		input.Items[0].Amount = decimal.NewFromInt(40)

		updated, err := svc.Update(context.Background(), owner, b.ID, input)
		require.NoError(t, err)
		assert.Equal(t, "40", updated.Total.String())

		require.Len(t, publisher.events, 2)
		event, ok := publisher.events[1].(*bill.BillUpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, "30", event.Before.Total)
		assert.Equal(t, "40", event.After.Total)
		assert.False(t, event.Before.Equal(event.After))
	})

	t.Run("participants may edit", func(t *testing.T) {
		svc, _, _ := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), friend, b.ID, dinnerInput(owner, friend))
		require.NoError(t, err)
	})

	t.Run("outsiders are rejected", func(t *testing.T) {
		svc, _, _ := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), uuid.New(), b.ID, dinnerInput(owner, friend))
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("moving between groups carries the previous group on the event", func(t *testing.T) {
		svc, _, publisher := newBillServiceFixture()
		oldGroup := uuid.New()
		newGroup := uuid.New()

		input := dinnerInput(owner, friend)
		input.GroupID = &oldGroup
		b, err := svc.Create(context.Background(), owner, input)
		require.NoError(t, err)

		input.GroupID = &newGroup
		updated, err := svc.Update(context.Background(), owner, b.ID, input)
		require.NoError(t, err)
		assert.Equal(t, newGroup, *updated.GroupID)

		event, ok := publisher.events[1].(*bill.BillUpdatedEvent)
		require.True(t, ok)
		require.NotNil(t, event.PreviousGroupID)
		assert.Equal(t, oldGroup, *event.PreviousGroupID)
		assert.Equal(t, newGroup, *event.GroupID)
	})

	t.Run("zero group id clears the association", func(t *testing.T) {
		svc, _, _ := newBillServiceFixture()
		groupID := uuid.New()

		input := dinnerInput(owner, friend)
		input.GroupID = &groupID
		b, err := svc.Create(context.Background(), owner, input)
		require.NoError(t, err)

		// Absent means keep the current group.
		updated, err := svc.Update(context.Background(), owner, b.ID, dinnerInput(owner, friend))
		require.NoError(t, err)
		require.NotNil(t, updated.GroupID)

		cleared := uuid.Nil
		input.GroupID = &cleared
		updated, err = svc.Update(context.Background(), owner, b.ID, input)
		require.NoError(t, err)
		assert.Nil(t, updated.GroupID)
	})

	t.Run("settled person ids replace the previous set", func(t *testing.T) {
		svc, _, _ := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)

		input := dinnerInput(owner, friend)
		input.SettledPersonIDs = []string{friend.String()}
		updated, err := svc.Update(context.Background(), owner, b.ID, input)
		require.NoError(t, err)
		assert.True(t, updated.IsSettled(friend.String()))

		updated, err = svc.Update(context.Background(), owner, b.ID, dinnerInput(owner, friend))
		require.NoError(t, err)
		assert.False(t, updated.IsSettled(friend.String()))
	})
}

func TestBillService_Delete(t *testing.T) {
	owner := uuid.New()
	friend := uuid.New()

	t.Run("event carries the footprint captured before removal", func(t *testing.T) {
		svc, repo, publisher := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)
		b.ProcessedFootprint[friend] = decimal.NewFromInt(-15)

		err = svc.Delete(context.Background(), owner, b.ID)
		require.NoError(t, err)

		assert.NotContains(t, repo.store, b.ID)
		event, ok := publisher.events[1].(*bill.BillDeletedEvent)
		require.True(t, ok)
		assert.Equal(t, "-15", event.Footprint[friend].String())
	})

	t.Run("only the owner may delete", func(t *testing.T) {
		svc, _, _ := newBillServiceFixture()
		b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
		require.NoError(t, err)

		err = svc.Delete(context.Background(), friend, b.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestBillService_Rescan(t *testing.T) {
	svc, repo, publisher := newBillServiceFixture()
	owner := uuid.New()
	friend := uuid.New()

	b, err := svc.Create(context.Background(), owner, dinnerInput(owner, friend))
	require.NoError(t, err)

	err = svc.Rescan(context.Background(), owner, b.ID)
	require.NoError(t, err)

	assert.True(t, repo.store[b.ID].ForceRescan)
	event, ok := publisher.events[1].(*bill.BillUpdatedEvent)
	require.True(t, ok)
	assert.False(t, event.Before.ForceRescan)
	assert.True(t, event.After.ForceRescan)
}

func TestSettlementService_Record(t *testing.T) {
	from := uuid.New()
	to := uuid.New()

	newSvc := func() (*SettlementService, *capturingPublisher) {
		bills, _, publisher := newBillServiceFixture()
		return NewSettlementService(bills, zap.NewNop()), publisher
	}

	t.Run("stores the settlement as a debtor-owned bill", func(t *testing.T) {
		svc, publisher := newSvc()

		b, err := svc.Record(context.Background(), SettlementInput{
			From:   from,
			To:     to,
			Amount: decimal.NewFromInt(15),
		})

		require.NoError(t, err)
		assert.Equal(t, from, b.OwnerID)
		assert.Equal(t, "Settlement", b.Title)
		assert.Equal(t, "15", b.Total.String())
		require.Len(t, b.Items, 1)
		assert.Equal(t, []string{to.String()}, b.ItemAssignments[b.Items[0].ID])
		require.Len(t, publisher.events, 1)
	})

	t.Run("note becomes the title", func(t *testing.T) {
		svc, _ := newSvc()

		b, err := svc.Record(context.Background(), SettlementInput{
			From:   from,
			To:     to,
			Amount: decimal.NewFromInt(15),
			Note:   "Venmo transfer",
		})

		require.NoError(t, err)
		assert.Equal(t, "Venmo transfer", b.Title)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, _ := newSvc()

		_, err := svc.Record(context.Background(), SettlementInput{From: from, To: from, Amount: decimal.NewFromInt(1)})
		require.Error(t, err)

		_, err = svc.Record(context.Background(), SettlementInput{From: from, To: to, Amount: decimal.Zero})
		require.Error(t, err)

		_, err = svc.Record(context.Background(), SettlementInput{To: to, Amount: decimal.NewFromInt(1)})
		require.Error(t, err)
	})
}
