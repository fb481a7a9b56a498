package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ernesto = "Ernesto Batumbakal"

func TestSendAndPollUnread(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	first, err := f.relay.Send(ctx, ernesto, "first", entity.NotificationInfo)
	require.NoError(t, err)
	second, err := f.relay.Send(ctx, ernesto, "second", entity.NotificationAppointment)
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID, "ids stay increasing within the same millisecond")
	assert.Equal(t, fixedNow.UnixMilli(), first.ID)
	assert.Equal(t, "2023-06-14T09:00:00.000Z", first.Timestamp)

	unread, err := f.relay.PollUnread(ctx, ernesto)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "first", unread[0].Message)
	assert.Equal(t, "second", unread[1].Message)

	again, err := f.relay.PollUnread(ctx, ernesto)
	require.NoError(t, err)
	assert.Empty(t, again)

	for _, n := range f.store.inbox(t)[ernesto] {
		assert.True(t, n.Read)
	}
}

func TestPollMarksWholeQueueRead(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	_, err := f.relay.Send(ctx, ernesto, "old", entity.NotificationInfo)
	require.NoError(t, err)
	_, err = f.relay.PollUnread(ctx, ernesto)
	require.NoError(t, err)

	_, err = f.relay.Send(ctx, ernesto, "new", entity.NotificationSuccess)
	require.NoError(t, err)

	count, err := f.relay.UnreadCount(ctx, ernesto)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := f.relay.PollUnread(ctx, ernesto)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "new", unread[0].Message)

	all, err := f.relay.List(ctx, ernesto)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Read)
	assert.True(t, all[1].Read)
}

func TestPollOtherPatientUntouched(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	_, err := f.relay.Send(ctx, ernesto, "for ernesto", entity.NotificationInfo)
	require.NoError(t, err)
	_, err = f.relay.Send(ctx, "Kim Dahyun", "for dahyun", entity.NotificationInfo)
	require.NoError(t, err)

	_, err = f.relay.PollUnread(ctx, ernesto)
	require.NoError(t, err)

	count, err := f.relay.UnreadCount(ctx, "Kim Dahyun")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPollUnreadForKeepsPerConsumerCursors(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	_, err := f.relay.Send(ctx, ernesto, "one", entity.NotificationInfo)
	require.NoError(t, err)

	phone, err := f.relay.PollUnreadFor(ctx, ernesto, "phone")
	require.NoError(t, err)
	require.Len(t, phone, 1)

	_, err = f.relay.Send(ctx, ernesto, "two", entity.NotificationInfo)
	require.NoError(t, err)

	phone, err = f.relay.PollUnreadFor(ctx, ernesto, "phone")
	require.NoError(t, err)
	require.Len(t, phone, 1)
	assert.Equal(t, "two", phone[0].Message)

	laptop, err := f.relay.PollUnreadFor(ctx, ernesto, "laptop")
	require.NoError(t, err)
	assert.Len(t, laptop, 2)

	// Cursor polls leave the shared read flags alone.
	count, err := f.relay.UnreadCount(ctx, ernesto)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPollUnreadForWithoutConsumerDrains(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()

	_, err := f.relay.Send(ctx, ernesto, "one", entity.NotificationInfo)
	require.NoError(t, err)

	unread, err := f.relay.PollUnreadFor(ctx, ernesto, "")
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	count, err := f.relay.UnreadCount(ctx, ernesto)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t, nil, nil, nil)

	_, err := f.relay.Send(context.Background(), ernesto, "", entity.NotificationInfo)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	n, err := f.relay.Send(context.Background(), ernesto, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationInfo, n.Type)

	_, err = f.relay.Send(context.Background(), ernesto, "hi", "urgent")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Len(t, f.store.inbox(t)[ernesto], 1)
}

func TestInboxWithUnknownTypeIsRejected(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	f.store.data[KeyNotifications] = []byte(`{"Ernesto Batumbakal":[{"id":1,"message":"hi","type":"gossip","read":false}]}`)

	_, err := f.relay.PollUnread(context.Background(), ernesto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")

	_, err = f.relay.List(context.Background(), ernesto)
	assert.Error(t, err)
}

func TestPollEmptyInboxWritesNothing(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	before := f.store.writes

	unread, err := f.relay.PollUnread(context.Background(), ernesto)
	require.NoError(t, err)
	assert.Empty(t, unread)
	assert.Equal(t, before, f.store.writes)
}

func TestResolvePatientKey(t *testing.T) {
	patients := []*entity.Patient{
		{ID: "3001", Name: "Chou Tzuyu", PatientID: "P12345"},
		{ID: "3002", Name: "Twin", PatientID: "P1"},
		{ID: "3003", Name: "Twin", PatientID: "P2"},
		{ID: "3004", Name: "No Id"},
	}

	tests := []struct {
		name      string
		display   string
		patientID string
		want      string
	}{
		{"explicit id wins", "Chou Tzuyu", "P777", "P777"},
		{"unique name maps to id", "Chou Tzuyu", "", "P12345"},
		{"id passes through", "P12345", "", "P12345"},
		{"duplicate names keep the name", "Twin", "", "Twin"},
		{"record without id keeps the name", "No Id", "", "No Id"},
		{"unknown name", ernesto, "", ernesto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePatientKey(tt.display, tt.patientID, patients))
		})
	}
}
