package service

import (
	"cityhospital/cmd/internal/domain/entity"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedsMissingCollections(t *testing.T) {
	store := newMemStore()
	store.put(t, KeyPatients, []*entity.Patient{{ID: "3999", Name: "Ernesto Batumbakal", PatientID: "P99999"}})

	records := NewRecordRepository(store)
	require.NoError(t, records.Load(context.Background()))

	set := records.Snapshot()
	assert.Len(t, set.Appointments, 7)
	assert.Len(t, set.Requests, 3)
	require.Len(t, set.Patients, 1)
	assert.Equal(t, "Ernesto Batumbakal", set.Patients[0].Name)

	assert.Contains(t, store.data, KeyAppointments)
	assert.Contains(t, store.data, KeyAppointmentRequests)
	assert.Equal(t, 2, store.writes, "only the seeded collections are written back")
}

func TestCollectionRoundTrip(t *testing.T) {
	first, seeded, err := decodeCollection(KeyAppointments, nil, false, defaultAppointments)
	require.NoError(t, err)
	assert.True(t, seeded)

	raw, err := encode(KeyAppointments, first)
	require.NoError(t, err)

	second, seeded, err := decodeCollection[*entity.Appointment](KeyAppointments, raw, true, defaultAppointments)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, first, second)
}

func TestSavedRecordsSurviveReload(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	_, apierr := f.appts.Cancel(context.Background(), "1001", &CancelForm{Reason: "patient unavailable"})
	require.Nil(t, apierr)

	reloaded := NewRecordRepository(f.store)
	require.NoError(t, reloaded.Load(context.Background()))
	assert.Equal(t, f.records.Snapshot(), reloaded.Snapshot())
}

func TestDecodeCollectionWithoutSeed(t *testing.T) {
	items, seeded, err := decodeCollection[*entity.Patient](KeyPatients, nil, false, nil)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Empty(t, items)
}

func TestLoadRejectsCorruptData(t *testing.T) {
	store := newMemStore()
	store.data[KeyPatients] = []byte("{not json")

	assert.Error(t, NewRecordRepository(store).Load(context.Background()))
}

func TestMutateErrorWritesNothing(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	before := f.store.writes
	boom := errors.New("boom")

	err := f.records.Mutate(context.Background(), func(set *RecordSet) error {
		set.Appointments[0].Status = entity.StatusCancelled
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, f.store.writes)

	appt, ok := f.records.FindAppointment("1001")
	require.True(t, ok)
	assert.Equal(t, entity.StatusConfirmed, appt.Status)
}

func TestMutateRefreshesCache(t *testing.T) {
	f := newFixture(t, nil, nil, nil)

	err := f.records.Mutate(context.Background(), func(set *RecordSet) error {
		set.Patients[0].Conditions = "Hypertension"
		return nil
	})
	require.NoError(t, err)

	p, ok := f.records.FindPatient("3001")
	require.True(t, ok)
	assert.Equal(t, "Hypertension", p.Conditions)

	stored, _, err := decodeCollection[*entity.Patient](KeyPatients, f.store.data[KeyPatients], true, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hypertension", stored[0].Conditions)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, nil, nil, nil)

	set := f.records.Snapshot()
	set.Appointments[0].Status = entity.StatusCancelled

	appt, ok := f.records.FindAppointment(set.Appointments[0].ID)
	require.True(t, ok)
	assert.Equal(t, entity.StatusConfirmed, appt.Status)
}

func TestFindMissingRecords(t *testing.T) {
	f := newFixture(t, nil, nil, nil)

	_, ok := f.records.FindAppointment("9999")
	assert.False(t, ok)
	_, ok = f.records.FindRequest("9999")
	assert.False(t, ok)
	_, ok = f.records.FindPatient("9999")
	assert.False(t, ok)
}

func TestResetRestoresDefaults(t *testing.T) {
	f := newFixture(t, []*entity.Appointment{{ID: "1", Patient: "x", Status: entity.StatusPending}}, []*entity.AppointmentRequest{}, nil)
	_, err := f.relay.Send(context.Background(), "x", "hello", entity.NotificationInfo)
	require.NoError(t, err)

	require.NoError(t, f.records.Reset(context.Background()))

	set := f.records.Snapshot()
	assert.Len(t, set.Appointments, 7)
	assert.Len(t, set.Requests, 3)
	assert.Empty(t, f.store.inbox(t))
}

func TestLoadRejectsUnknownEnumValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		v    any
		want string
	}{
		{
			name: "appointment status",
			key:  KeyAppointments,
			v:    []*entity.Appointment{{ID: "1001", Patient: "x", Status: "bogus"}},
			want: `appointment 1001 has unknown status "bogus"`,
		},
		{
			name: "request type",
			key:  KeyAppointmentRequests,
			v:    []*entity.AppointmentRequest{{ID: "2001", Type: "Walk-in", Status: entity.RequestNew}},
			want: `request 2001 has unknown type "Walk-in"`,
		},
		{
			name: "request status",
			key:  KeyAppointmentRequests,
			v:    []*entity.AppointmentRequest{{ID: "2001", Type: entity.RequestNewPatient, Status: "later"}},
			want: `request 2001 has unknown status "later"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.put(t, tt.key, tt.v)

			err := NewRecordRepository(store).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsNullRecords(t *testing.T) {
	store := newMemStore()
	store.data[KeyAppointments] = []byte(`[null]`)

	assert.Error(t, NewRecordRepository(store).Load(context.Background()))
}

func TestMutateRejectsCorruptStatusWrittenLater(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	f.store.put(t, KeyAppointments, []*entity.Appointment{{ID: "1001", Patient: "x", Status: "bogus"}})
	before := f.store.writes

	_, apierr := f.appts.Cancel(context.Background(), "1001", &CancelForm{Reason: "x"})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusInternalServerError, apierr.Code())
	assert.Equal(t, before, f.store.writes)
}
