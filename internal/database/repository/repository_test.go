package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/psyflow/backend-go/internal/database/models"
	"github.com/psyflow/backend-go/internal/database/repository"
	"github.com/psyflow/backend-go/internal/testutil"
)

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Dr. " + email, Email: email, PasswordHash: "hashedpassword"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user, models.NewDefaultSettings()))
	return user
}

func createPatient(t *testing.T, db *gorm.DB, ownerID, name string) *models.Patient {
	t.Helper()
	patient := &models.Patient{UserID: ownerID, Name: name}
	require.NoError(t, repository.NewPatientRepository(db).Create(context.Background(), patient))
	return patient
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// ==================== USER REPOSITORY TESTS ====================

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{name: "success", email: "test@example.com"},
		{name: "duplicate email", email: "test@example.com", wantErr: repository.ErrEmailTaken},
		{name: "case differs", email: "TEST@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &models.User{Name: "Ana", Email: tt.email, PasswordHash: "hash"}
			err := repo.Create(ctx, user, models.NewDefaultSettings())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, user.ID)
			require.NotNil(t, user.Settings)
			assert.Equal(t, user.ID, user.Settings.UserID)
		})
	}

	assert.Equal(t, int64(2), countRows(t, db, &models.User{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.Settings{}))
}

func TestUserRepository_Create_IsAtomic(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	existing := createUser(t, db, "first@example.com")

	// Reusing the first user's settings id makes the second insert fail
	// after the user row has been written inside the transaction.
	settings := models.NewDefaultSettings()
	settings.ID = existing.Settings.ID

	err := repo.Create(ctx, &models.User{Name: "Bia", Email: "second@example.com", PasswordHash: "hash"}, settings)
	require.Error(t, err)

	_, err = repo.FindByEmail(ctx, "second@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Equal(t, int64(1), countRows(t, db, &models.User{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.Settings{}))
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	createUser(t, db, "find@example.com")

	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{name: "found", email: "find@example.com"},
		{name: "not found", email: "nonexistent@example.com", wantErr: repository.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := repo.FindByEmail(context.Background(), tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, user.Email)
			require.NotNil(t, user.Settings)
			assert.Equal(t, models.DefaultTimezone, user.Settings.Timezone)
		})
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	user := createUser(t, db, "byid@example.com")

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

// ==================== SETTINGS REPOSITORY TESTS ====================

func TestSettingsRepository_FindAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "settings@example.com")

	settings, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "BRL", settings.Currency)
	assert.Equal(t, "light", settings.Theme)
	assert.True(t, settings.NotificationsEnabled)
	assert.Equal(t, 50, settings.SessionDuration)

	rows, err := repo.Update(ctx, user.ID, map[string]any{"theme": "dark", "default_session_value": 180.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	settings, err = repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, 180.5, settings.DefaultSessionValue)
	assert.Equal(t, "BRL", settings.Currency)

	rows, err = repo.Update(ctx, "missing", map[string]any{"theme": "dark"})
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = repo.FindByUserID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSettingsNotFound)
}

// ==================== PATIENT REPOSITORY TESTS ====================

func TestPatientRepository_FindAllActive_OrdersByNameAndScopesOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPatientRepository(db)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")

	createPatient(t, db, owner.ID, "Carla")
	createPatient(t, db, owner.ID, "Ana")
	createPatient(t, db, owner.ID, "Bruno")
	createPatient(t, db, other.ID, "Aaron")

	patients, err := repo.FindAllActive(context.Background(), owner.ID)
	require.NoError(t, err)

	names := make([]string, 0, len(patients))
	for _, p := range patients {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Ana", "Bruno", "Carla"}, names)

	none, err := repo.FindAllActive(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPatientRepository_CrossOwnerAccess(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	intruder := createUser(t, db, "intruder@example.com")
	patient := createPatient(t, db, owner.ID, "Ana")

	_, err := repo.FindByID(ctx, patient.ID, intruder.ID)
	assert.ErrorIs(t, err, repository.ErrPatientNotFound)

	rows, err := repo.Update(ctx, patient.ID, intruder.ID, map[string]any{"name": "Hijacked"})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Delete(ctx, patient.ID, intruder.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	found, err := repo.FindByID(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
	assert.False(t, found.IsDeleted())
}

func TestPatientRepository_SoftDeleteRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	patient := createPatient(t, db, owner.ID, "Ana")
	createPatient(t, db, owner.ID, "Bruno")

	rows, err := repo.Delete(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	active, err := repo.FindAllActive(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Bruno", active[0].Name)

	_, err = repo.FindByID(ctx, patient.ID, owner.ID)
	assert.ErrorIs(t, err, repository.ErrPatientNotFound)

	raw, err := repo.FindByIDUnscoped(ctx, patient.ID)
	require.NoError(t, err)
	assert.True(t, raw.IsDeleted())
	assert.WithinDuration(t, time.Now(), raw.DeletedAt.Time, time.Minute)

	// Deleting again touches nothing
	rows, err = repo.Delete(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Update(ctx, patient.ID, owner.ID, map[string]any{"name": "Ghost"})
	require.NoError(t, err)
	assert.Zero(t, rows)

	assert.Equal(t, int64(2), countRows(t, db.Unscoped(), &models.Patient{}))
}

func TestPatientRepository_CreateForMissingOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPatientRepository(db)

	err := repo.Create(context.Background(), &models.Patient{UserID: "no-such-user", Name: "Orphan"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Zero(t, countRows(t, db.Unscoped(), &models.Patient{}))
}

func TestPatientRepository_UpdateTouchesOnlyGivenFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPatientRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")

	email := "ana@example.com"
	patient := &models.Patient{UserID: owner.ID, Name: "Ana", Email: &email}
	require.NoError(t, repo.Create(ctx, patient))

	phone := "+55 11 99999-0000"
	rows, err := repo.Update(ctx, patient.ID, owner.ID, map[string]any{"phone": phone})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.FindByID(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
	require.NotNil(t, found.Email)
	assert.Equal(t, email, *found.Email)
	require.NotNil(t, found.Phone)
	assert.Equal(t, phone, *found.Phone)
	assert.Nil(t, found.BirthDate)
}

// ==================== SESSION REPOSITORY TESTS ====================

func TestSessionRepository_ListByPatient(t *testing.T) {
	db := testutil.NewTestDB(t)
	sessions := repository.NewSessionRepository(db)
	patients := repository.NewPatientRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	patient := createPatient(t, db, owner.ID, "Ana")

	base := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, sessions.Create(ctx, &models.Session{
			UserID:    owner.ID,
			PatientID: patient.ID,
			StartTime: start,
			EndTime:   start.Add(50 * time.Minute),
			Value:     150,
		}))
	}

	list, err := sessions.ListByPatient(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].StartTime.After(list[1].StartTime))
	assert.Equal(t, models.SessionStatusScheduled, list[0].Status)

	foreign, err := sessions.ListByPatient(ctx, patient.ID, other.ID)
	require.NoError(t, err)
	assert.Empty(t, foreign)

	// Sessions of a soft-deleted patient drop out of the list but stay reachable by id
	_, err = patients.Delete(ctx, patient.ID, owner.ID)
	require.NoError(t, err)

	list, err = sessions.ListByPatient(ctx, patient.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	var stored models.Session
	require.NoError(t, db.Where("patient_id = ?", patient.ID).First(&stored).Error)
	found, err := sessions.FindByID(ctx, stored.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, found.PatientID)
}

func TestSessionRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSessionRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	intruder := createUser(t, db, "intruder@example.com")
	patient := createPatient(t, db, owner.ID, "Ana")

	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	session := &models.Session{UserID: owner.ID, PatientID: patient.ID, StartTime: start, EndTime: start.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	rows, err := repo.Update(ctx, session.ID, intruder.ID, map[string]any{"status": models.SessionStatusCanceled})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Update(ctx, session.ID, owner.ID, map[string]any{"status": models.SessionStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.FindByID(ctx, session.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, found.Status)

	_, err = repo.FindByID(ctx, session.ID, intruder.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	rows, err = repo.Delete(ctx, session.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repo.FindByID(ctx, session.ID, owner.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.Equal(t, int64(1), countRows(t, db.Unscoped(), &models.Session{}))
}
