package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

func TestStudentRepositoryUpsertUpdatesExisting(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()

	first := models.Student{StudentID: "2025CS001", Name: "Asha", Email: "asha@example.edu", Program: "CS", Year: 1}
	require.NoError(t, repo.Upsert(ctx, &first))
	require.NotZero(t, first.ID)

	second := models.Student{StudentID: "2025CS001", Name: "Asha Verma", Program: "CS", Year: 2}
	require.NoError(t, repo.Upsert(ctx, &second))
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Asha Verma", second.Name)
	require.Equal(t, 2, second.Year)

	students, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, students, 1)
}

func TestStudentRepositoryListOrderedByStudentID(t *testing.T) {
	repo := NewStudentRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"2025ME010", "2025CS001", "2025EE005"} {
		student := models.Student{StudentID: id, Name: id}
		require.NoError(t, repo.Upsert(ctx, &student))
	}

	students, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "2025CS001", students[0].StudentID)
	require.Equal(t, "2025EE005", students[1].StudentID)

	_, err = repo.GetByStudentID(ctx, "nobody")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAuditLogRepositoryFilters(t *testing.T) {
	repo := NewAuditLogRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.AuditLog{Actor: "Dr. Rao", Action: "approved", ActivityID: "act-1"}))
	require.NoError(t, repo.Create(ctx, &models.AuditLog{Actor: "Dr. Rao", Action: "credential_issued", ActivityID: "act-1", Metadata: map[string]interface{}{"claim_id": "activity:act-1"}}))
	require.NoError(t, repo.Create(ctx, &models.AuditLog{Actor: "Prof. Iyer", Action: "rejected", ActivityID: "act-2"}))

	entries, err := repo.List(ctx, AuditLogFilter{ActivityID: "act-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "credential_issued", entries[0].Action, "expected newest entry first")
	require.Equal(t, "activity:act-1", entries[0].Metadata["claim_id"])

	entries, err = repo.List(ctx, AuditLogFilter{Action: "rejected"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
