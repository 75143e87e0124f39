package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	lastCall WindowParams
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, params WindowParams) ([]TimelineRow, error) {
	s.lastCall = params
	return s.rows, nil
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		rows: []TimelineRow{
			mockRow("2024-03-10T10:00:00Z", "admin@school.test", "permissions.roles.update", "role", "TEACHER"),
			mockRow("2024-03-09T09:00:00Z", "admin@school.test", "permissions.hierarchy.upsert", "role_hierarchy", "ADMIN>PRINCIPAL"),
			mockRow("2024-03-08T08:00:00Z", "admin@school.test", "permissions.create", "permission", "42"),
		},
	}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Equal(t, 3, repo.lastCall.Limit)
	assert.Equal(t, 0, repo.lastCall.Offset)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, 2, result.Paging.PrevPage)
	assert.Equal(t, 100, repo.lastCall.Offset)
	assert.Equal(t, maxPageSize+1, repo.lastCall.Limit)
	assert.NotNil(t, result.Rows)
	assert.False(t, result.Paging.HasNext)
}

func TestServiceTimelineWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	require.Error(t, err)
}

func TestEntryValidation(t *testing.T) {
	assert.Error(t, Entry{Action: "x", Entity: "y"}.validate())
	assert.NoError(t, Entry{Action: "x", Entity: "y", EntityID: "1"}.validate())
}

func mockRow(ts, actor, action, entity, entityID string) TimelineRow {
	at, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: at, Actor: actor, Action: action, Entity: entity, EntityID: entityID}
}
