package instance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"taxcal/internal/calendar/models"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
)

type InstanceStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	org   id.OrgID
}

func TestInstanceStoreSuite(t *testing.T) {
	suite.Run(t, new(InstanceStoreSuite))
}

func (s *InstanceStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.org = id.OrgID(uuid.New())
}

func (s *InstanceStoreSuite) newInstance(templateID id.TemplateID, start, end time.Time) *models.Instance {
	now := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	inst, err := models.NewInstance(
		id.InstanceID(uuid.New()), templateID, s.org,
		start, end, end.AddDate(0, 0, 20), models.InstanceMeta{}, now,
	)
	s.Require().NoError(err)
	return inst
}

func (s *InstanceStoreSuite) TestPeriodUniqueness() {
	templateID := id.TemplateID(uuid.New())
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	s.Run("first create succeeds", func() {
		s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.newInstance(templateID, start, end)))
	})

	s.Run("same (template, period) conflicts even with a new id", func() {
		err := s.store.CreateIfAbsent(s.ctx, s.newInstance(templateID, start, end))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		count, err := s.store.CountByOrg(s.ctx, s.org)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("different period for the same template is fine", func() {
		next := s.newInstance(templateID, end, end.AddDate(0, 1, 0))
		s.Require().NoError(s.store.CreateIfAbsent(s.ctx, next))
	})

	s.Run("same period for a different template is fine", func() {
		other := s.newInstance(id.TemplateID(uuid.New()), start, end)
		s.Require().NoError(s.store.CreateIfAbsent(s.ctx, other))
	})
}

func (s *InstanceStoreSuite) TestOrgScoping() {
	inst := s.newInstance(id.TemplateID(uuid.New()),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, inst))

	s.Run("finds within the owning org", func() {
		found, err := s.store.FindByID(s.ctx, inst.ID, s.org)
		s.Require().NoError(err)
		s.Equal(inst.ID, found.ID)
	})

	s.Run("another org sees not found", func() {
		_, err := s.store.FindByID(s.ctx, inst.ID, id.OrgID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InstanceStoreSuite) TestListByOrgFiltersAndOrders() {
	tmpl := id.TemplateID(uuid.New())
	jan := s.newInstance(tmpl,
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	feb := s.newInstance(tmpl,
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, feb))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, jan))

	all, err := s.store.ListByOrg(s.ctx, s.org, time.Time{}, time.Time{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.True(all[0].DueAt.Before(all[1].DueAt), "ordered by due date")

	windowed, err := s.store.ListByOrg(s.ctx, s.org,
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(windowed, 1)
	s.Equal(feb.ID, windowed[0].ID)
}

func (s *InstanceStoreSuite) TestMarkOverdueBefore() {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	past := s.newInstance(id.TemplateID(uuid.New()),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	future := s.newInstance(id.TemplateID(uuid.New()),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	done := s.newInstance(id.TemplateID(uuid.New()),
		time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC))
	done.ApplyDone(now, id.UserID(uuid.New()), "")

	for _, inst := range []*models.Instance{past, future, done} {
		s.Require().NoError(s.store.CreateIfAbsent(s.ctx, inst))
	}

	changed, err := s.store.MarkOverdueBefore(s.ctx, s.org, now)
	s.Require().NoError(err)
	s.EqualValues(1, changed)

	s.Run("past-due upcoming became overdue", func() {
		got, err := s.store.FindByID(s.ctx, past.ID, s.org)
		s.Require().NoError(err)
		s.Equal(models.StatusOverdue, got.Status)
	})

	s.Run("future-due stays upcoming", func() {
		got, err := s.store.FindByID(s.ctx, future.ID, s.org)
		s.Require().NoError(err)
		s.Equal(models.StatusUpcoming, got.Status)
	})

	s.Run("done is untouched regardless of due date", func() {
		got, err := s.store.FindByID(s.ctx, done.ID, s.org)
		s.Require().NoError(err)
		s.Equal(models.StatusDone, got.Status)
	})

	s.Run("a second sweep changes nothing", func() {
		changed, err := s.store.MarkOverdueBefore(s.ctx, s.org, now)
		s.Require().NoError(err)
		s.EqualValues(0, changed)
	})
}

func (s *InstanceStoreSuite) TestExecute() {
	inst := s.newInstance(id.TemplateID(uuid.New()),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, inst))
	now := time.Now()

	s.Run("applies mutation and returns the updated copy", func() {
		updated, err := s.store.Execute(s.ctx, inst.ID, s.org, nil, func(i *models.Instance) {
			i.ApplyStart(now)
		})
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, updated.Status)
	})

	s.Run("validation failure leaves the instance unchanged", func() {
		_, err := s.store.Execute(s.ctx, inst.ID, s.org,
			func(i *models.Instance) error { return sentinel.ErrInvalidState },
			func(i *models.Instance) { i.ApplySkip(now, "") },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		got, err := s.store.FindByID(s.ctx, inst.ID, s.org)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, got.Status)
	})

	s.Run("unknown instance is not found", func() {
		_, err := s.store.Execute(s.ctx, id.InstanceID(uuid.New()), s.org, nil, func(i *models.Instance) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
