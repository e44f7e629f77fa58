//go:build integration

package instance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"taxcal/internal/calendar/models"
	"taxcal/internal/calendar/store"
	instancestore "taxcal/internal/calendar/store/instance"
	profilestore "taxcal/internal/calendar/store/profile"
	templatestore "taxcal/internal/calendar/store/template"
	id "taxcal/pkg/domain"
	"taxcal/pkg/platform/sentinel"
	"taxcal/pkg/testutil/containers"
)

type PostgresInstanceSuite struct {
	suite.Suite
	ctx       context.Context
	pg        *containers.PostgresContainer
	store     *instancestore.PostgresStore
	profiles  *profilestore.PostgresStore
	templates *templatestore.PostgresStore
	org       id.OrgID
	template  *models.Template
	now       time.Time
}

func TestPostgresInstanceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(PostgresInstanceSuite))
}

func (s *PostgresInstanceSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.Migrate(s.ctx, s.pg.Pool))
	s.store = instancestore.NewPostgres(s.pg.Pool)
	s.profiles = profilestore.NewPostgres(s.pg.Pool)
	s.templates = templatestore.NewPostgres(s.pg.Pool)
}

func (s *PostgresInstanceSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx,
		"event_attachments", "event_instances", "event_templates", "compliance_profiles", "generation_marks"))

	s.org = id.OrgID(uuid.New())
	s.now = time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC)

	profile, err := models.NewProfile(id.ProfileID(uuid.New()), s.org, "AU", "company", models.Settings{}, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.profiles.Upsert(s.ctx, profile))

	s.template, err = models.NewTemplate(id.TemplateID(uuid.New()), profile.ID, s.org,
		"Monthly close", models.KindTask, "FREQ=MONTHLY;INTERVAL=1", 10, "", models.RuleMeta{}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.templates.Create(s.ctx, s.template))
}

func (s *PostgresInstanceSuite) newInstance(periodStart, periodEnd time.Time) *models.Instance {
	inst, err := models.NewInstance(id.InstanceID(uuid.New()), s.template.ID, s.org,
		periodStart, periodEnd, periodEnd.AddDate(0, 0, 10), models.InstanceMeta{}, s.now)
	s.Require().NoError(err)
	return inst
}

func (s *PostgresInstanceSuite) date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresInstanceSuite) TestPeriodUniqueness() {
	start := s.date(2025, time.January, 1)
	end := s.date(2025, time.February, 1)

	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.newInstance(start, end)))

	err := s.store.CreateIfAbsent(s.ctx, s.newInstance(start, end))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	count, err := s.store.CountByOrg(s.ctx, s.org)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Run("different period is fine", func() {
		s.Require().NoError(s.store.CreateIfAbsent(s.ctx,
			s.newInstance(end, s.date(2025, time.March, 1))))
	})
}

func (s *PostgresInstanceSuite) TestFindScopedToOrganization() {
	inst := s.newInstance(s.date(2025, time.January, 1), s.date(2025, time.February, 1))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, inst))

	found, err := s.store.FindByID(s.ctx, inst.ID, s.org)
	s.Require().NoError(err)
	s.Equal(inst.ID, found.ID)
	s.Equal(models.StatusUpcoming, found.Status)

	_, err = s.store.FindByID(s.ctx, inst.ID, id.OrgID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInstanceSuite) TestMarkOverdueBefore() {
	past := s.newInstance(s.date(2025, time.January, 1), s.date(2025, time.February, 1))
	future := s.newInstance(s.date(2025, time.June, 1), s.date(2025, time.July, 1))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, past))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, future))

	moved, err := s.store.MarkOverdueBefore(s.ctx, s.org, s.now)
	s.Require().NoError(err)
	s.Equal(int64(1), moved)

	swept, err := s.store.FindByID(s.ctx, past.ID, s.org)
	s.Require().NoError(err)
	s.Equal(models.StatusOverdue, swept.Status)

	untouched, err := s.store.FindByID(s.ctx, future.ID, s.org)
	s.Require().NoError(err)
	s.Equal(models.StatusUpcoming, untouched.Status)

	s.Run("second sweep moves nothing", func() {
		moved, err := s.store.MarkOverdueBefore(s.ctx, s.org, s.now)
		s.Require().NoError(err)
		s.Zero(moved)
	})
}

func (s *PostgresInstanceSuite) TestExecuteLifecycle() {
	inst := s.newInstance(s.date(2025, time.May, 1), s.date(2025, time.June, 1))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, inst))
	user := id.UserID(uuid.New())

	updated, err := s.store.Execute(s.ctx, inst.ID, s.org,
		func(i *models.Instance) error { return i.CanComplete() },
		func(i *models.Instance) { i.ApplyDone(s.now, user, "lodged") },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusDone, updated.Status)
	s.Equal(user, updated.DoneBy)
	s.Require().NotNil(updated.DoneAt)
	s.Equal("lodged", updated.Note)

	s.Run("validation failure leaves the row unchanged", func() {
		_, err := s.store.Execute(s.ctx, inst.ID, s.org,
			func(i *models.Instance) error { return sentinel.ErrInvalidState },
			func(i *models.Instance) { i.ApplySkip(s.now, "") },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		reread, err := s.store.FindByID(s.ctx, inst.ID, s.org)
		s.Require().NoError(err)
		s.Equal(models.StatusDone, reread.Status)
	})
}

func (s *PostgresInstanceSuite) TestListOrderedByDueAt() {
	feb := s.newInstance(s.date(2025, time.February, 1), s.date(2025, time.March, 1))
	jan := s.newInstance(s.date(2025, time.January, 1), s.date(2025, time.February, 1))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, feb))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, jan))

	listed, err := s.store.ListByOrg(s.ctx, s.org, s.date(2025, time.January, 1), s.date(2026, time.January, 1))
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(jan.ID, listed[0].ID)
	s.Equal(feb.ID, listed[1].ID)
}
