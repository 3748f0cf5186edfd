package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
	"attendance-tracker/internal/repository/sqlite"
)

// fixedNow is the clock used by record service tests.
var fixedNow = time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	users    repository.UserRepository
	records  repository.RecordRepository
	userSvc  UserService
	recSvc   RecordService
	verifier VerificationService
	reports  ReportService
	admin    domain.Caller
	members  map[string]domain.Caller
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestEnv(t *testing.T, memberNames ...string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	env := &testEnv{
		users:   sqlite.NewUserRepository(db),
		records: sqlite.NewRecordRepository(db, time.UTC),
		members: map[string]domain.Caller{},
	}
	env.wire(env.records)

	admin, err := env.userSvc.Bootstrap(ctx, NewUserInput{Username: "boss", Password: "password1", Password2: "password1", Email: "boss@qq.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	env.admin = domain.CallerFromUser(admin)

	for _, name := range memberNames {
		u, err := env.userSvc.Bootstrap(ctx, NewUserInput{Username: name, Password: "password1", Password2: "password1", Email: name + "@qq.com"})
		require.NoError(t, err)
		env.members[name] = domain.CallerFromUser(u)
	}
	return env
}

// wire (re)builds the services on top of records, so tests can swap in a
// failing repository.
func (e *testEnv) wire(records repository.RecordRepository) {
	log := quietLogger()
	e.userSvc = NewUserService(e.users, UserServiceConfig{EmailDomain: "qq.com"}, log)
	e.recSvc = NewRecordService(records, e.users, time.UTC, log, WithClock(func() time.Time { return fixedNow }))
	e.verifier = NewVerificationService(records, log)
	e.reports = NewReportService(records)
}

// seed inserts a verified record directly through the repository.
func (e *testEnv) seed(t *testing.T, rec domain.Record) string {
	t.Helper()
	ctx := context.Background()
	id, err := e.records.Insert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, e.records.SetVerified(ctx, rec.Kind(), id))
	return id
}

func (e *testEnv) owner(name string) domain.OwnerRef {
	return e.members[name].Owner()
}

func clock(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func shift(start, end time.Time) domain.Window {
	return domain.Window{Start: start, End: end}
}

func january() domain.DateRange {
	return domain.DateRange{From: clock(1, 0, 0), To: clock(31, 0, 0)}
}
