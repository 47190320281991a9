package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yusufkecer/fit-tracker-backend/internal/auth"
	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/metricschema"
	"github.com/yusufkecer/fit-tracker-backend/internal/repository/memory"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type fixture struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	weights  *service.WeightService
	metrics  *service.MetricService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "s", Issuer: "test"})
	require.NoError(t, err)
	log := zap.NewNop()
	return fixture{
		auth:     service.NewAuthService(store.Users(), auth.NewPasswordHasher(bcrypt.MinCost), tokens, log),
		profiles: service.NewProfileService(store.Users(), log),
		weights:  service.NewWeightService(store.Weights(), log),
		metrics:  service.NewMetricService(store.Metrics(), metricschema.Default(), log),
	}
}

func (f fixture) register(t *testing.T, username string) int64 {
	t.Helper()
	u, err := f.auth.Register(context.Background(), domain.RegisterRequest{Username: username, Password: "pw123456"})
	require.NoError(t, err)
	return u.ID
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, domain.RegisterRequest{Username: "  alice ", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "pw123456", u.PasswordHash)

	_, err = f.auth.Register(ctx, domain.RegisterRequest{Username: "alice", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	_, err = f.auth.Register(ctx, domain.RegisterRequest{Username: "Alice", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	var verr *domain.ValidationError
	_, err = f.auth.Register(ctx, domain.RegisterRequest{Username: "bob", Password: "short"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = f.auth.Register(ctx, domain.RegisterRequest{Username: strings.Repeat("x", 51), Password: "pw123456"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	_, err = f.auth.Login(ctx, domain.LoginRequest{Username: "alice", Password: "nope-nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, domain.LoginRequest{Username: "ghost", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	token, err := f.auth.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw123456"})
	require.NoError(t, err)

	got, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.auth.Authenticate(ctx, token+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	token, err := f.auth.Login(ctx, domain.LoginRequest{Username: "alice", Password: "pw123456"})
	require.NoError(t, err)
	u, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, f.profiles.Delete(ctx, u.ID))
	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLongPasswordsShareTruncatedPrefix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("a", 72)

	_, err := f.auth.Register(ctx, domain.RegisterRequest{Username: "alice", Password: long + "tail"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, domain.LoginRequest{Username: "alice", Password: long + "other"})
	assert.NoError(t, err)
}

func TestProfileUpdatePartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	name, gender := "Alice", domain.GenderFemale
	u, err := f.profiles.Update(ctx, id, domain.ProfileUpdate{FirstName: &name, Gender: &gender})
	require.NoError(t, err)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Nil(t, u.Age)

	age := 30
	u, err = f.profiles.Update(ctx, id, domain.ProfileUpdate{Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Equal(t, 30, *u.Age)

	for _, bad := range []domain.ProfileUpdate{
		{Age: ptr(0)},
		{Age: ptr(151)},
		{HeightCM: ptr(0.0)},
		{HeightCM: ptr(301.0)},
		{Gender: ptr("unknown")},
		{LastName: ptr(strings.Repeat("x", 101))},
	} {
		_, err := f.profiles.Update(ctx, id, bad)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	}

	_, err = f.profiles.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWeightDuplicateDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	first, err := f.weights.Create(ctx, id, domain.WeightCreate{Weight: 70, Date: "2026-01-01"})
	require.NoError(t, err)

	_, err = f.weights.Create(ctx, id, domain.WeightCreate{Weight: 71, Date: "2026-01-01"})
	require.ErrorIs(t, err, domain.ErrDuplicateDate)
	var dup *domain.DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)

	list, err := f.weights.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 70.0, list[0].Weight)
}

func TestWeightUpdateSameDateIsAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	w, err := f.weights.Create(ctx, id, domain.WeightCreate{Weight: 70, Date: "2026-01-01"})
	require.NoError(t, err)

	date, weight := "2026-01-01", 69.5
	updated, err := f.weights.Update(ctx, w.ID, id, domain.WeightUpdate{Weight: &weight, Date: &date})
	require.NoError(t, err)
	assert.Equal(t, 69.5, updated.Weight)

	negative := -1.0
	_, err = f.weights.Update(ctx, w.ID, id, domain.WeightUpdate{Weight: &negative})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCrossUserAccessIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	w, err := f.weights.Create(ctx, alice, domain.WeightCreate{Weight: 70, Date: "2026-01-01"})
	require.NoError(t, err)
	m, _, err := f.metrics.Create(ctx, alice, domain.MetricCreate{MetricType: "weight", Date: "2026-01-01", Value: json.RawMessage(`{"kg":70}`)})
	require.NoError(t, err)

	weight := 50.0
	_, err = f.weights.Update(ctx, w.ID, bob, domain.WeightUpdate{Weight: &weight})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.weights.Delete(ctx, w.ID, bob), domain.ErrForbidden)
	_, err = f.metrics.Update(ctx, m.ID, bob, domain.MetricUpdate{Value: json.RawMessage(`{"kg":50}`)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.metrics.Delete(ctx, m.ID, bob), domain.ErrForbidden)

	stored, err := f.weights.Get(ctx, w.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 70.0, stored.Weight)
	storedMetric, err := f.metrics.Get(ctx, m.ID, alice)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kg":70}`, string(storedMetric.Value))

	_, err = f.weights.Get(ctx, 999, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.metrics.Get(ctx, 999, bob)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMissingEntriesAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	weight := 50.0
	_, err := f.weights.Update(ctx, 999, alice, domain.WeightUpdate{Weight: &weight})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.weights.Delete(ctx, 999, alice), domain.ErrNotFound)

	_, err = f.metrics.Update(ctx, 999, alice, domain.MetricUpdate{Value: json.RawMessage(`{"kg":50}`)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.metrics.Delete(ctx, 999, alice), domain.ErrNotFound)
}

func TestMetricCreateUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	first, created, err := f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "weight", Date: "2026-01-01", Value: json.RawMessage(`{"kg": 60.0}`)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, `{"kg":60}`, string(first.Value))

	second, created, err := f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "weight", Date: "2026-01-01", Value: json.RawMessage(`{"kg":61}`)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	list, err := f.metrics.List(ctx, id, domain.MetricQuery{MetricType: "weight"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `{"kg":61}`, string(list[0].Value))
}

func TestMetricCreateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	_, _, err := f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "height", Date: "2026-01-01", Value: json.RawMessage(`{"cm":180}`)})
	var unknown *domain.UnknownMetricTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"muscle_index", "weight"}, unknown.Allowed)

	_, _, err = f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "muscle_index", Date: "2026-01-01", Value: json.RawMessage(`{"index":-1}`)})
	var invalid *domain.InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "index", invalid.Field)

	_, _, err = f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "weight", Date: "2026/01/01", Value: json.RawMessage(`{"kg":70}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	list, err := f.metrics.List(ctx, id, domain.MetricQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMetricUpdateKeepsType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	m, _, err := f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "muscle_index", Date: "2026-01-01", Value: json.RawMessage(`{"index":40}`)})
	require.NoError(t, err)

	_, err = f.metrics.Update(ctx, m.ID, id, domain.MetricUpdate{Value: json.RawMessage(`{"kg":70}`)})
	var invalid *domain.InvalidValueError
	require.ErrorAs(t, err, &invalid)

	date := "2026-02-01"
	updated, err := f.metrics.Update(ctx, m.ID, id, domain.MetricUpdate{Value: json.RawMessage(`null`), Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", updated.Date.String())
	assert.Equal(t, `{"index":40}`, string(updated.Value))
	assert.Equal(t, "muscle_index", updated.MetricType)
}

func TestMetricListQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "alice")

	_, _, err := f.metrics.Create(ctx, id, domain.MetricCreate{MetricType: "weight", Date: "2026-01-01", Value: json.RawMessage(`{"kg":70}`)})
	require.NoError(t, err)

	entries, err := f.metrics.List(ctx, id, domain.MetricQuery{MetricType: "bogus"})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = f.metrics.List(ctx, id, domain.MetricQuery{DateTo: "tomorrow"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date_to", verr.Field)
}

func TestCheckOwnership(t *testing.T) {
	var missing *domain.WeightEntry
	_, err := service.CheckOwnership(missing, 1, "weight entry")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "weight entry not found")

	w := &domain.WeightEntry{ID: 1, UserID: 2}
	_, err = service.CheckOwnership(w, 1, "weight entry")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := service.CheckOwnership(w, 2, "weight entry")
	require.NoError(t, err)
	assert.Same(t, w, got)
}

func ptr[T any](v T) *T { return &v }
