package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/gqlprobe/internal/fakegql"
	"github.com/saturnines/gqlprobe/pkg/config"
	"github.com/saturnines/gqlprobe/pkg/errors"
)

func settingsFor(t *testing.T, endpoint string, props map[string]string) *config.Settings {
	t.Helper()
	p := map[string]string{config.KeyBaseURL: endpoint}
	for k, v := range props {
		p[k] = v
	}
	s, err := config.Load(config.NewResolver(
		config.WithFile(filepath.Join(t.TempDir(), "absent.properties")),
		config.WithProperties(p),
		config.WithLookupEnv(func(string) (string, bool) { return "", false }),
	))
	require.NoError(t, err)
	return s
}

func newHarness(t *testing.T, server *fakegql.Server, opts ...Option) *Harness {
	t.Helper()
	h, err := New(settingsFor(t, server.URL, nil), opts...)
	require.NoError(t, err)
	return h
}

func TestScenario_Lifecycle(t *testing.T) {
	server := fakegql.New(t)
	h := newHarness(t, server)
	ctx := context.Background()

	s := h.NewScenario("create-user")
	assert.Equal(t, StateBuilding, s.State())

	user := s.Data().UserWithPrefix("CreateTest")
	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("createUser").
		Arguments(user.Arguments()...).
		Fields("id", "firstName"))
	require.NoError(t, err)
	require.NoError(t, s.AssertValid(resp))
	assert.Equal(t, StateExecuted, s.State())

	id, err := s.RequireInt(resp, "data.createUser.id")
	require.NoError(t, err)
	name, err := s.RequireString(resp, "data.createUser.firstName")
	require.NoError(t, err)
	assert.Equal(t, user.FirstName, name)

	s.Track(id)
	_, exists := server.User(id)
	require.True(t, exists)

	s.Teardown(ctx)
	assert.Equal(t, StateCleaned, s.State())
	_, exists = server.User(id)
	assert.False(t, exists, "tracked user should be deleted at teardown")

	_, err = s.Execute(ctx, s.NewBuilder().QueryOperation("getAllUsers").Fields("id"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestScenario_ExecuteKeepsExecutedAcrossSteps(t *testing.T) {
	server := fakegql.New(t)
	s := newHarness(t, server).NewScenario("multi-step")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := s.Execute(ctx, s.NewBuilder().QueryOperation("getAllUsers").Fields("id"))
		require.NoError(t, err)
		require.NoError(t, s.AssertValid(resp))
		assert.Equal(t, StateExecuted, s.State())
	}
}

func TestScenario_BuildErrorNeverReachesNetwork(t *testing.T) {
	server := fakegql.New(t)
	s := newHarness(t, server).NewScenario("broken")

	_, err := s.Execute(context.Background(), s.NewBuilder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBuild))
	assert.Empty(t, server.Requests())
	assert.Equal(t, StateBuilding, s.State())
}

func TestScenario_RemoteErrorsFailAssertion(t *testing.T) {
	server := fakegql.New(t)
	s := newHarness(t, server).NewScenario("update-missing")

	resp, err := s.Execute(context.Background(), s.NewBuilder().
		MutationOperation("updateUser").
		Argument("id", 999).
		Argument("firstName", "Denver").
		Fields("id"))
	require.NoError(t, err)

	require.NoError(t, s.AssertStatus(resp, http.StatusOK))
	err = s.AssertValid(resp)
	assert.True(t, errors.Is(err, errors.ErrRemote))
	assert.Contains(t, err.Error(), "User not found: 999")
}

func TestScenario_AssertStatus(t *testing.T) {
	server := fakegql.New(t)
	server.RespondWith(http.StatusServiceUnavailable)
	s := newHarness(t, server).NewScenario("unavailable")

	resp, err := s.Execute(context.Background(), s.NewBuilder().QueryOperation("getAllUsers").Fields("id"))
	require.NoError(t, err)

	err = s.AssertValid(resp)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "expected status code 200 but got 503")
}

func TestScenario_Extract(t *testing.T) {
	server := fakegql.New(t)
	s := newHarness(t, server).NewScenario("extract")

	resp, err := s.Execute(context.Background(), s.NewBuilder().QueryOperation("getAllUsers").Fields("firstName", "id"))
	require.NoError(t, err)

	names, ok := s.Extract(resp, "data.getAllUsers.firstName")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Wilbur", "Oriana", "Brade", "Sebastian"}, names)

	_, ok = s.Extract(resp, "data.getUser.firstName")
	assert.False(t, ok)

	_, err = s.Require(resp, "data.getUser.firstName")
	assert.True(t, errors.Is(err, errors.ErrExtraction))

	_, err = s.RequireInt(resp, "data.getAllUsers[0].firstName")
	assert.True(t, errors.Is(err, errors.ErrExtraction))
}

func TestScenario_TeardownIsBestEffort(t *testing.T) {
	server := fakegql.New(t)
	server.Seed(fakegql.User{ID: 5, FirstName: "Five"}, fakegql.User{ID: 6, FirstName: "Six"})
	server.FailDelete(5)

	var buf bytes.Buffer
	h := newHarness(t, server, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	s := h.NewScenario("cleanup")
	s.Track(5)
	s.Track(6)

	assert.NotPanics(t, func() { s.Teardown(context.Background()) })

	assert.Equal(t, 0, s.Tracker().Len())
	_, five := server.User(5)
	_, six := server.User(6)
	assert.True(t, five, "failed deletion leaves the user in place")
	assert.False(t, six)
	assert.Contains(t, buf.String(), "cannot delete user 5")

	var deletes int
	for _, r := range server.Requests() {
		if strings.Contains(r.Query, "deleteUser(id: ") {
			deletes++
			assert.Contains(t, r.Query, "{\n    id\n  }")
		}
	}
	assert.Equal(t, 2, deletes)

	// A second teardown sends nothing.
	s.Teardown(context.Background())
	assert.Len(t, server.Requests(), 2)
}

func TestHarness_Run(t *testing.T) {
	server := fakegql.New(t)
	h := newHarness(t, server)
	ctx := context.Background()

	passed := h.Run(ctx, "ok", func(ctx context.Context, s *Scenario) error {
		resp, err := s.Execute(ctx, s.NewBuilder().MutationOperation("createUser").
			Argument("firstName", "Ann").Argument("lastName", "Lee").Fields("id"))
		if err != nil {
			return err
		}
		id, err := s.RequireInt(resp, "data.createUser.id")
		if err != nil {
			return err
		}
		s.Track(id)
		return nil
	})
	assert.True(t, passed.Passed)
	assert.NoError(t, passed.Err)
	assert.Len(t, server.Users(), 4, "created user removed by teardown")

	failed := h.Run(ctx, "fails", func(ctx context.Context, s *Scenario) error {
		return fmt.Errorf("expected Denver")
	})
	assert.False(t, failed.Passed)

	panicked := h.Run(ctx, "panics", func(ctx context.Context, s *Scenario) error {
		panic("nil map")
	})
	assert.False(t, panicked.Passed)
	assert.True(t, errors.Is(panicked.Err, errors.ErrValidation))
}

func TestHarness_RunCleansUpAfterCancel(t *testing.T) {
	server := fakegql.New(t)
	h := newHarness(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var created int
	res := h.Run(ctx, "interrupted", func(ctx context.Context, s *Scenario) error {
		resp, err := s.Execute(ctx, s.NewBuilder().MutationOperation("createUser").
			Argument("firstName", "Ann").Argument("lastName", "Lee").Fields("id"))
		if err != nil {
			return err
		}
		id, err := s.RequireInt(resp, "data.createUser.id")
		if err != nil {
			return err
		}
		created = id
		s.Track(id)
		cancel()
		return ctx.Err()
	})

	assert.False(t, res.Passed)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	require.NotZero(t, created)
	_, exists := server.User(created)
	assert.False(t, exists, "user %d should be deleted even though the run was cancelled", created)
}

func TestHarness_SchemaFromSettings(t *testing.T) {
	server := fakegql.New(t)
	schemaFile := filepath.Join("..", "transport", "graphql", "testdata", "users.graphql")
	h, err := New(settingsFor(t, server.URL, map[string]string{config.KeySchemaFile: schemaFile}))
	require.NoError(t, err)

	s := h.NewScenario("schema")
	_, err = s.Execute(context.Background(), s.NewBuilder().
		MutationOperation("signIn").
		Argument("username", "AdminUser1").
		Argument("authToken", "t").
		Fields("token"))
	assert.True(t, errors.Is(err, errors.ErrBuild))
	assert.Empty(t, server.Requests())
}

func TestHarness_Errors(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	s := settingsFor(t, "http://localhost:1/graphql", map[string]string{config.KeySchemaFile: "missing.graphql"})
	_, err = New(s)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestReport(t *testing.T) {
	var r Report
	assert.True(t, r.Passed())

	r.Add(Result{Name: "get-all-users", Passed: true})
	r.Add(Result{Name: "update-user", Err: fmt.Errorf("boom")})

	assert.False(t, r.Passed())
	require.Len(t, r.Failed(), 1)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "PASS  get-all-users")
	assert.Contains(t, out, "FAIL  update-user")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "building", StateBuilding.String())
	assert.Equal(t, "executed", StateExecuted.String())
	assert.Equal(t, "cleaned", StateCleaned.String())
}
