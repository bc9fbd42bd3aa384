package commands_test

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hexmap/cmd/hexmap/commands"
	"go.trai.ch/hexmap/internal/adapters/logger"
	"go.trai.ch/hexmap/internal/adapters/session"
	"go.trai.ch/hexmap/internal/adapters/sqlite"
	"go.trai.ch/hexmap/internal/adapters/telemetry"
	"go.trai.ch/hexmap/internal/adapters/viewstate"
	"go.trai.ch/hexmap/internal/app"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/engine/dragdrop"
	"go.trai.ch/hexmap/internal/engine/interaction"
	"go.trai.ch/hexmap/internal/engine/tilecache"
)

// newComponents assembles the real stack over a temporary database signed in as user.
func newComponents(t *testing.T, user domain.CurrentUser) *app.Components {
	t.Helper()
	dir := t.TempDir()

	repo, err := sqlite.Open(filepath.Join(dir, "tiles.db"))
	require.NoError(t, err)

	views, err := viewstate.NewStore(filepath.Join(dir, "view_state.json"))
	require.NoError(t, err)

	log := logger.New()
	log.SetOutput(io.Discard)

	tracer := telemetry.NewNoOpTracer()
	sessions := session.NewStatic(user)
	store := tilecache.New(repo, tracer, log, tilecache.Options{FreshnessWindow: time.Minute})
	tracker := interaction.New(store)
	drag := dragdrop.New(store, tracker, sessions, repo, tracer, log, dragdrop.Options{MoveTimeout: 5 * time.Second})
	a := app.New(store, tracker, drag, views, tracer, log, app.Options{PrefetchParallelism: 4})

	c := app.NewComponents(a, log, domain.DefaultSettings(), repo, sessions)
	t.Cleanup(func() {
		_ = c.Close(context.Background())
	})
	return c
}

// execute runs one CLI invocation and returns what it printed.
func execute(t *testing.T, c *app.Components, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := commands.New(c)
	cli.SetOutput(&out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, c *app.Components, args ...string) string {
	t.Helper()
	out, err := execute(t, c, args...)
	require.NoError(t, err)
	return out
}

func lines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestVersion(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	assert.Equal(t, "hexmap version dev\n", mustExecute(t, c, "version"))
}

func TestSeed(t *testing.T) {
	c := newComponents(t, domain.Anonymous)

	out := mustExecute(t, c, "seed", "1-1", "--depth", "1")
	assert.Equal(t, "seeded 7 tiles under 1-1\n", out)

	coords, err := c.Repository.Subtree(context.Background(), domain.RootCoord(1, 1))
	require.NoError(t, err)
	assert.Len(t, coords, 7)

	rec, err := c.Repository.FetchTile(context.Background(), domain.RootCoord(1, 1))
	require.NoError(t, err)
	assert.Equal(t, "1", rec.OwnerID, "owner defaults to the map's user")
}

func TestSeed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"malformed key", []string{"seed", "nope"}, domain.ErrMalformedKey},
		{"depth too large", []string{"seed", "1-1", "--depth", "9"}, sqlite.ErrSeedDepth},
		{"owner not an id", []string{"seed", "1-1", "--owner", "alice"}, domain.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComponents(t, domain.Anonymous)
			_, err := execute(t, c, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestShow(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	mustExecute(t, c, "seed", "1-1", "--depth", "1")

	out := mustExecute(t, c, "show", "1-1")
	got := lines(out)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "▸ 1-1 "), got[0])
	assert.Contains(t, got[0], "elevation=")
	assert.True(t, strings.HasSuffix(got[0], " owner=1"), got[0])
}

func TestShow_MissingMap(t *testing.T) {
	c := newComponents(t, domain.Anonymous)

	_, err := execute(t, c, "show", "4-4")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpand_ThenShow(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	mustExecute(t, c, "seed", "1-1", "--depth", "1")

	assert.Equal(t, "1-1 expanded\n", mustExecute(t, c, "expand", "1-1"))

	got := lines(mustExecute(t, c, "show", "1-1"))
	require.Len(t, got, 7)
	assert.True(t, strings.HasPrefix(got[0], "▾ 1-1 "), got[0])
	for i, d := range domain.Directions {
		key := domain.RootCoord(1, 1).MustChild(d).String()
		assert.True(t, strings.HasPrefix(got[i+1], "    "+key+" "), got[i+1])
	}

	assert.Equal(t, "1-1 collapsed\n", mustExecute(t, c, "expand", "1-1"))
	assert.Len(t, lines(mustExecute(t, c, "show", "1-1")), 1)
}

func TestExpand_RevealsAncestors(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	mustExecute(t, c, "seed", "1-1", "--depth", "2")

	out := mustExecute(t, c, "expand", "1-1-3", "1-1-30")
	assert.Equal(t, "1-1-3 expanded\n1-1-30 has no children\n", out)

	got := lines(mustExecute(t, c, "show", "1-1"))
	assert.Len(t, got, 1+6+6)
}

func TestExpand_OtherMap(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	mustExecute(t, c, "seed", "1-1", "--depth", "1")

	_, err := execute(t, c, "expand", "1-1", "2-2")
	assert.ErrorIs(t, err, domain.ErrNoMapOpen)
}

func TestShow_JSON(t *testing.T) {
	c := newComponents(t, domain.Anonymous)
	mustExecute(t, c, "seed", "1-1", "--depth", "1")
	mustExecute(t, c, "expand", "1-1")

	out := mustExecute(t, c, "show", "1-1", "--json")

	var views []map[string]any
	require.NoError(t, sonic.Unmarshal([]byte(out), &views))
	require.Len(t, views, 7)

	assert.Equal(t, "1-1", views[0]["key"])
	assert.Equal(t, "tile-1-1", views[0]["test_id"])
	assert.Equal(t, "ready", views[0]["visual"])
	assert.EqualValues(t, 0, views[0]["depth"])
	assert.EqualValues(t, 1, views[1]["depth"])

	terrain, ok := views[0]["terrain"].(map[string]any)
	require.True(t, ok, "seeded tiles carry terrain")
	assert.NotEmpty(t, terrain["biome"])

	flags, ok := views[0]["flags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, flags["is_expanded"])
}

func TestMove(t *testing.T) {
	c := newComponents(t, domain.UserOf(1))
	mustExecute(t, c, "seed", "1-1", "--depth", "1")

	out := mustExecute(t, c, "move", "1-1-1", "1-1-05")
	assert.Equal(t, "moved 1-1-1 to 1-1-05\n", out)

	ctx := context.Background()
	_, err := c.Repository.FetchTile(ctx, domain.MustDecode("1-1-1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rec, err := c.Repository.FetchTile(ctx, domain.MustDecode("1-1-05"))
	require.NoError(t, err)
	assert.Equal(t, "1", rec.OwnerID)
}

func TestMove_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		user    domain.CurrentUser
		args    []string
		targets []error
	}{
		{
			name:    "occupied slot",
			user:    domain.UserOf(1),
			args:    []string{"move", "1-1-1", "1-1-2"},
			targets: []error{domain.ErrMutationRejected, domain.ErrConflict},
		},
		{
			name:    "into own subtree",
			user:    domain.UserOf(1),
			args:    []string{"move", "1-1-0", "1-1-03"},
			targets: []error{domain.ErrInvalidMove},
		},
		{
			name:    "other user",
			user:    domain.UserOf(2),
			args:    []string{"move", "1-1-1", "1-1-05"},
			targets: []error{domain.ErrPermissionDenied},
		},
		{
			name:    "anonymous",
			user:    domain.Anonymous,
			args:    []string{"move", "1-1-1", "1-1-05"},
			targets: []error{domain.ErrPermissionDenied},
		},
		{
			name:    "across maps",
			user:    domain.UserOf(1),
			args:    []string{"move", "1-1-1", "1-2-0"},
			targets: []error{domain.ErrInvalidMove},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComponents(t, tt.user)
			mustExecute(t, c, "seed", "1-1", "--depth", "1")

			_, err := execute(t, c, tt.args...)
			require.Error(t, err)
			for _, target := range tt.targets {
				assert.ErrorIs(t, err, target)
			}

			coords, err := c.Repository.Subtree(context.Background(), domain.RootCoord(1, 1))
			require.NoError(t, err)
			assert.Len(t, coords, 7, "a rejected move leaves the map unchanged")
		})
	}
}
