package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
	pdtest "github.com/teranos/pharmadex/internal/testing"
	"github.com/teranos/pharmadex/store"
	"github.com/teranos/pharmadex/version"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

// localConfig writes a config file pointing the store at a temp SQLite file.
func localConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "dex.db")
	cfgPath = filepath.Join(dir, "pharmadex.toml")
	body := fmt.Sprintf(`
[storage]
use_local = true
local_path = %q

[datasource]
type = "storage"

[marketdata]
api_key = ""
`, dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRoot_Commands(t *testing.T) {
	root := Root()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"server", "db", "marketdata", "version"})

	dbCmd, _, err := root.Find([]string{"db", "stats"})
	require.NoError(t, err)
	assert.Equal(t, "stats", dbCmd.Name())
}

func TestVersion_JSON(t *testing.T) {
	out, err := run(t, "version", "--json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Get().CommitHash, info.CommitHash)
	assert.NotEmpty(t, info.GoVersion)
}

func TestDB_MigrateSeedStats(t *testing.T) {
	cfgPath, dbPath := localConfig(t)

	_, err := run(t, "--config", cfgPath, "db", "migrate")
	require.NoError(t, err)
	_, err = run(t, "--config", cfgPath, "db", "seed")
	require.NoError(t, err)
	// seeding twice updates in place
	_, err = run(t, "--config", cfgPath, "db", "seed")
	require.NoError(t, err)
	out, err := run(t, "--config", cfgPath, "db", "stats", "--json")
	require.NoError(t, err)
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &counts), out)
	assert.Equal(t, 6, counts["companies"])
	assert.Equal(t, 8, counts["products"])

	sqlDB, err := db.Open(dbPath, nil)
	require.NoError(t, err)
	defer sqlDB.Close()

	var companies, areas int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM companies").Scan(&companies))
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM therapeutic_areas").Scan(&areas))
	assert.Equal(t, 6, companies)
	assert.Equal(t, 6, areas)
}

func TestDB_MigrateNeedsConnection(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "pharmadex.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[storage]
url = "postgres://db.example.com:5432/dex"
service_key = "your-service-key"
`), 0o600))

	_, err := run(t, "--config", cfgPath, "db", "migrate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrInvalidCredentials))
	assert.Contains(t, errors.GetAllHints(err), "set storage.url and storage.service_key, or storage.use_local = true")
}

func TestTableCounts(t *testing.T) {
	client := pdtest.CreateTestClient(t)
	ctx := t.Context()
	require.NoError(t, client.Insert(ctx, "companies",
		store.Row{"id": "c1", "slug": "acme", "name": "Acme"},
		store.Row{"id": "c2", "slug": "bio", "name": "Bio"},
	))

	counts, err := tableCounts(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["companies"])
	assert.Equal(t, 0, counts["products"])
	assert.Len(t, counts, len(directoryTables))
}

func TestMarketDataRefresh_NeedsAPIKey(t *testing.T) {
	cfgPath, _ := localConfig(t)
	_, err := run(t, "--config", cfgPath, "marketdata", "refresh")
	require.Error(t, err)
	assert.Contains(t, errors.GetAllHints(err), "set PHARMADEX_MARKETDATA_API_KEY or marketdata.api_key")
}
