package server

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/server/config"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreDriver = config.DriverMemory
	c.HTTPAddr = "127.0.0.1:0"
	c.HealthAddrGRPC = "127.0.0.1:0"
	c.EncryptionKey = "k"
	c.ShutdownTimeout = time.Second
	return c
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	c := testConfig()
	c.StoreDriver = "cassandra"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestNewApp_SQLite(t *testing.T) {
	c := testConfig()
	c.StoreDriver = config.DriverSQLite
	c.DatabaseDSN = "file:app_test?mode=memory&cache=shared"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, app.store.Ping(context.Background()))
	require.NoError(t, app.store.Close(context.Background()))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := logOutput
	t.Cleanup(func() { logOutput = old })
	logOutput = &buf
	return &buf
}

func TestNewApp_MissingKeyWarnedOnce(t *testing.T) {
	logs := captureLogs(t)
	c := testConfig()
	c.EncryptionKey = ""

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.Close(context.Background()) })

	ctx := context.Background()
	_, err = app.service.CreateContent(ctx, services.CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
	require.NoError(t, err)
	body := "B"
	_, err = app.service.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: &body}, services.ReplaceOptions{})
	require.NoError(t, err)

	out := logs.String()
	assert.Equal(t, 1, strings.Count(out, `"warning":"envelope-key-missing"`), out)
	assert.NotContains(t, out, "disabled by configuration")
	assert.Contains(t, out, `"ceiling":50`)
}

func TestNewApp_EncryptionDisabledWarnsAtStartup(t *testing.T) {
	logs := captureLogs(t)
	c := testConfig()
	c.EncryptionEnabled = false

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.Close(context.Background()) })

	out := logs.String()
	assert.Equal(t, 1, strings.Count(out, "disabled by configuration"), out)
	assert.NotContains(t, out, "envelope-key-missing")
}
