package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvolt/internal/accessdevice"
	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/opdb/sqlite"
	"github.com/veesix-networks/osvolt/plugins/northbound/api"
)

func newTestCLI(t *testing.T) (*CLI, *accessdevice.Service, *bytes.Buffer) {
	t.Helper()

	uplink := uint32(65536)
	inv, err := accessdevice.NewInventory([]config.Device{
		{
			ID:     "of:00000000000000a1",
			Uplink: &uplink,
			Ports:  []config.Port{{Number: 16, Name: "portA"}},
		},
	})
	require.NoError(t, err)

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := accessdevice.New(inv, store, nil, 16)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { svc.Stop(context.Background()) })

	apiComp := api.New(config.API{Enabled: true, BasePath: "/oltapp"}, svc, nil, nil)
	srv := httptest.NewServer(apiComp.Handler())
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	cli := NewCLI(NewClient(srv.URL, "/oltapp", time.Second), srv.URL, "yaml", time.Second)
	cli.out = out
	return cli, svc, out
}

func TestServiceCommands(t *testing.T) {
	cli, svc, out := newTestCLI(t)

	require.NoError(t, cli.processCommand("service add portA"))
	assert.Equal(t, "accepted\n", out.String())

	out.Reset()
	require.NoError(t, cli.processCommand("service add portA 100 200"))
	assert.Equal(t, "accepted\n", out.String())
	assert.Equal(t, 1, svc.Stats().SubscriberVlans)

	out.Reset()
	require.NoError(t, cli.processCommand("service add unknown"))
	assert.Equal(t, "rejected by the access service\n", out.String())

	out.Reset()
	require.NoError(t, cli.processCommand("service remove portA"))
	assert.Equal(t, "accepted\n", out.String())
	assert.Zero(t, svc.Stats().Attachments)
}

func TestAttachmentCommands(t *testing.T) {
	cli, svc, out := newTestCLI(t)

	require.NoError(t, cli.processCommand("provision of:00000000000000a1 16"))
	require.NoError(t, cli.processCommand("remove of:00000000000000a1 16"))
	assert.Equal(t, "accepted\naccepted\n", out.String())

	require.Eventually(t, func() bool { return svc.Stats().Processed == 2 }, time.Second, 5*time.Millisecond)
}

func TestCommandErrors(t *testing.T) {
	cli, _, _ := newTestCLI(t)

	err := cli.processCommand("provision of:00000000000000a1 x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid port number")

	err = cli.processCommand("service add portA 100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both tags are required")

	err = cli.processCommand("provision of:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage:")

	err = cli.processCommand("frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestShowStatus(t *testing.T) {
	cli, _, out := newTestCLI(t)

	require.NoError(t, cli.processCommand("show status"))
	assert.Contains(t, out.String(), "base_path: /oltapp")
	assert.Contains(t, out.String(), "known_ports: 1")

	out.Reset()
	cli.format = "json"
	require.NoError(t, cli.processCommand("show status"))
	assert.Contains(t, out.String(), `"base_path": "/oltapp"`)
}

func TestExitAndHelp(t *testing.T) {
	cli, _, out := newTestCLI(t)

	require.NoError(t, cli.processCommand("help"))
	assert.Contains(t, out.String(), "service add <port-name> [<s-tag> <c-tag>]")

	require.NoError(t, cli.processCommand("quit"))
	assert.False(t, cli.running)
}

func TestWaitReady(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"state":"running"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "/oltapp", time.Second)
	require.NoError(t, client.WaitReady(context.Background(), 5*time.Second))
	assert.Equal(t, 3, calls)

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	err := NewClient(missing.URL, "/wrong", time.Second).WaitReady(context.Background(), 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check -base-path")

	noWatchdog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oltapp/readyz" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"state":"running"}`))
	}))
	defer noWatchdog.Close()

	require.NoError(t, NewClient(noWatchdog.URL, "/oltapp", time.Second).WaitReady(context.Background(), 5*time.Second))
}
