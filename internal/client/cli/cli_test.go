package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/auth"
	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/iocli"
	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/client/sync"
	"github.com/iudanet/gophsync/internal/replication"
)

// output собирает все, что команда напечатала
type output struct {
	strings.Builder
}

func newMockIO(out *output, inputs ...string) *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			out.WriteString(fmt.Sprintln(a...))
		},
		PrintfFunc: func(format string, a ...any) {
			out.WriteString(fmt.Sprintf(format, a...))
		},
		WriteFunc: func(p []byte) (int, error) {
			return out.Write(p)
		},
		ReadInputFunc: func(prompt string) (string, error) {
			if len(inputs) == 0 {
				return "", errors.New("no input")
			}
			in := inputs[0]
			inputs = inputs[1:]
			return in, nil
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			if len(inputs) == 0 {
				return "", errors.New("no input")
			}
			in := inputs[0]
			inputs = inputs[1:]
			return in, nil
		},
	}
}

func newTestCli(io iocli.IO, dataService data.Service, authStore storage.AuthStorage, syncService sync.Service) *Cli {
	deps := Deps{
		IO:          io,
		DataService: dataService,
		Collection:  "notes",
		ServerURL:   "http://localhost:8080",
	}
	if authStore != nil {
		deps.AuthService = auth.NewService(authStore, nil)
	}
	if syncService != nil {
		deps.SyncFactory = func(ctx context.Context) (sync.Service, error) {
			return syncService, nil
		}
	}
	return New(deps)
}

func TestCli_Run_UnknownCommand(t *testing.T) {
	out := &output{}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, nil)

	err := cli.Run(context.Background(), "register", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestCli_runSync(t *testing.T) {
	tests := []struct {
		result     *sync.SyncResult
		syncErr    error
		name       string
		wantOutput []string
		wantErr    bool
	}{
		{
			name:       "success",
			result:     &sync.SyncResult{Pushed: 3, Pulled: 2},
			wantOutput: []string{"✓ Synchronization completed", "Pushed to master:   3", "Pulled from master: 2"},
		},
		{
			name:       "with conflicts",
			result:     &sync.SyncResult{Pushed: 1, Conflicts: 1, Errors: 2},
			wantOutput: []string{"Conflicts resolved: 1", "Retried steps:      2"},
		},
		{
			name:       "failure",
			result:     &sync.SyncResult{Errors: 4},
			syncErr:    errors.New("connection refused"),
			wantOutput: []string{"Failed attempts: 4"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			mockSync := &sync.ServiceMock{
				SyncFunc: func(ctx context.Context) (*sync.SyncResult, error) {
					return tt.result, tt.syncErr
				},
			}
			cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, mockSync)

			err := cli.Run(context.Background(), "sync", nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.syncErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
			assert.Len(t, mockSync.SyncCalls(), 1)
		})
	}
}

func TestCli_runSync_NotConfigured(t *testing.T) {
	out := &output{}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, nil)
	assert.Error(t, cli.Run(context.Background(), "sync", nil))
}

func TestCli_runSync_FactoryError(t *testing.T) {
	out := &output{}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, nil)
	cli.newSync = func(ctx context.Context) (sync.Service, error) {
		return nil, auth.ErrNotAuthenticated
	}

	err := cli.Run(context.Background(), "sync", nil)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestCli_runWatch(t *testing.T) {
	out := &output{}
	mockSync := &sync.ServiceMock{
		WatchFunc: func(ctx context.Context, observe func(*replication.Replication)) error {
			assert.NotNil(t, observe)
			return nil
		},
	}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, mockSync)

	require.NoError(t, cli.Run(context.Background(), "watch", nil))
	assert.Len(t, mockSync.WatchCalls(), 1)
	assert.Contains(t, out.String(), `Replicating collection "notes"`)
	assert.Contains(t, out.String(), "✓ Replication stopped.")
}

func TestCli_runWatch_Error(t *testing.T) {
	out := &output{}
	mockSync := &sync.ServiceMock{
		WatchFunc: func(ctx context.Context, observe func(*replication.Replication)) error {
			return errors.New("replication stopped: unauthorized")
		},
	}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, mockSync)

	err := cli.Run(context.Background(), "watch", nil)
	require.Error(t, err)
	assert.NotContains(t, out.String(), "✓ Replication stopped.")
}

func TestCli_runWatch_Metrics(t *testing.T) {
	out := &output{}
	mockSync := &sync.ServiceMock{
		WatchFunc: func(ctx context.Context, observe func(*replication.Replication)) error {
			return nil
		},
	}
	cli := newTestCli(newMockIO(out), &data.ServiceMock{}, nil, mockSync)
	cli.metricsAddr = "127.0.0.1:0"

	require.NoError(t, cli.Run(context.Background(), "watch", nil))
	assert.Contains(t, out.String(), "/metrics")
}

func TestCli_runReset(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		inputs    []string
		wantReset bool
	}{
		{name: "confirmed", inputs: []string{"yes"}, wantReset: true},
		{name: "cancelled", inputs: []string{"no"}},
		{name: "without confirmation", args: []string{"-yes"}, wantReset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			mockSync := &sync.ServiceMock{
				ResetFunc: func(ctx context.Context) error {
					return nil
				},
			}
			cli := newTestCli(newMockIO(out, tt.inputs...), &data.ServiceMock{}, nil, mockSync)

			require.NoError(t, cli.Run(context.Background(), "reset", tt.args))
			if tt.wantReset {
				assert.Len(t, mockSync.ResetCalls(), 1)
				assert.Contains(t, out.String(), "✓ Replication state cleared.")
			} else {
				assert.Empty(t, mockSync.ResetCalls())
			}
		})
	}
}
