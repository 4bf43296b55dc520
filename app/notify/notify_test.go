package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, destination, text string) error

func (f senderFunc) Send(ctx context.Context, destination, text string) error {
	return f(ctx, destination, text)
}

func TestNewService(t *testing.T) {
	assert.Nil(t, NewService(Params{}))
	svc := NewService(Params{ToEmails: []string{"me@example.com"}})
	require.NotNil(t, svc)
	assert.NotNil(t, svc.sender)
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		wantErr string
	}{
		{name: "ok"},
		{name: "failed", sendErr: errors.New("smtp down"), wantErr: `failed to send "subj here": smtp down`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dest, body string
			svc := Service{fromEmail: "bot@example.com", toEmails: []string{"a@example.com", "b@example.com"},
				sender: senderFunc(func(_ context.Context, d, txt string) error {
					dest, body = d, txt
					return tt.sendErr
				})}

			err := svc.Send(context.Background(), "subj here", "some text")
			assert.Equal(t, "mailto:a@example.com,b@example.com?from=bot%40example.com&subject=subj+here", dest)
			assert.Equal(t, "some text", body)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_BackupFailed(t *testing.T) {
	var subj, body string
	svc := Service{fromEmail: "bot@example.com", toEmails: []string{"a@example.com"}, hostName: "box",
		now: func() time.Time { return time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC) },
		sender: senderFunc(func(_ context.Context, d, txt string) error {
			subj, body = d, txt
			return nil
		})}

	require.NoError(t, svc.BackupFailed(context.Background(), "/srv/backups", errors.New("disk <full>")))
	assert.Contains(t, subj, "subject=jobtrack+backup+failed")
	assert.Contains(t, body, `Job tracker backup failed on <span class="bold">box</span> at 2025-06-15T03:00:00Z`)
	assert.Contains(t, body, "/srv/backups")
	assert.Contains(t, body, "disk &lt;full&gt;", "error text escaped")
}
