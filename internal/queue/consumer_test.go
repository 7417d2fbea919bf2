package queue

import (
    "context"
    "encoding/json"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestHandleMessage_RecordsEvent(t *testing.T) {
    want := VisitEvent{
        Path:      "/posts/hello",
        IP:        "10.0.0.1",
        UserAgent: "agent",
        Referer:   "https://example.com/",
        VisitedAt: "2026-08-28T10:00:00Z",
    }
    body, err := json.Marshal(want)
    require.NoError(t, err)

    var got VisitEvent
    rec := RecorderFunc(func(_ context.Context, ev VisitEvent) error {
        got = ev
        return nil
    })

    require.NoError(t, handleMessage(body, rec))
    assert.Equal(t, want, got)
}

func TestHandleMessage_BadPayload(t *testing.T) {
    rec := RecorderFunc(func(_ context.Context, _ VisitEvent) error {
        t.Fatal("recorder must not run for malformed payloads")
        return nil
    })
    assert.Error(t, handleMessage([]byte("{not json"), rec))
}

func TestHandleMessage_RecorderFailurePropagates(t *testing.T) {
    rec := RecorderFunc(func(_ context.Context, _ VisitEvent) error {
        return errors.New("db down")
    })
    err := handleMessage([]byte(`{"path":"/x"}`), rec)
    assert.ErrorContains(t, err, "db down")
}
