package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLabels(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{IdleStatus(), "Ready"},
		{LoadingStatus(), "Loading..."},
		{InjectingStatus(), "Injecting..."},
		{SentStatus(), "Sent"},
		{ErrorStatus(""), "Error"},
		{ErrorStatus("ERR: Input not found"), "ERR: Input not found"},
		{Status{Kind: StatusError}, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Label())
		})
	}
}

func TestStatusForLoad(t *testing.T) {
	assert.Equal(t, LoadingStatus(), StatusForLoad(Loading))
	assert.Equal(t, IdleStatus(), StatusForLoad(Ready))
	assert.Equal(t, ErrorStatus("Load failed"), StatusForLoad(Failed))
}

func TestBrokenHost(t *testing.T) {
	cause := errors.New("browser missing")
	h := NewBroken("https://claude.ai", cause)

	assert.Equal(t, "https://claude.ai", h.URL())
	assert.ErrorIs(t, h.Navigate("https://claude.ai/new"), cause)
	assert.ErrorIs(t, h.Reload(), cause)

	_, err := h.ExecuteScript(context.Background(), "1")
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, h.Close())
}

func TestEventFuncs(t *testing.T) {
	var title, url string
	var state LoadState
	var ev Events = EventFuncs{
		OnTitle:     func(s string) { title = s },
		OnNavigate:  func(s string) { url = s },
		OnLoadState: func(s LoadState) { state = s },
	}

	ev.TitleUpdated("t")
	ev.Navigated("u")
	ev.LoadStateChanged(Failed)

	assert.Equal(t, "t", title)
	assert.Equal(t, "u", url)
	assert.Equal(t, Failed, state)

	assert.NotPanics(t, func() {
		EventFuncs{}.TitleUpdated("x")
	})
}
