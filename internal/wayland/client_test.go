package wayland

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnema/glint/internal/protocols"
)

func fullCapabilities() Capabilities {
	return Capabilities{
		Compositor:        &protocols.Compositor{},
		WmBase:            &protocols.WmBase{},
		Shm:               &protocols.Shm{},
		DecorationManager: &protocols.DecorationManager{},
	}
}

func TestCapabilitiesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Capabilities)
		wantErr string
	}{
		{
			name:   "all globals bound",
			mutate: func(c *Capabilities) {},
		},
		{
			name:   "decoration manager is optional",
			mutate: func(c *Capabilities) { c.DecorationManager = nil },
		},
		{
			name:    "missing compositor",
			mutate:  func(c *Capabilities) { c.Compositor = nil },
			wantErr: protocols.CompositorInterface,
		},
		{
			name:    "missing wm base",
			mutate:  func(c *Capabilities) { c.WmBase = nil },
			wantErr: protocols.WmBaseInterface,
		},
		{
			name:    "missing shm",
			mutate:  func(c *Capabilities) { c.Shm = nil },
			wantErr: protocols.ShmInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := fullCapabilities()
			tt.mutate(&caps)
			err := caps.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestHasDecorationManager(t *testing.T) {
	caps := fullCapabilities()
	assert.True(t, caps.HasDecorationManager())

	caps.DecorationManager = nil
	assert.False(t, caps.HasDecorationManager())
}
