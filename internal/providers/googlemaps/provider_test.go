package googlemaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripInstructions(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		want        string
	}{
		{
			name:        "tags removed",
			instruction: `Merge onto <b>MoPac Expy Express Lane</b> via the ramp`,
			want:        "Merge onto MoPac Expy Express Lane via the ramp",
		},
		{
			name:        "entities unescaped",
			instruction: `Take exit <b>12</b> toward <b>TX&#8209;45 Toll</b>`,
			want:        "Take exit 12 toward TX‑45 Toll",
		},
		{
			name:        "div markers collapse to single spaces",
			instruction: `Continue onto <b>Sam Houston Tollway</b><div style="font-size:0.9em">Toll road</div>`,
			want:        "Continue onto Sam Houston Tollway Toll road",
		},
		{
			name:        "plain text untouched",
			instruction: "Turn right onto Lamar Blvd",
			want:        "Turn right onto Lamar Blvd",
		},
		{
			name:        "empty",
			instruction: "",
			want:        "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripInstructions(tt.instruction))
		})
	}
}

func TestGetProviderName(t *testing.T) {
	p := &Provider{config: &Config{}}
	assert.Equal(t, "googlemaps", p.GetProviderName())
}
