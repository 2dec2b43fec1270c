package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
)

func TestRemoteControlURLPassesCapabilityFlagsThrough(t *testing.T) {
	p := NewProvisioner(config.ProvisionerConfig{
		Endpoint: "wss://chrome.example.com/",
		Token:    "tok-123",
		ProxyURL: "http://egress.example.com:3128",
	})

	u, err := p.remoteControlURL(models.Capabilities{
		UseProxy:              true,
		Stealth:               true,
		AcquireTimeoutSeconds: 20,
	})
	require.NoError(t, err)

	assert.Contains(t, u, "token=tok-123")
	assert.Contains(t, u, "stealth=true")
	assert.Contains(t, u, "timeout=20000")
	assert.Contains(t, u, "proxy-server")
}

func TestRemoteControlURLOmitsUnrequestedFlags(t *testing.T) {
	p := NewProvisioner(config.ProvisionerConfig{
		Endpoint: "wss://chrome.example.com/",
		Token:    "tok-123",
		ProxyURL: "http://egress.example.com:3128",
	})

	u, err := p.remoteControlURL(models.Capabilities{})
	require.NoError(t, err)

	assert.NotContains(t, u, "stealth")
	assert.NotContains(t, u, "proxy-server")
}

func TestRemoteControlURLRequiresToken(t *testing.T) {
	p := NewProvisioner(config.ProvisionerConfig{Endpoint: "wss://chrome.example.com/"})

	_, err := p.remoteControlURL(models.Capabilities{})
	require.Error(t, err)

	var checkErr *models.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, models.ErrCodeProvisioning, checkErr.Code)
}

func TestInspectURLFor(t *testing.T) {
	assert.Equal(t, "https://chrome.example.com/sessions",
		inspectURLFor("wss://chrome.example.com/?token=t"))
	assert.Equal(t, "http://127.0.0.1:9222/",
		inspectURLFor("ws://127.0.0.1:9222/devtools/browser/abc"))
}
