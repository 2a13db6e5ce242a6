// ABOUTME: Tests for generator discovery
// ABOUTME: Covers endpoint formatting and manager lifecycle
package discovery

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestGeneratorInfoAddr(t *testing.T) {
	info := GeneratorInfo{Name: "studio", Host: "192.168.1.20", Port: 9090}
	assert.Equal(t, "192.168.1.20:9090", info.Addr())
}

func TestNewManagerDefaultsInterval(t *testing.T) {
	m := NewManager(Config{}, log.New(io.Discard))
	defer m.Stop()

	assert.Equal(t, 5*time.Second, m.config.Interval)
	assert.NotNil(t, m.Generators())
}

func TestStopCancelsContext(t *testing.T) {
	m := NewManager(Config{Interval: time.Second}, log.New(io.Discard))
	m.Stop()

	select {
	case <-m.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after Stop")
	}
}
