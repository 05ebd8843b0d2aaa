package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"ukern/abi"
	"ukern/config"
)

func TestCompile(t *testing.T) {
}

func TestDefault(t *testing.T) {
	conf := config.DefaultConfig()
	assert.Equal(t, abi.PHYS_BASE, conf.UserTop())
	assert.Equal(t, uint32(8*1024), conf.StackBytes())
	assert.Equal(t, uint32(64*1024), conf.HeapBytes())
	assert.Equal(t, 130, conf.Slots())
	assert.True(t, conf.PrintExit)
	assert.Equal(t, uint32(16*1024*1024), conf.DiskBytes())
}

// Every file length fits in a non-negative result register.
func TestDiskSizeBound(t *testing.T) {
	conf, err := config.ParseConfig([]byte("disk_size: \"2147483647\"\n"))
	assert.Nil(t, err)
	assert.Equal(t, uint32(0x7fffffff), conf.DiskBytes())
}

func TestParse(t *testing.T) {
	conf, err := config.ParseConfig([]byte(`
stack_size: 16 KiB
max_fds: 8
print_exit: false
`))
	assert.Nil(t, err)
	assert.Equal(t, uint32(16*1024), conf.StackBytes())
	assert.Equal(t, 10, conf.Slots())
	assert.False(t, conf.PrintExit)
	assert.Equal(t, config.DEF_MAX_NAME_LEN, conf.MaxNameLen)
}

func TestParseEmpty(t *testing.T) {
	conf, err := config.ParseConfig(nil)
	assert.Nil(t, err)
	assert.Equal(t, config.DEF_MAX_FDS, conf.MaxFds)
}

func TestParseBad(t *testing.T) {
	for _, y := range []string{
		"bogus: 1\n",
		"stack_size: lots\n",
		"stack_size: 1000\n",
		"phys_base: 12345\n",
		"max_fds: 0\n",
		"heap_size: 4 GiB\n",
		"disk_size: 2 GiB\n",
		"disk_size: big\n",
	} {
		_, err := config.ParseConfig([]byte(y))
		assert.NotNil(t, err, "config %q", y)
	}
}

func TestReadConfig(t *testing.T) {
	pn := filepath.Join(t.TempDir(), "ukern.yaml")
	assert.Nil(t, os.WriteFile(pn, []byte("max_procs: 3\n"), 0644))
	conf, err := config.ReadConfig(pn)
	assert.Nil(t, err)
	assert.Equal(t, 3, conf.MaxProcs)

	t.Setenv(config.UKCONFIG, pn)
	conf, err = config.ReadConfigEnv()
	assert.Nil(t, err)
	assert.Equal(t, 3, conf.MaxProcs)

	_, err = config.ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}
