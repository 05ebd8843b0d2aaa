package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"ukern/abi"
	db "ukern/debug"
)

const (
	UKCONFIG = "UKCONFIG"

	DEF_MAX_FDS      = 128
	DEF_MAX_PROCS    = 64
	DEF_MAX_NAME_LEN = 14
	DEF_STACK_SIZE   = "8 KiB"
	DEF_HEAP_SIZE    = "64 KiB"
	DEF_DISK_SIZE    = "16 MiB"
)

// Config holds the tunables of the boundary layer. Every field has a
// default; a YAML file only needs the ones it changes.
type Config struct {
	PhysBase   uint32 `yaml:"phys_base"`
	StackSize  string `yaml:"stack_size"`
	HeapSize   string `yaml:"heap_size"`
	DiskSize   string `yaml:"disk_size"`
	MaxFds     int    `yaml:"max_fds"`
	MaxProcs   int    `yaml:"max_procs"`
	MaxNameLen int    `yaml:"max_name_len"`
	PrintExit  bool   `yaml:"print_exit"`

	stackBytes uint32
	heapBytes  uint32
	diskBytes  uint32
}

func DefaultConfig() *Config {
	conf := &Config{
		PhysBase:   uint32(abi.PHYS_BASE),
		StackSize:  DEF_STACK_SIZE,
		HeapSize:   DEF_HEAP_SIZE,
		DiskSize:   DEF_DISK_SIZE,
		MaxFds:     DEF_MAX_FDS,
		MaxProcs:   DEF_MAX_PROCS,
		MaxNameLen: DEF_MAX_NAME_LEN,
		PrintExit:  true,
	}
	if err := conf.Validate(); err != nil {
		db.DFatalf("DefaultConfig: %v", err)
	}
	return conf
}

// ParseConfig decodes b on top of the defaults.
func ParseConfig(b []byte) (*Config, error) {
	conf := DefaultConfig()
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ParseConfig: %v", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func ReadConfig(pn string) (*Config, error) {
	b, err := os.ReadFile(pn)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ReadConfigEnv reads the file named by UKCONFIG, if set.
func ReadConfigEnv() (*Config, error) {
	pn := os.Getenv(UKCONFIG)
	if pn == "" {
		return DefaultConfig(), nil
	}
	return ReadConfig(pn)
}

func (conf *Config) Validate() error {
	if conf.PhysBase == 0 || conf.PhysBase%abi.PGSIZE != 0 {
		return fmt.Errorf("phys_base %#x not a non-zero page multiple", conf.PhysBase)
	}
	n, err := humanize.ParseBytes(conf.StackSize)
	if err != nil {
		return fmt.Errorf("stack_size %q: %v", conf.StackSize, err)
	}
	if n == 0 || n%abi.PGSIZE != 0 || n >= uint64(conf.PhysBase) {
		return fmt.Errorf("stack_size %v must be a non-zero page multiple below phys_base", humanize.IBytes(n))
	}
	conf.stackBytes = uint32(n)
	h, err := humanize.ParseBytes(conf.HeapSize)
	if err != nil {
		return fmt.Errorf("heap_size %q: %v", conf.HeapSize, err)
	}
	if h%abi.PGSIZE != 0 || h+n >= uint64(conf.PhysBase) {
		return fmt.Errorf("heap_size %v must be a page multiple that fits below phys_base", humanize.IBytes(h))
	}
	conf.heapBytes = uint32(h)
	d, err := humanize.ParseBytes(conf.DiskSize)
	if err != nil {
		return fmt.Errorf("disk_size %q: %v", conf.DiskSize, err)
	}
	// File lengths are returned in a signed 32-bit register.
	if d > math.MaxInt32 {
		return fmt.Errorf("disk_size %v exceeds %v", humanize.IBytes(d), humanize.IBytes(math.MaxInt32))
	}
	conf.diskBytes = uint32(d)
	if conf.MaxFds < 1 {
		return fmt.Errorf("max_fds %d < 1", conf.MaxFds)
	}
	if conf.MaxProcs < 1 {
		return fmt.Errorf("max_procs %d < 1", conf.MaxProcs)
	}
	if conf.MaxNameLen < 1 {
		return fmt.Errorf("max_name_len %d < 1", conf.MaxNameLen)
	}
	return nil
}

func (conf *Config) UserTop() abi.Tva {
	return abi.Tva(conf.PhysBase)
}

func (conf *Config) StackBytes() uint32 {
	return conf.stackBytes
}

func (conf *Config) HeapBytes() uint32 {
	return conf.heapBytes
}

// DiskBytes is the total size of all files the disk can hold.
func (conf *Config) DiskBytes() uint32 {
	return conf.diskBytes
}

// Slots is the size of a process's descriptor table, reserved slots
// included.
func (conf *Config) Slots() int {
	return conf.MaxFds + abi.NRESERVED
}

func (conf *Config) String() string {
	return fmt.Sprintf("{phys_base %#x stack %v heap %v disk %v max_fds %d max_procs %d max_name_len %d print_exit %v}",
		conf.PhysBase, humanize.IBytes(uint64(conf.stackBytes)), humanize.IBytes(uint64(conf.heapBytes)), humanize.IBytes(uint64(conf.diskBytes)), conf.MaxFds, conf.MaxProcs, conf.MaxNameLen, conf.PrintExit)
}
