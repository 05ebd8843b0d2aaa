package loader_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ukern/abi"
	"ukern/config"
	"ukern/loader"
	"ukern/proc"
	"ukern/serr"
	"ukern/ulib"
	"ukern/vm"
)

func TestCompile(t *testing.T) {
}

func nop(u *ulib.U) int32 {
	return 0
}

func mkproc(conf *config.Config) *proc.Proc {
	return proc.NewProc(1, "p", vm.NewPagedir(conf.UserTop()), conf.Slots(), nil)
}

func word(t *testing.T, as vm.AddrSpace, va abi.Tva) abi.Tword {
	w, err := vm.ReadWord(as, va)
	assert.Nil(t, err)
	return w
}

func TestArgv(t *testing.T) {
	conf := config.DefaultConfig()
	r := loader.NewRegistry(conf)
	r.Register("echo", nop)
	p := mkproc(conf)
	argv := []string{"echo", "x", "hello"}
	img, err := r.Load(p, argv)
	assert.Nil(t, err)

	esp := img.Esp
	assert.Equal(t, abi.Tva(0), esp%abi.WORDSZ)
	assert.Equal(t, abi.Tword(0), word(t, p.AS, esp), "return address")
	assert.Equal(t, abi.Tword(len(argv)), word(t, p.AS, esp+4))
	argvp := abi.Tva(word(t, p.AS, esp+8))
	assert.Equal(t, esp+12, argvp)
	for i, a := range argv {
		s, err := vm.CopyInString(p.AS, abi.Tva(word(t, p.AS, argvp+abi.Tva(4*i))))
		assert.Nil(t, err)
		assert.Equal(t, a, s)
	}
	assert.Equal(t, abi.Tword(0), word(t, p.AS, argvp+abi.Tva(4*len(argv))))

	// Heap and text are mapped; the gap below the stack is not.
	assert.True(t, vm.IsValidRange(p.AS, loader.CODE_BASE, abi.PGSIZE+conf.HeapBytes()))
	assert.Equal(t, loader.CODE_BASE+abi.PGSIZE, img.Heap)
	assert.False(t, vm.IsValidPtr(p.AS, img.HeapEnd))
	assert.False(t, vm.IsValidPtr(p.AS, conf.UserTop()-abi.Tva(conf.StackBytes())-1))
}

func TestUnknown(t *testing.T) {
	conf := config.DefaultConfig()
	r := loader.NewRegistry(conf)
	_, err := r.Load(mkproc(conf), []string{"nosuch"})
	assert.True(t, serr.IsErrCode(err, serr.TErrNoLoad))
}

func TestArgsTooLong(t *testing.T) {
	conf := config.DefaultConfig()
	r := loader.NewRegistry(conf)
	r.Register("echo", nop)
	big := strings.Repeat("a", int(conf.StackBytes()))
	_, err := r.Load(mkproc(conf), []string{"echo", big})
	assert.True(t, serr.IsErrCode(err, serr.TErrNoLoad))
}

func TestNames(t *testing.T) {
	r := loader.NewRegistry(config.DefaultConfig())
	r.Register("b", nop)
	r.Register("a", nop)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
