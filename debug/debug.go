package debug

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
)

const UKDEBUG = "UKDEBUG"

func init() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
}

//
// Debug output is controlled by the UKDEBUG environment variable,
// which can be a list of labels (e.g., "SYSCALL;PROC").
//

var (
	mu     sync.Mutex
	labels map[Tselector]bool
	pfx    = "kernel"
)

func debugLabels() map[Tselector]bool {
	mu.Lock()
	defer mu.Unlock()

	if labels != nil {
		return labels
	}
	labels = make(map[Tselector]bool)
	s := os.Getenv(UKDEBUG)
	if s == "" {
		return labels
	}
	for _, l := range strings.Split(s, ";") {
		labels[Tselector(l)] = true
	}
	return labels
}

// SetDebug replaces the label set; used by tests and by cmd/ukernel's
// -debug flag.
func SetDebug(s string) {
	mu.Lock()
	defer mu.Unlock()

	labels = make(map[Tselector]bool)
	if s == "" {
		return
	}
	for _, l := range strings.Split(s, ";") {
		labels[Tselector(l)] = true
	}
}

// SetPrefix sets the name printed in front of every debug line.
func SetPrefix(p string) {
	mu.Lock()
	defer mu.Unlock()
	pfx = p
}

func prefix() string {
	mu.Lock()
	defer mu.Unlock()
	return pfx
}

func IsLabelSet(label Tselector) bool {
	_, ok := debugLabels()[label]
	return ok
}

func DPrintf(label Tselector, format string, v ...interface{}) {
	if label == ALWAYS || IsLabelSet(label) {
		log.Printf("%v %v %v", prefix(), label, fmt.Sprintf(format, v...))
	}
}

func DFatalf(format string, v ...interface{}) {
	// Get info for the caller.
	pc, file, line, ok := runtime.Caller(1)
	fnDetails := runtime.FuncForPC(pc)
	if ok && fnDetails != nil {
		log.Fatalf("FATAL %v %v %v:%v %v", prefix(), fnDetails.Name(), file, line, fmt.Sprintf(format, v...))
	} else {
		log.Fatalf("FATAL %v (missing details) %v", prefix(), fmt.Sprintf(format, v...))
	}
}
