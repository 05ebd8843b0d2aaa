package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/readahead"

	"ukern/config"
	"ukern/console"
	db "ukern/debug"
	"ukern/kernel"
	"ukern/loader"
	"ukern/memfs"
	"ukern/serr"
	"ukern/userprogs"
)

var confpn = flag.String("config", "", "YAML config file (default $UKCONFIG or built-in)")
var debug = flag.String("debug", "", "debug selectors, as in $UKDEBUG")
var files = flag.String("put", "", "comma-separated host files to copy onto the disk")

const BUFSZ = 4096

// feed passes keystrokes from the host to the console as they arrive.
func feed(cons *console.Console, in io.Reader) {
	defer cons.CloseInput()

	rdr, err := readahead.NewReaderSize(in, 4, BUFSZ)
	if err != nil {
		db.DPrintf(db.CONSOLE, "readahead: %v", err)
		return
	}
	defer rdr.Close()
	b := make([]byte, BUFSZ)
	for {
		n, err := rdr.Read(b)
		if n > 0 {
			cons.Feed(b[:n])
		}
		if err != nil {
			if err != io.EOF {
				db.DPrintf(db.CONSOLE, "stdin: %v", err)
			}
			return
		}
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] cmdline...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *debug != "" {
		db.SetDebug(*debug)
	}
	db.SetPrefix("ukernel")

	var conf *config.Config
	var err error
	if *confpn != "" {
		conf, err = config.ReadConfig(*confpn)
	} else {
		conf, err = config.ReadConfigEnv()
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fsys := memfs.NewMemFs(conf.MaxNameLen, uint64(conf.DiskBytes()))
	if *files != "" {
		for _, pn := range strings.Split(*files, ",") {
			b, err := os.ReadFile(pn)
			if err != nil {
				log.Fatalf("put %v: %v", pn, err)
			}
			name := pn[strings.LastIndex(pn, "/")+1:]
			if err := fsys.PutFile(name, b); err != nil {
				log.Fatalf("put %v: %v", pn, err)
			}
		}
	}

	cons := console.NewConsole(os.Stdout)
	go feed(cons, os.Stdin)

	ldr := loader.NewRegistry(conf)
	userprogs.Register(ldr)

	k := kernel.NewKernel(conf, fsys, cons, ldr)
	status, err := k.RunInit(strings.Join(flag.Args(), " "))
	db.DPrintf(db.KSTATS, "\n%v", k.Stats())
	if err != nil {
		if serr.IsErrCode(err, serr.TErrHalted) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "ukernel: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(status) & 0xFF)
}
